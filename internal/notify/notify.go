// Package notify is a bounded queue of transient user notifications.
//
// Any component may push; one consumer reads Events. Every message expires
// on its own timer unless closed first.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Kind is the severity of a message.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultTTL is the display time of a message of the given kind.
func DefaultTTL(k Kind) time.Duration {
	switch k {
	case Success:
		return 2 * time.Second
	case Error:
		return 5 * time.Second
	}
	return 3 * time.Second
}

// Message is one notification. A zero TTL means DefaultTTL(Kind).
type Message struct {
	ID    uuid.UUID
	Kind  Kind
	Title string
	Text  string
	TTL   time.Duration
}

// EventType tells the consumer what happened to a message.
type EventType int

const (
	Shown EventType = iota
	Expired
	Closed
)

func (t EventType) String() string {
	switch t {
	case Shown:
		return "shown"
	case Expired:
		return "expired"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Event struct {
	Type    EventType
	Message Message
}

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrShutdown  = errors.New("notification queue shut down")
)

// Queue delivers events over a bounded channel. Producers never block.
type Queue struct {
	events chan Event

	mu     sync.Mutex
	active map[uuid.UUID]activeMsg
	closed bool

	dropped atomic.Int64
}

type activeMsg struct {
	msg   Message
	timer *time.Timer
}

// NewQueue creates a queue holding up to capacity undelivered events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		events: make(chan Event, capacity),
		active: map[uuid.UUID]activeMsg{},
	}
}

// Events is the consumer side.
func (q *Queue) Events() <-chan Event { return q.events }

// Push shows a message and arms its expiry timer.
func (q *Queue) Push(m Message) (uuid.UUID, error) {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, err
		}
		m.ID = id
	}
	if m.TTL <= 0 {
		m.TTL = DefaultTTL(m.Kind)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return uuid.Nil, ErrShutdown
	}
	if !q.sendLocked(Event{Type: Shown, Message: m}) {
		return uuid.Nil, ErrQueueFull
	}
	id := m.ID
	q.active[id] = activeMsg{msg: m, timer: time.AfterFunc(m.TTL, func() { q.finish(id, Expired) })}
	return id, nil
}

// Close dismisses a message before it expires. It reports whether the
// message was still showing.
func (q *Queue) Close(id uuid.UUID) bool {
	return q.finish(id, Closed)
}

func (q *Queue) finish(id uuid.UUID, typ EventType) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.active[id]
	if !ok || q.closed {
		return false
	}
	a.timer.Stop()
	delete(q.active, id)
	q.sendLocked(Event{Type: typ, Message: a.msg})
	return true
}

func (q *Queue) sendLocked(ev Event) bool {
	select {
	case q.events <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Active is the number of messages currently showing.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// Dropped counts events lost to a full queue.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Shutdown stops all timers and closes the event channel.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, a := range q.active {
		a.timer.Stop()
		delete(q.active, id)
	}
	close(q.events)
}

func (q *Queue) push(k Kind, title, text string) {
	_, _ = q.Push(Message{Kind: k, Title: title, Text: text})
}

func (q *Queue) Success(title, text string) { q.push(Success, title, text) }
func (q *Queue) Error(title, text string)   { q.push(Error, title, text) }
func (q *Queue) Warning(title, text string) { q.push(Warning, title, text) }
func (q *Queue) Info(title, text string)    { q.push(Info, title, text) }

// Render prints shown messages to w until ctx ends or the queue shuts down.
func Render(ctx context.Context, q *Queue, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-q.Events():
			if !ok {
				return nil
			}
			if ev.Type != Shown {
				continue
			}
			if _, err := fmt.Fprintln(w, Format(ev.Message)); err != nil {
				return err
			}
		}
	}
}

// Format renders a message as one line.
func Format(m Message) string {
	if m.Text == "" {
		return fmt.Sprintf("[%s] %s", m.Kind, m.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Kind, m.Title, m.Text)
}
