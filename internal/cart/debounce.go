package cart

import (
	"sync"
	"time"
)

// DefaultDebounce is the settling period of quantity edits.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer coalesces quantity edits per item: only the last value entered
// within the settling period is applied. A value below 1 cancels the
// pending edit.
type Debouncer struct {
	delay time.Duration
	apply func(itemID int64, qty int)

	mu      sync.Mutex
	seq     uint64
	pending map[int64]pendingEdit
}

type pendingEdit struct {
	seq   uint64
	qty   int
	timer *time.Timer
}

func NewDebouncer(delay time.Duration, apply func(itemID int64, qty int)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, apply: apply, pending: map[int64]pendingEdit{}}
}

// Set records an edit and restarts the item's timer.
func (d *Debouncer) Set(itemID int64, qty int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[itemID]; ok {
		p.timer.Stop()
		delete(d.pending, itemID)
	}
	if qty < 1 {
		return
	}
	d.seq++
	seq := d.seq
	d.pending[itemID] = pendingEdit{
		seq:   seq,
		qty:   qty,
		timer: time.AfterFunc(d.delay, func() { d.fire(itemID, seq) }),
	}
}

func (d *Debouncer) fire(itemID int64, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[itemID]
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, itemID)
	d.mu.Unlock()
	d.apply(itemID, p.qty)
}

// Flush applies every pending edit now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	ready := make(map[int64]int, len(d.pending))
	for id, p := range d.pending {
		p.timer.Stop()
		ready[id] = p.qty
	}
	clear(d.pending)
	d.mu.Unlock()
	for id, qty := range ready {
		d.apply(id, qty)
	}
}

// Stop drops every pending edit.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pending {
		p.timer.Stop()
	}
	clear(d.pending)
}

// Pending is the number of items with an unsettled edit.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
