package api

import (
	"errors"
	"net/http"

	"github.com/and161185/storefront/internal/errs"
)

// Error is a failed API call. Status is 0 when no response was received.
type Error struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the transport sentinel for the status class and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if k := e.kind(); k != nil {
		out = append(out, k)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (e *Error) kind() error {
	switch e.Status {
	case 0:
		if errors.Is(e.Err, errs.ErrTimeout) {
			return nil
		}
		return errs.ErrNetwork
	case http.StatusBadRequest:
		return errs.ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.ErrUnauthorized
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrConflict
	}
	return nil
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsTransport reports whether err failed before any response arrived.
func IsTransport(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == 0
}

const (
	msgTimeout = "the request took too long, check your internet connection"
	msgNetwork = "connection error, check that the server is available"
)

func fallbackMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "conflict with the current state of the resource"
	}
	if status >= 500 {
		return "server error, try again later"
	}
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "unexpected response"
}
