package wrapped

import (
	"encoding/json"
	"fmt"
)

// Status is the state of an asynchronous value.
type Status int

const (
	StatusIdle      Status = iota // Nothing requested yet
	StatusPending                 // Request in progress
	StatusFulfilled               // Value available
	StatusRejected                // Request failed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Wrapped is an asynchronous value together with its status.
// Value is only meaningful when fulfilled, Err only when rejected.
type Wrapped[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Idle returns an idle Wrapped.
func Idle[T any]() Wrapped[T] {
	return Wrapped[T]{Status: StatusIdle}
}

// Pending returns a pending Wrapped.
func Pending[T any]() Wrapped[T] {
	return Wrapped[T]{Status: StatusPending}
}

// Fulfilled returns a Wrapped holding v.
func Fulfilled[T any](v T) Wrapped[T] {
	return Wrapped[T]{Status: StatusFulfilled, Value: v}
}

// Rejected returns a Wrapped holding err.
func Rejected[T any](err error) Wrapped[T] {
	return Wrapped[T]{Status: StatusRejected, Err: err}
}

// Get returns the value and whether it is fulfilled.
func (w Wrapped[T]) Get() (T, bool) {
	if w.Status != StatusFulfilled {
		var zero T
		return zero, false
	}
	return w.Value, true
}

// IsSettled reports whether the value is fulfilled or rejected.
func (w Wrapped[T]) IsSettled() bool {
	return w.Status == StatusFulfilled || w.Status == StatusRejected
}

type wireWrapped[T any] struct {
	Status string `json:"status"`
	Value  *T     `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// MarshalJSON encodes the status as a string, plus the value or error message.
func (w Wrapped[T]) MarshalJSON() ([]byte, error) {
	out := wireWrapped[T]{Status: w.Status.String()}
	switch w.Status {
	case StatusFulfilled:
		v := w.Value
		out.Value = &v
	case StatusRejected:
		if w.Err != nil {
			out.Error = w.Err.Error()
		}
	}
	return json.Marshal(out)
}
