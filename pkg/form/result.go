package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the state of a validation result.
type Status int

const (
	StatusValidating Status = iota
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusValidating:
		return "validating"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is a validation result. Error results carry a message and the
// results of the fields that failed, keyed by field name or slice index.
type Result struct {
	Status   Status            `json:"status"`
	Error    string            `json:"error,omitempty"`
	Type     string            `json:"type,omitempty"`
	Children map[string]Result `json:"children,omitempty"`
}

// Validating returns a validating result.
func Validating() Result {
	return Result{Status: StatusValidating}
}

// Success returns a success result.
func Success() Result {
	return Result{Status: StatusSuccess}
}

// Failure returns an error result with no children.
func Failure(msg string) Result {
	return Result{Status: StatusError, Error: msg}
}

// Child returns the result for a field. A validating result stays
// validating, an error result yields the field's error if it has one,
// and anything else is a success.
func (r Result) Child(field string) Result {
	switch r.Status {
	case StatusValidating:
		return Validating()
	case StatusError:
		if c, ok := r.Children[field]; ok {
			return c
		}
		for name, c := range r.Children {
			if strings.EqualFold(name, field) {
				return c
			}
		}
	}
	return Success()
}

// Valid reports whether r is a success.
func (r Result) Valid() bool {
	return r.Status == StatusSuccess
}

// set records child as the result at path, creating error
// intermediates. Existing children of intermediates are kept.
func (r *Result) set(path []string, child Result) {
	if len(path) == 0 {
		return
	}
	if r.Children == nil {
		r.Children = make(map[string]Result)
	}
	head := path[0]
	if len(path) == 1 {
		if prev, ok := r.Children[head]; ok && len(prev.Children) > 0 {
			child.Children = prev.Children
		}
		r.Children[head] = child
		return
	}
	next, ok := r.Children[head]
	if !ok {
		next = Result{Status: StatusError, Error: child.Error, Type: child.Type}
	}
	next.set(path[1:], child)
	r.Children[head] = next
}
