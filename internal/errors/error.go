package errors

import (
	"fmt"
	"strings"
)

// Category groups error codes by the layer that raises them.
type Category string

const (
	CategoryLens       Category = "lens"
	CategoryBatch      Category = "batch"
	CategoryBinding    Category = "binding"
	CategoryValidation Category = "validation"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// AtomError is a coded error. Code and Category come from the registry;
// Subject names the atom, field, flag or file involved.
type AtomError struct {
	Code     string
	Category Category

	Message    string
	Detail     string
	Subject    string
	Suggestion string

	Wrapped error
}

// Error renders "CODE: message (subject): cause", leaving out empty parts.
func (e *AtomError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code + ": ")
	}
	b.WriteString(e.Message)
	if e.Subject != "" {
		b.WriteString(" (" + e.Subject + ")")
	}
	if e.Wrapped != nil {
		b.WriteString(": " + e.Wrapped.Error())
	}
	return b.String()
}

func (e *AtomError) Unwrap() error {
	return e.Wrapped
}

// Is matches another *AtomError carrying the same non-empty code.
func (e *AtomError) Is(target error) bool {
	t, ok := target.(*AtomError)
	return ok && t.Code != "" && t.Code == e.Code
}

func (e *AtomError) WithSubject(s string) *AtomError {
	e.Subject = s
	return e
}

func (e *AtomError) WithSuggestion(s string) *AtomError {
	e.Suggestion = s
	return e
}

func (e *AtomError) WithDetail(d string) *AtomError {
	e.Detail = d
	return e
}

// Wrap sets the cause reported by Unwrap.
func (e *AtomError) Wrap(err error) *AtomError {
	e.Wrapped = err
	return e
}

// New returns a fresh error for a registered code. Unregistered codes
// get the message "Unknown error" and no category.
func New(code string) *AtomError {
	e := &AtomError{Code: code, Message: "Unknown error"}
	if entry, ok := registry[code]; ok {
		e.Category = entry.Category
		e.Message = entry.Message
		e.Detail = entry.Detail
	}
	return e
}

// Newf returns an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *AtomError {
	return &AtomError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns err itself when it already is an *AtomError, and
// otherwise wraps it under code.
func FromError(err error, code string) *AtomError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AtomError); ok {
		return ae
	}
	return New(code).Wrap(err)
}
