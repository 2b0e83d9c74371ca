package atom

import (
	"errors"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
)

// Error is the structured error returned by atom operations.
type Error = atomerrors.AtomError

// Sentinel errors for atom operations.
var (
	// ErrBatchPanic is wrapped by the error of a batch whose callback panicked.
	ErrBatchPanic = errors.New("atom: batch callback panicked")
)

// ErrReadOnlySelector is returned when a function selector is used to create a writable atom.
var ErrReadOnlySelector = errors.New("atom: function selector cannot be written through")
