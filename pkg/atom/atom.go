package atom

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/atomrx/pkg/lens"
)

// Unsubscribe detaches a subscriber. Calling it more than once is a no-op.
type Unsubscribe func()

// ReadOnly is an atom that can be read and observed but not written.
type ReadOnly[T any] interface {
	// Get returns the current value. It never blocks on propagation.
	Get() T

	// Subscribe registers fn and immediately replays the current value to it.
	// fn runs synchronously on the goroutine that committed the change.
	Subscribe(fn func(T)) Unsubscribe

	// IsBatching reports whether a batch is open on the underlying root atom.
	IsBatching() bool

	// View returns a read-only narrowing of the atom.
	View() ReadOnly[T]

	// committed returns the last committed value, ignoring open batches.
	committed() T

	// version increases whenever a root atom this atom depends on commits.
	version() uint64
}

// Writable is an atom that can also be written.
type Writable[T any] interface {
	ReadOnly[T]

	// Set replaces the value. Equal values do not notify.
	Set(v T)

	// Modify replaces the value with fn applied to the current one.
	// fn must be pure.
	Modify(fn func(T) T)

	// Batch defers notifications until fn returns. See Root.Batch.
	Batch(fn func() error) error

	// frame returns the batch frame of the underlying root atom.
	frame() batchFrame
}

// Root is an atom that owns its value.
type Root[T any] struct {
	cell   *cell[T]
	equals func(a, b T) bool
	opts   options

	mu      sync.Mutex
	depth   uint32
	pending T
	// gen changes whenever pending is replaced.
	gen uint64
}

// New creates a root atom holding initial.
func New[T any](initial T, opts ...Option) *Root[T] {
	o := applyOptions("atom", opts)
	return &Root[T]{
		cell:   newCell(initial, o.name, o.observer),
		equals: lens.Equal[T],
		opts:   o,
	}
}

// WithEquals sets a custom equality function for change detection.
// Returns the atom for method chaining.
func (r *Root[T]) WithEquals(fn func(a, b T) bool) *Root[T] {
	if fn != nil {
		r.equals = fn
	}
	return r
}

// Name returns the atom name used in logs and metrics.
func (r *Root[T]) Name() string {
	return r.opts.name
}

// Get returns the pending value while a batch is open, the committed value otherwise.
func (r *Root[T]) Get() T {
	r.mu.Lock()
	if r.depth > 0 {
		v := r.pending
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()
	return r.committed()
}

func (r *Root[T]) committed() T {
	v, _ := r.cell.load()
	return v
}

func (r *Root[T]) version() uint64 {
	_, t := r.cell.load()
	return t
}

// Set replaces the value.
func (r *Root[T]) Set(v T) {
	r.Modify(func(T) T { return v })
}

// Modify applies fn to the current value. When the result differs from
// the current value it is committed, or stored as pending while a batch
// is open.
//
// If another goroutine replaces the value while fn runs, fn is applied
// again to the newer value.
func (r *Root[T]) Modify(fn func(T) T) {
	for {
		prev, stamp, batching := r.snapshot()
		next := fn(prev)
		if r.equals(prev, next) {
			return
		}
		if r.commit(next, stamp, batching) {
			return
		}
	}
}

// snapshot returns the value Modify works on and a stamp identifying it.
func (r *Root[T]) snapshot() (v T, stamp uint64, batching bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth > 0 {
		return r.pending, r.gen, true
	}
	v, stamp = r.cell.load()
	return v, stamp, false
}

// commit stores v if the value identified by stamp is still current.
func (r *Root[T]) commit(v T, stamp uint64, batching bool) bool {
	r.mu.Lock()
	if r.depth > 0 {
		defer r.mu.Unlock()
		if !batching || r.gen != stamp {
			return false
		}
		r.pending = v
		r.gen++
		return true
	}
	if batching {
		r.mu.Unlock()
		return false
	}
	t, ls, ok := r.cell.commitIf(stamp, v)
	r.mu.Unlock()

	if ok {
		r.cell.publish(v, t, ls)
	}
	return ok
}

// Subscribe registers fn and replays the current committed value to it.
func (r *Root[T]) Subscribe(fn func(T)) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	return r.cell.subscribe(fn)
}

// IsBatching reports whether a batch is open.
func (r *Root[T]) IsBatching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth > 0
}

// View returns the atom as a ReadOnly.
func (r *Root[T]) View() ReadOnly[T] {
	return r
}

// Subscribers returns the number of direct subscribers.
func (r *Root[T]) Subscribers() int {
	return r.cell.size()
}

func (r *Root[T]) frame() batchFrame {
	return r
}

func (r *Root[T]) logger() *slog.Logger {
	return r.opts.logger
}
