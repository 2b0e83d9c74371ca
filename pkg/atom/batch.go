package atom

import (
	"context"
	"fmt"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
)

// batchFrame is the batch state of a root atom.
type batchFrame interface {
	begin()
	end(err error)
	Name() string
}

func (r *Root[T]) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth == 0 {
		r.pending = r.committed()
		r.gen++
	}
	r.depth++
}

// end closes one frame. Closing the outermost frame commits the pending
// value once, whether or not the batch failed.
func (r *Root[T]) end(err error) {
	r.mu.Lock()
	if r.depth == 0 {
		r.mu.Unlock()
		return
	}
	r.depth--
	if r.depth > 0 {
		r.mu.Unlock()
		return
	}
	v := r.pending
	var zero T
	r.pending = zero

	var (
		t  uint64
		ls []*listener[T]
	)
	changed := !r.equals(r.committed(), v)
	if changed {
		t, ls = r.cell.swap(v)
	}
	r.mu.Unlock()

	if err != nil {
		r.logger().Debug("atom batch failed, committing pending value",
			"atom", r.opts.name,
			"error", err,
		)
	}
	r.opts.observer.BatchClosed(r.opts.name, err)

	if changed {
		r.cell.publish(v, t, ls)
	}
}

// Batch runs fn with notifications deferred. Writes inside fn update a
// pending value that Get returns; when the outermost batch returns the
// pending value is committed once.
//
// Batches nest. The pending value is committed even when fn returns an
// error or panics; the error is returned and the panic is re-raised
// after the commit.
//
// Example:
//
//	err := user.Batch(func() error {
//	    user.Modify(rename)
//	    user.Modify(bumpVersion)
//	    return nil
//	})
//	// Subscribers of user are notified once.
func (r *Root[T]) Batch(fn func() error) error {
	return runBatch(r, fn)
}

func runBatch(f batchFrame, fn func() error) (err error) {
	f.begin()
	panicked := true
	defer func() {
		if panicked {
			f.end(ErrBatchPanic)
			return
		}
		f.end(err)
	}()

	err = fn()
	panicked = false
	return err
}

// BatchValue runs fn inside a batch on a and returns its result.
func BatchValue[T, R any](a Writable[T], fn func() (R, error)) (R, error) {
	var out R
	err := a.Batch(func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

// Pending is the result of an asynchronous batch.
type Pending[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Done is closed once the batch has committed.
func (p *Pending[R]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the batch has committed or ctx is done.
func (p *Pending[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// BatchAsync opens a batch on a before returning and runs fn on a new
// goroutine. The batch closes, committing the pending value, when fn
// returns. Overlapping batches on the same atom nest, so the value is
// committed once the last one settles.
//
// A panic in fn is recovered into an error with code E201 that
// wraps ErrBatchPanic. Subscribers notified by the commit run on fn's
// goroutine.
func BatchAsync[T, R any](ctx context.Context, a Writable[T], fn func(context.Context) (R, error)) *Pending[R] {
	f := a.frame()
	f.begin()

	p := &Pending[R]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			f.end(p.err)
		}()
		defer func() {
			if rec := recover(); rec != nil {
				var zero R
				p.value = zero
				p.err = atomerrors.New(atomerrors.CodeBatchPanic).
					WithSubject(f.Name()).
					WithDetail(fmt.Sprint(rec)).
					Wrap(ErrBatchPanic)
			}
		}()

		p.value, p.err = fn(ctx)
	}()
	return p
}
