package wrapped

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/atomrx/pkg/atom"
)

// Resource runs an asynchronous function and publishes its status as an atom.
type Resource[T any] struct {
	fetcher func(context.Context) (T, error)
	state   *atom.Root[Wrapped[T]]
	parent  context.Context

	// Options
	retryCount int
	retryDelay time.Duration
	onSuccess  func(T)
	onError    func(error)

	// Internal
	runID  uint64 // Results of superseded runs are discarded
	cancel context.CancelFunc
	mu     sync.Mutex
}

// Wrap creates a Resource for fetcher and starts the first run.
// Runs use a context derived from ctx; Close cancels it.
func Wrap[T any](ctx context.Context, fetcher func(context.Context) (T, error), opts ...atom.Option) *Resource[T] {
	r := newResource(ctx, fetcher, opts)
	r.Reload()
	return r
}

// Lazy creates a Resource that stays idle until Reload is called.
func Lazy[T any](ctx context.Context, fetcher func(context.Context) (T, error), opts ...atom.Option) *Resource[T] {
	return newResource(ctx, fetcher, opts)
}

func newResource[T any](ctx context.Context, fetcher func(context.Context) (T, error), opts []atom.Option) *Resource[T] {
	return &Resource[T]{
		fetcher: fetcher,
		state:   atom.New(Idle[T](), opts...),
		parent:  ctx,
	}
}

// Atom returns the status atom.
func (r *Resource[T]) Atom() atom.ReadOnly[Wrapped[T]] {
	return r.state
}

// Get returns the current status.
func (r *Resource[T]) Get() Wrapped[T] {
	return r.state.Get()
}

// Subscribe registers fn for status changes. The current status is replayed.
func (r *Resource[T]) Subscribe(fn func(Wrapped[T])) atom.Unsubscribe {
	return r.state.Subscribe(fn)
}

// Reload cancels the running fetch, if any, and starts a new one.
// The status goes to pending and then fulfilled or rejected. Subscribers
// see the settled status on the fetch goroutine.
func (r *Resource[T]) Reload() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.runID++
	currentID := r.runID
	ctx, cancel := context.WithCancel(r.parent)
	r.cancel = cancel
	r.mu.Unlock()

	r.settle(currentID, Pending[T]())

	go func() {
		defer cancel()

		var result T
		var err error

		retries, delay := r.retryPolicy()
		maxAttempts := 1 + retries
		for i := 0; i < maxAttempts; i++ {
			if i > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
			if !r.current(currentID) || ctx.Err() != nil {
				return
			}

			result, err = r.fetcher(ctx)
			if err == nil {
				break
			}
		}

		r.mu.Lock()
		onSuccess, onError := r.onSuccess, r.onError
		r.mu.Unlock()

		if err != nil {
			if r.settle(currentID, Rejected[T](err)) && onError != nil {
				onError(err)
			}
			return
		}
		if r.settle(currentID, Fulfilled(result)) && onSuccess != nil {
			onSuccess(result)
		}
	}()
}

// Mutate optimistically replaces the value with fn applied to it and
// marks the resource fulfilled.
func (r *Resource[T]) Mutate(fn func(T) T) {
	r.state.Modify(func(w Wrapped[T]) Wrapped[T] {
		return Fulfilled(fn(w.Value))
	})
}

// Close cancels the running fetch. Its result is discarded.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.runID++
}

// settle publishes w for run id. It reports false, leaving the status
// alone, once a later Reload or Close superseded the run. The run check
// happens inside the atom update, which is retried if another write
// lands first, so a superseded run never overwrites a newer status.
func (r *Resource[T]) settle(id uint64, w Wrapped[T]) bool {
	applied := false
	r.state.Modify(func(cur Wrapped[T]) Wrapped[T] {
		applied = r.current(id)
		if !applied {
			return cur
		}
		return w
	})
	return applied
}

func (r *Resource[T]) current(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID == id
}

func (r *Resource[T]) retryPolicy() (int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryCount, r.retryDelay
}

// RetryOnError sets the number of retries and delay between them.
func (r *Resource[T]) RetryOnError(count int, delay time.Duration) *Resource[T] {
	r.mu.Lock()
	r.retryCount = count
	r.retryDelay = delay
	r.mu.Unlock()
	return r
}

// OnSuccess registers a callback to be called when a run succeeds.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}

// OnError registers a callback to be called when a run fails.
func (r *Resource[T]) OnError(fn func(error)) *Resource[T] {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
	return r
}
