package form

import "context"

// Validate validates values of type T.
type Validate[T any] struct {
	fn    func(context.Context, T) Result
	async bool
}

// Sync wraps a validation function that returns immediately.
func Sync[T any](fn func(T) Result) Validate[T] {
	return Validate[T]{fn: func(_ context.Context, v T) Result { return fn(v) }}
}

// Async wraps a validation function that may block. It runs on its own
// goroutine; the context is canceled when the value changes again or the
// store is closed.
func Async[T any](fn func(context.Context, T) Result) Validate[T] {
	return Validate[T]{fn: fn, async: true}
}

// All combines synchronous validators; the first error wins.
func All[T any](validators ...func(T) Result) Validate[T] {
	return Sync(func(v T) Result {
		for _, fn := range validators {
			if r := fn(v); r.Status == StatusError {
				return r
			}
		}
		return Success()
	})
}
