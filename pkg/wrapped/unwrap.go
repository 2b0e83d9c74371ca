package wrapped

import "github.com/vango-dev/atomrx/pkg/atom"

// Unwrap returns an atom of the last fulfilled value of src. While src is
// idle, pending or rejected it keeps the previous value, or the zero
// value before the first fulfillment.
//
// The value is held in an atom of its own that Unwrap keeps subscribed
// to src, so fulfillments are recorded whether or not anything observes
// the returned atom. The subscription lives as long as src.
func Unwrap[T any](src atom.ReadOnly[Wrapped[T]], opts ...atom.Option) *atom.Derived[T] {
	var zero T
	last := atom.New(zero)
	src.Subscribe(func(w Wrapped[T]) {
		if w.Status == StatusFulfilled {
			last.Set(w.Value)
		}
	})
	return atom.View(last, func(v T) T { return v }, opts...)
}

// StatusOf returns an atom of src's status only.
func StatusOf[T any](src atom.ReadOnly[Wrapped[T]], opts ...atom.Option) *atom.Derived[Status] {
	return atom.View(src, func(w Wrapped[T]) Status { return w.Status }, opts...)
}
