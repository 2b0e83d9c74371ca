package atom

import "github.com/vango-dev/atomrx/pkg/lens"

// Derived is a read-only atom computed from one or more source atoms.
//
// The value is seeded when the atom is created. While at least one
// subscriber is attached the atom holds a single shared connection to its
// sources and recomputes once per source change, notifying subscribers
// only when the result differs. Without subscribers Get recomputes on
// every call.
type Derived[T any] struct {
	*node[T]
}

// View returns the atom as a ReadOnly.
func (d *Derived[T]) View() ReadOnly[T] {
	return d
}

// WithEquals sets the equality used to suppress unchanged results.
// Returns the atom for method chaining.
func (d *Derived[T]) WithEquals(fn func(a, b T) bool) *Derived[T] {
	if fn != nil {
		d.equals = fn
	}
	return d
}

// View creates a read-only atom mapping src through fn.
// fn must be pure; it runs once per source change regardless of the
// number of subscribers.
func View[S, T any](src ReadOnly[S], fn func(S) T, opts ...Option) *Derived[T] {
	n := newNode("view", []input{inputOf[S](src)}, func(vals []any) T {
		return fn(as[S](vals[0]))
	}, opts)
	return &Derived[T]{n}
}

// ViewLens creates a read-only atom focused through l.
func ViewLens[S, T any](src ReadOnly[S], l lens.Lens[S, T], opts ...Option) *Derived[T] {
	return View(src, l.Get, opts...)
}

// ViewKey creates a read-only atom focused on a field or map entry path.
// It panics if the path is invalid for S, see lens.Path.
func ViewKey[S, T any](src ReadOnly[S], names ...string) *Derived[T] {
	return ViewLens(src, lens.Path[S, T](names...))
}

// ViewPrism creates a read-only atom holding the prism's focus, if present.
func ViewPrism[S, T any](src ReadOnly[S], p lens.Prism[S, T], opts ...Option) *Derived[lens.Option[T]] {
	return View(src, p.Get, opts...)
}

// Focus creates a read-only atom from a selector.
func Focus[S, T any](src ReadOnly[S], sel Selector[S, T], opts ...Option) *Derived[T] {
	return View(src, sel.getter(), opts...)
}
