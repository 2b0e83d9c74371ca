package atom

import "github.com/vango-dev/atomrx/pkg/lens"

// Lensed is a writable atom focused on part of a source atom.
//
// Reads behave like Derived. Writes are applied to the source through the
// lens, so the source stays the single owner of the value. Batches and
// batching state belong to the source.
type Lensed[T any] struct {
	*node[T]

	modify func(fn func(T) T)
	batch  func(fn func() error) error
	fr     batchFrame
}

// Set replaces the focused value.
func (l *Lensed[T]) Set(v T) {
	l.Modify(func(T) T { return v })
}

// Modify applies fn to the focused value of the source.
func (l *Lensed[T]) Modify(fn func(T) T) {
	l.modify(fn)
}

// Batch runs fn in a batch on the source atom.
func (l *Lensed[T]) Batch(fn func() error) error {
	return l.batch(fn)
}

// View returns the atom as a ReadOnly.
func (l *Lensed[T]) View() ReadOnly[T] {
	return l
}

// WithEquals sets the equality used to suppress unchanged results.
// Returns the atom for method chaining.
func (l *Lensed[T]) WithEquals(fn func(a, b T) bool) *Lensed[T] {
	if fn != nil {
		l.equals = fn
	}
	return l
}

func (l *Lensed[T]) frame() batchFrame {
	return l.fr
}

// Lens creates a writable atom focused on src through l.
func Lens[S, T any](src Writable[S], l lens.Lens[S, T], opts ...Option) *Lensed[T] {
	n := newNode("lens", []input{inputOf[S](src)}, func(vals []any) T {
		return l.Get(as[S](vals[0]))
	}, opts)
	return &Lensed[T]{
		node: n,
		modify: func(fn func(T) T) {
			src.Modify(func(s S) S { return l.Modify(fn, s) })
		},
		batch: src.Batch,
		fr:    src.frame(),
	}
}

// LensKey creates a writable atom focused on a field or map entry path.
// It panics if the path is invalid for S, see lens.Path.
func LensKey[S, T any](src Writable[S], names ...string) *Lensed[T] {
	return Lens(src, lens.Path[S, T](names...))
}

// LensIndex creates a writable atom focused on element i of a slice.
// An out of range index reads as None and ignores writes.
func LensIndex[T any](src Writable[[]T], i int) *Lensed[lens.Option[T]] {
	return LensPrism(src, lens.Index[T](i))
}

// LensFind creates a writable atom focused on the first element matching pred.
func LensFind[T any](src Writable[[]T], pred func(T) bool) *Lensed[lens.Option[T]] {
	return LensPrism(src, lens.Find(pred))
}

// LensPrism creates a writable atom holding the prism's focus, if present.
// Writing None leaves the source unchanged.
func LensPrism[S, T any](src Writable[S], p lens.Prism[S, T], opts ...Option) *Lensed[lens.Option[T]] {
	return Lens(src, lens.Optional(p), opts...)
}

// FocusLens creates a writable atom from a selector. Function selectors
// cannot be written through and yield ErrReadOnlySelector.
func FocusLens[S, T any](src Writable[S], sel Selector[S, T], opts ...Option) (*Lensed[T], error) {
	l, ok := sel.Lens()
	if !ok {
		return nil, ErrReadOnlySelector
	}
	return Lens(src, l, opts...), nil
}
