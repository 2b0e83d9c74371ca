package atom

// Combine2 creates a read-only atom from two sources.
//
// On any source change the projection reads every source's committed
// value, so a synchronous cascade that touches several sources yields
// the consistent result once; later emissions of the same cascade
// produce an equal result and are suppressed.
func Combine2[A, B, R any](a ReadOnly[A], b ReadOnly[B], fn func(A, B) R, opts ...Option) *Derived[R] {
	n := newNode("combine", []input{inputOf[A](a), inputOf[B](b)}, func(vals []any) R {
		return fn(as[A](vals[0]), as[B](vals[1]))
	}, opts)
	return &Derived[R]{n}
}

// Combine3 creates a read-only atom from three sources. See Combine2.
func Combine3[A, B, C, R any](a ReadOnly[A], b ReadOnly[B], c ReadOnly[C], fn func(A, B, C) R, opts ...Option) *Derived[R] {
	n := newNode("combine", []input{inputOf[A](a), inputOf[B](b), inputOf[C](c)}, func(vals []any) R {
		return fn(as[A](vals[0]), as[B](vals[1]), as[C](vals[2]))
	}, opts)
	return &Derived[R]{n}
}

// CombineAll creates a read-only atom from any number of sources of one type.
// See Combine2.
func CombineAll[T, R any](srcs []ReadOnly[T], fn func([]T) R, opts ...Option) *Derived[R] {
	inputs := make([]input, len(srcs))
	for i, src := range srcs {
		inputs[i] = inputOf[T](src)
	}
	n := newNode("combine", inputs, func(vals []any) R {
		ts := make([]T, len(vals))
		for i, v := range vals {
			ts[i] = as[T](v)
		}
		return fn(ts)
	}, opts)
	return &Derived[R]{n}
}
