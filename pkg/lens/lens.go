package lens

// Lens focuses on a part A of a structure S that is always present.
//
// Lenses are immutable values and safe to share. The zero Lens is not
// usable; build lenses with New or one of the constructors in this package.
type Lens[S, A any] struct {
	get func(S) A
	set func(A, S) S
}

// New creates a lens from a getter and a setter.
// The setter must return a new S and leave its input untouched.
func New[S, A any](get func(S) A, set func(A, S) S) Lens[S, A] {
	return Lens[S, A]{get: get, set: set}
}

// Get reads the focus of s.
func (l Lens[S, A]) Get(s S) A {
	return l.get(s)
}

// Set returns s with its focus replaced by a.
func (l Lens[S, A]) Set(a A, s S) S {
	return l.set(a, s)
}

// Modify returns s with its focus replaced by fn applied to the current focus.
func (l Lens[S, A]) Modify(fn func(A) A, s S) S {
	return l.set(fn(l.get(s)), s)
}

// Prism views the lens as a prism whose focus is always present.
func (l Lens[S, A]) Prism() Prism[S, A] {
	return Prism[S, A]{
		get: func(s S) Option[A] { return Some(l.get(s)) },
		set: l.set,
	}
}

// Prism focuses on a part A of S that may be absent.
// Setting through a prism whose focus is absent returns S unchanged.
type Prism[S, A any] struct {
	get func(S) Option[A]
	set func(A, S) S
}

// NewPrism creates a prism from an optional getter and a setter.
// The setter is only called when the getter reports a present focus.
func NewPrism[S, A any](get func(S) Option[A], set func(A, S) S) Prism[S, A] {
	return Prism[S, A]{
		get: get,
		set: func(a A, s S) S {
			if get(s).IsNone() {
				return s
			}
			return set(a, s)
		},
	}
}

// Get reads the focus of s if present.
func (p Prism[S, A]) Get(s S) Option[A] {
	return p.get(s)
}

// Set returns s with its focus replaced by a, or s if the focus is absent.
func (p Prism[S, A]) Set(a A, s S) S {
	return p.set(a, s)
}

// Modify applies fn to the focus if present.
func (p Prism[S, A]) Modify(fn func(A) A, s S) S {
	v, ok := p.get(s).Get()
	if !ok {
		return s
	}
	return p.set(fn(v), s)
}

// Identity focuses on the whole structure.
func Identity[S any]() Lens[S, S] {
	return Lens[S, S]{
		get: func(s S) S { return s },
		set: func(a S, _ S) S { return a },
	}
}

// WithDefault reads an Option, substituting d when it is absent.
// Writing always materializes the value as Some.
func WithDefault[A any](d A) Lens[Option[A], A] {
	return Lens[Option[A], A]{
		get: func(o Option[A]) A { return o.OrElse(d) },
		set: func(a A, o Option[A]) Option[A] {
			if v, ok := o.Get(); ok && Equal(v, a) {
				return o
			}
			return Some(a)
		},
	}
}

// Optional turns a prism into a lens over Option.
// Writing None, or writing while the focus is absent, leaves S unchanged.
func Optional[S, A any](p Prism[S, A]) Lens[S, Option[A]] {
	return Lens[S, Option[A]]{
		get: p.get,
		set: func(o Option[A], s S) S {
			v, ok := o.Get()
			if !ok {
				return s
			}
			return p.set(v, s)
		},
	}
}

// Compose focuses l2 inside the focus of l1.
// Set only rebuilds the outer level when the inner value changed.
func Compose[A, B, C any](l1 Lens[A, B], l2 Lens[B, C]) Lens[A, C] {
	return Lens[A, C]{
		get: func(a A) C { return l2.get(l1.get(a)) },
		set: func(c C, a A) A {
			b := l1.get(a)
			nb := l2.set(c, b)
			if Equal(b, nb) {
				return a
			}
			return l1.set(nb, a)
		},
	}
}

// Compose3 composes three lenses left to right.
func Compose3[A, B, C, D any](l1 Lens[A, B], l2 Lens[B, C], l3 Lens[C, D]) Lens[A, D] {
	return Compose(Compose(l1, l2), l3)
}

// ComposePrism focuses p2 inside the focus of p1.
func ComposePrism[A, B, C any](p1 Prism[A, B], p2 Prism[B, C]) Prism[A, C] {
	return Prism[A, C]{
		get: func(a A) Option[C] {
			b, ok := p1.get(a).Get()
			if !ok {
				return None[C]()
			}
			return p2.get(b)
		},
		set: func(c C, a A) A {
			b, ok := p1.get(a).Get()
			if !ok {
				return a
			}
			nb := p2.set(c, b)
			if Equal(b, nb) {
				return a
			}
			return p1.set(nb, a)
		},
	}
}

// ThenPrism focuses a prism inside the focus of a lens.
func ThenPrism[A, B, C any](l Lens[A, B], p Prism[B, C]) Prism[A, C] {
	return ComposePrism(l.Prism(), p)
}

// PrismThen focuses a lens inside the focus of a prism.
func PrismThen[A, B, C any](p Prism[A, B], l Lens[B, C]) Prism[A, C] {
	return ComposePrism(p, l.Prism())
}
