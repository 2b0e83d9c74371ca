package atom

import "github.com/vango-dev/atomrx/pkg/lens"

// SelectorKind identifies how a Selector focuses its source.
type SelectorKind uint8

const (
	SelectFunc SelectorKind = iota
	SelectKeyPath
	SelectLens
	SelectPrism
)

func (k SelectorKind) String() string {
	switch k {
	case SelectFunc:
		return "func"
	case SelectKeyPath:
		return "keypath"
	case SelectLens:
		return "lens"
	case SelectPrism:
		return "prism"
	default:
		return "unknown"
	}
}

// Selector describes a focus on S. Every kind except SelectFunc is backed
// by a lens and can be written through.
type Selector[S, A any] struct {
	kind SelectorKind
	fn   func(S) A
	lens lens.Lens[S, A]
	path []string
}

// Func selects through a projection function. The result is read-only.
func Func[S, A any](fn func(S) A) Selector[S, A] {
	return Selector[S, A]{kind: SelectFunc, fn: fn}
}

// KeyPath selects a field or map entry path. It panics if the path is
// invalid for S, see lens.Path.
func KeyPath[S, A any](names ...string) Selector[S, A] {
	return Selector[S, A]{
		kind: SelectKeyPath,
		lens: lens.Path[S, A](names...),
		path: names,
	}
}

// Through selects through a lens.
func Through[S, A any](l lens.Lens[S, A]) Selector[S, A] {
	return Selector[S, A]{kind: SelectLens, lens: l}
}

// ThroughPrism selects through a prism, reading def when the prism does
// not match. Writes are ignored when it does not match.
func ThroughPrism[S, A any](p lens.Prism[S, A], def A) Selector[S, A] {
	return Selector[S, A]{
		kind: SelectPrism,
		lens: lens.Compose(lens.Optional(p), lens.WithDefault(def)),
	}
}

// Kind returns the selector kind.
func (s Selector[S, A]) Kind() SelectorKind {
	return s.kind
}

// Path returns the key path of a SelectKeyPath selector.
func (s Selector[S, A]) Path() []string {
	return s.path
}

// Lens returns the backing lens, or false for function selectors.
func (s Selector[S, A]) Lens() (lens.Lens[S, A], bool) {
	if s.kind == SelectFunc {
		return lens.Lens[S, A]{}, false
	}
	return s.lens, true
}

func (s Selector[S, A]) getter() func(S) A {
	if s.kind == SelectFunc {
		return s.fn
	}
	return s.lens.Get
}
