package lens

// Index focuses on element i of a slice.
// Get is None out of bounds; Set out of bounds returns the slice unchanged
// and never grows it.
func Index[A any](i int) Prism[[]A, A] {
	return Prism[[]A, A]{
		get: func(xs []A) Option[A] {
			if i < 0 || i >= len(xs) {
				return None[A]()
			}
			return Some(xs[i])
		},
		set: func(a A, xs []A) []A {
			if i < 0 || i >= len(xs) || Equal(xs[i], a) {
				return xs
			}
			return replaceAt(xs, i, a)
		},
	}
}

// Find focuses on the first element matching pred.
// Get is None when nothing matches and Set is then a no-op. Once an
// element matches, Set replaces it in place.
func Find[A any](pred func(A) bool) Prism[[]A, A] {
	return Prism[[]A, A]{
		get: func(xs []A) Option[A] {
			if i := findIndex(xs, pred); i >= 0 {
				return Some(xs[i])
			}
			return None[A]()
		},
		set: func(a A, xs []A) []A {
			i := findIndex(xs, pred)
			if i < 0 || Equal(xs[i], a) {
				return xs
			}
			return replaceAt(xs, i, a)
		},
	}
}

// At focuses on the entry k of a map.
// Get is None when the key is missing. Set always writes the entry into a
// copy of the map, allocating one for a nil map.
func At[K comparable, V any](k K) Prism[map[K]V, V] {
	return Prism[map[K]V, V]{
		get: func(m map[K]V) Option[V] {
			if v, ok := m[k]; ok {
				return Some(v)
			}
			return None[V]()
		},
		set: func(v V, m map[K]V) map[K]V {
			if old, ok := m[k]; ok && Equal(old, v) {
				return m
			}
			out := make(map[K]V, len(m)+1)
			for key, val := range m {
				out[key] = val
			}
			out[k] = v
			return out
		},
	}
}

func findIndex[A any](xs []A, pred func(A) bool) int {
	for i := range xs {
		if pred(xs[i]) {
			return i
		}
	}
	return -1
}

func replaceAt[A any](xs []A, i int, a A) []A {
	out := make([]A, len(xs))
	copy(out, xs)
	out[i] = a
	return out
}
