package lens

import "reflect"

// Equal reports whether a and b are structurally equal.
// Uses == for common scalar types and reflect.DeepEqual for everything else.
func Equal[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return scalarEq(av, b)
	case int8:
		return scalarEq(av, b)
	case int16:
		return scalarEq(av, b)
	case int32:
		return scalarEq(av, b)
	case int64:
		return scalarEq(av, b)
	case uint:
		return scalarEq(av, b)
	case uint8:
		return scalarEq(av, b)
	case uint16:
		return scalarEq(av, b)
	case uint32:
		return scalarEq(av, b)
	case uint64:
		return scalarEq(av, b)
	case float32:
		return scalarEq(av, b)
	case float64:
		return scalarEq(av, b)
	case string:
		return scalarEq(av, b)
	case bool:
		return scalarEq(av, b)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// scalarEq compares a to b when T is an interface type that may hold a
// different dynamic type in b.
func scalarEq[C comparable](a C, b any) bool {
	bv, ok := b.(C)
	return ok && a == bv
}
