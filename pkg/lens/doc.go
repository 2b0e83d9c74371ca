// Package lens provides composable, pure accessors for immutable data.
//
// A Lens focuses on a part of a structure that is always present: it can
// read the part and produce a new structure with the part replaced. A
// Prism focuses on a part that may be absent; its Get returns an Option.
//
//	type User struct {
//	    Name    string
//	    Address *Address
//	}
//
//	city := lens.Path[User, string]("Address", "City")
//	u2 := city.Set("Berlin", u) // u is untouched, u2.Address is a fresh copy
//
// # Identity Conservation
//
// Setters return the original container when the new value structurally
// equals the old one. Composed setters only rebuild the levels whose
// sub-value actually changed, so unrelated branches keep their identity
// and downstream equality checks stay cheap.
//
// # Absent Paths
//
// Nothing in this package panics on missing data. Reading through a nil
// pointer, nil map, missing key, out-of-range index or unmatched predicate
// yields the zero value (Lens) or None (Prism).
//
// Writing is a no-op, returning the container unchanged, when the path
// cannot be followed: a nil pointer, a nil map, a missing intermediate
// key, an out-of-range index or an unmatched predicate. A missing final
// key of a non-nil map is different: Key and Path insert the entry there,
// so that Get after Set returns what was set.
//
// Lens constructors that can check their types up front (Key and Path on
// struct types) panic at construction when the field does not exist or
// has an incompatible type. That is a programming error, not missing data.
package lens
