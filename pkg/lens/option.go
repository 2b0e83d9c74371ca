package lens

import (
	"encoding/json"
	"fmt"
)

// Option is a value that may be absent.
// The zero Option is None.
type Option[A any] struct {
	value A
	ok    bool
}

// Some returns a present Option holding a.
func Some[A any](a A) Option[A] {
	return Option[A]{value: a, ok: true}
}

// None returns an absent Option.
func None[A any]() Option[A] {
	return Option[A]{}
}

// FromPtr returns None for nil and Some(*p) otherwise.
func FromPtr[A any](p *A) Option[A] {
	if p == nil {
		return None[A]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Option[A]) Get() (A, bool) {
	return o.value, o.ok
}

// IsSome reports whether the value is present.
func (o Option[A]) IsSome() bool {
	return o.ok
}

// IsNone reports whether the value is absent.
func (o Option[A]) IsNone() bool {
	return !o.ok
}

// OrElse returns the value if present, d otherwise.
func (o Option[A]) OrElse(d A) A {
	if o.ok {
		return o.value
	}
	return d
}

// String implements fmt.Stringer.
func (o Option[A]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// MarshalJSON encodes None as null and Some(a) as a.
func (o Option[A]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as None and anything else as Some.
func (o *Option[A]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[A]()
		return nil
	}
	var v A
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MapOption applies fn to the value of o if present.
func MapOption[A, B any](o Option[A], fn func(A) B) Option[B] {
	if v, ok := o.Get(); ok {
		return Some(fn(v))
	}
	return None[B]()
}
