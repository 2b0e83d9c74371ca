package lens

import (
	"reflect"
	"strings"
	"sync"

	"github.com/vango-dev/atomrx/internal/errors"
)

// Key focuses on a named part of S.
//
// S may be a struct (field matched by Go name, then by JSON tag), a
// pointer to a struct, a map with string keys, or an interface holding
// one of those. Setting copies the container; the input is never mutated.
//
// Key panics with an *errors.AtomError when S is statically known to have
// no such field, or when the field type is not assignable to A.
func Key[S, A any](name string) Lens[S, A] {
	return Path[S, A](name)
}

// Path focuses on a nested part of S reached by following names in order.
// Only the containers along the path are copied on Set.
func Path[S, A any](names ...string) Lens[S, A] {
	if len(names) == 0 {
		panic(errors.Newf(errors.CategoryLens, "lens.Path needs at least one key"))
	}
	path := append([]string(nil), names...)
	checkPath(typeOf[S](), typeOf[A](), path)

	return Lens[S, A]{
		get: func(s S) A {
			v, ok := getPath(reflect.ValueOf(&s).Elem(), path)
			if !ok {
				var zero A
				return zero
			}
			return valueAs[A](v)
		},
		set: func(a A, s S) S {
			nv, changed := setPath(reflect.ValueOf(&s).Elem(), path, reflect.ValueOf(&a).Elem(), true)
			if !changed {
				return s
			}
			var out S
			reflect.ValueOf(&out).Elem().Set(nv)
			return out
		},
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// checkPath validates names against the static type s as far as the
// types are known without a value.
func checkPath(s, a reflect.Type, names []string) {
	t := s
	for i, name := range names {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		subject := strings.Join(names[:i+1], ".")
		switch t.Kind() {
		case reflect.Struct:
			idx := fieldIndex(t, name)
			if idx < 0 {
				panic(errors.New(errors.CodeUnknownField).
					WithSubject(t.String() + "." + name).
					WithSuggestion("use the exported Go field name or its json tag"))
			}
			t = t.Field(idx).Type
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				panic(errors.New(errors.CodeNotAContainer).WithSubject(t.String() + " at " + subject))
			}
			t = t.Elem()
		case reflect.Interface:
			return
		default:
			panic(errors.New(errors.CodeNotAContainer).WithSubject(t.String() + " at " + subject))
		}
	}
	if t.Kind() != reflect.Interface && !t.AssignableTo(a) {
		panic(errors.New(errors.CodeFieldType).
			WithSubject(strings.Join(names, ".")).
			WithDetail("field has type " + t.String() + ", lens focus is " + a.String()))
	}
}

type fieldKey struct {
	t    reflect.Type
	name string
}

// fieldCache maps fieldKey to the field index, or -1 when missing.
var fieldCache sync.Map

func fieldIndex(t reflect.Type, name string) int {
	k := fieldKey{t: t, name: name}
	if v, ok := fieldCache.Load(k); ok {
		return v.(int)
	}

	idx := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if tag == name {
				idx = i
				break
			}
		}
	}

	fieldCache.Store(k, idx)
	return idx
}

func getKey(c reflect.Value, name string) (reflect.Value, bool) {
	for {
		switch c.Kind() {
		case reflect.Interface, reflect.Pointer:
			if c.IsNil() {
				return reflect.Value{}, false
			}
			c = c.Elem()
		case reflect.Struct:
			i := fieldIndex(c.Type(), name)
			if i < 0 {
				return reflect.Value{}, false
			}
			return c.Field(i), true
		case reflect.Map:
			if c.IsNil() || c.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, false
			}
			v := c.MapIndex(reflect.ValueOf(name).Convert(c.Type().Key()))
			if !v.IsValid() {
				return reflect.Value{}, false
			}
			return v, true
		default:
			return reflect.Value{}, false
		}
	}
}

func getPath(c reflect.Value, names []string) (reflect.Value, bool) {
	for _, name := range names {
		v, ok := getKey(c, name)
		if !ok {
			return reflect.Value{}, false
		}
		c = v
	}
	return c, true
}

// setKey returns a copy of c with name set to v. The bool is false when
// nothing changed: the path is absent, v has the wrong type, or (when
// check is set) v equals the current value.
func setKey(c reflect.Value, name string, v reflect.Value, check bool) (reflect.Value, bool) {
	switch c.Kind() {
	case reflect.Interface:
		if c.IsNil() {
			return c, false
		}
		inner, ok := setKey(c.Elem(), name, v, check)
		if !ok {
			return c, false
		}
		out := reflect.New(c.Type()).Elem()
		out.Set(inner)
		return out, true

	case reflect.Pointer:
		if c.IsNil() {
			return c, false
		}
		inner, ok := setKey(c.Elem(), name, v, check)
		if !ok {
			return c, false
		}
		out := reflect.New(c.Type().Elem())
		out.Elem().Set(inner)
		return out, true

	case reflect.Struct:
		i := fieldIndex(c.Type(), name)
		if i < 0 {
			return c, false
		}
		f := c.Field(i)
		nv, ok := assign(v, f.Type())
		if !ok {
			return c, false
		}
		if check && Equal(f.Interface(), nv.Interface()) {
			return c, false
		}
		out := reflect.New(c.Type()).Elem()
		out.Set(c)
		out.Field(i).Set(nv)
		return out, true

	case reflect.Map:
		if c.IsNil() || c.Type().Key().Kind() != reflect.String {
			return c, false
		}
		key := reflect.ValueOf(name).Convert(c.Type().Key())
		nv, ok := assign(v, c.Type().Elem())
		if !ok {
			return c, false
		}
		if old := c.MapIndex(key); check && old.IsValid() && Equal(old.Interface(), nv.Interface()) {
			return c, false
		}
		out := reflect.MakeMapWithSize(c.Type(), c.Len()+1)
		iter := c.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		out.SetMapIndex(key, nv)
		return out, true
	}
	return c, false
}

func setPath(c reflect.Value, names []string, v reflect.Value, check bool) (reflect.Value, bool) {
	if len(names) == 1 {
		return setKey(c, names[0], v, check)
	}
	child, ok := getKey(c, names[0])
	if !ok {
		return c, false
	}
	nc, changed := setPath(child, names[1:], v, check)
	if !changed {
		return c, false
	}
	// The child already differs; skip the second equality walk.
	return setKey(c, names[0], nc, false)
}

// assign converts v for storage in a slot of type t.
func assign(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	if v.Kind() == reflect.Interface && v.Type() != t {
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		v = v.Elem()
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	return v, true
}

func valueAs[A any](v reflect.Value) A {
	var out A
	dst := reflect.ValueOf(&out).Elem()
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return out
		}
		if !v.Type().AssignableTo(dst.Type()) {
			v = v.Elem()
		}
	}
	if v.Type().AssignableTo(dst.Type()) {
		dst.Set(v)
	}
	return out
}
