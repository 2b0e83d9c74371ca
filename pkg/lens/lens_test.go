package lens

import (
	"strconv"
	"testing"
)

type point struct {
	X, Y int
}

var pointX = New(
	func(p point) int { return p.X },
	func(x int, p point) point { p.X = x; return p },
)

func TestLensRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		s    point
		a    int
	}{
		{"zero", point{}, 5},
		{"same value", point{X: 3}, 3},
		{"negative", point{X: 1, Y: 2}, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pointX.Get(pointX.Set(tt.a, tt.s)); got != tt.a {
				t.Errorf("Get(Set(%d)) = %d", tt.a, got)
			}
			if got := pointX.Set(pointX.Get(tt.s), tt.s); got != tt.s {
				t.Errorf("Set(Get(s), s) = %+v, want %+v", got, tt.s)
			}
		})
	}
}

func TestLensModify(t *testing.T) {
	got := pointX.Modify(func(x int) int { return x * 10 }, point{X: 4, Y: 1})
	if got != (point{X: 40, Y: 1}) {
		t.Errorf("Modify = %+v", got)
	}
}

func TestIdentity(t *testing.T) {
	id := Identity[string]()
	if id.Get("a") != "a" {
		t.Error("Identity.Get should return its input")
	}
	if id.Set("b", "a") != "b" {
		t.Error("Identity.Set should return the new value")
	}
}

func TestComposeConservesUnchangedLevels(t *testing.T) {
	type inner struct{ V int }
	type outer struct {
		In    *inner
		Other *inner
	}

	rebuilt := 0
	outerIn := New(
		func(o outer) *inner { return o.In },
		func(i *inner, o outer) outer { rebuilt++; o.In = i; return o },
	)
	innerV := New(
		func(i *inner) int { return i.V },
		func(v int, i *inner) *inner {
			if i.V == v {
				return i
			}
			return &inner{V: v}
		},
	)
	l := Compose(outerIn, innerV)

	o := outer{In: &inner{V: 1}, Other: &inner{V: 9}}
	if l.Get(o) != 1 {
		t.Fatalf("Get = %d, want 1", l.Get(o))
	}

	same := l.Set(1, o)
	if rebuilt != 0 {
		t.Errorf("outer level rebuilt %d times for an unchanged value", rebuilt)
	}
	if same.In != o.In {
		t.Error("unchanged Set should keep the inner pointer")
	}

	changed := l.Set(2, o)
	if rebuilt != 1 {
		t.Errorf("outer level rebuilt %d times, want 1", rebuilt)
	}
	if changed.In.V != 2 || o.In.V != 1 {
		t.Errorf("Set mutated input or lost update: got %d, input %d", changed.In.V, o.In.V)
	}
	if changed.Other != o.Other {
		t.Error("sibling branch should not be copied")
	}
}

func TestCompose3(t *testing.T) {
	toString := New(
		func(i int) string { return strconv.Itoa(i) },
		func(s string, _ int) int { n, _ := strconv.Atoi(s); return n },
	)
	l := Compose3(Identity[point](), pointX, toString)
	if got := l.Get(point{X: 12}); got != "12" {
		t.Errorf("Get = %q", got)
	}
	if got := l.Set("7", point{X: 12, Y: 3}); got != (point{X: 7, Y: 3}) {
		t.Errorf("Set = %+v", got)
	}
}

func TestPrismSetOnAbsentIsNoop(t *testing.T) {
	evenHalf := NewPrism(
		func(n int) Option[int] {
			if n%2 == 0 {
				return Some(n / 2)
			}
			return None[int]()
		},
		func(h int, _ int) int { return h * 2 },
	)

	if got := evenHalf.Set(10, 3); got != 3 {
		t.Errorf("Set on absent focus = %d, want 3", got)
	}
	if got := evenHalf.Set(10, 4); got != 20 {
		t.Errorf("Set on present focus = %d, want 20", got)
	}
	if got := evenHalf.Modify(func(h int) int { return h + 1 }, 5); got != 5 {
		t.Errorf("Modify on absent focus = %d, want 5", got)
	}
	if got := evenHalf.Modify(func(h int) int { return h + 1 }, 8); got != 10 {
		t.Errorf("Modify = %d, want 10", got)
	}
}

func TestWithDefault(t *testing.T) {
	l := WithDefault(42)

	if got := l.Get(None[int]()); got != 42 {
		t.Errorf("Get(None) = %d, want 42", got)
	}
	if got := l.Get(Some(1)); got != 1 {
		t.Errorf("Get(Some(1)) = %d, want 1", got)
	}

	materialized := l.Set(42, None[int]())
	if v, ok := materialized.Get(); !ok || v != 42 {
		t.Errorf("Set on None should materialize, got %v", materialized)
	}

	s := Some(5)
	if got := l.Set(5, s); got != s {
		t.Errorf("Set with equal value = %v, want %v", got, s)
	}
}

func TestOptional(t *testing.T) {
	type item struct {
		ID   int
		Name string
	}
	xs := []item{{1, "a"}, {2, "b"}}
	l := Optional(Find(func(i item) bool { return i.ID == 2 }))

	if v, ok := l.Get(xs).Get(); !ok || v.Name != "b" {
		t.Fatalf("Get = %v", l.Get(xs))
	}

	got := l.Set(None[item](), xs)
	if &got[0] != &xs[0] {
		t.Error("writing None should return the slice unchanged")
	}

	got = l.Set(Some(item{2, "z"}), xs)
	if got[1].Name != "z" || xs[1].Name != "b" {
		t.Errorf("Set = %v, input %v", got, xs)
	}
}

func TestComposeFindWithDefault(t *testing.T) {
	type entry struct{ Value int }
	matching := func(e entry) bool { return e.Value == 111 }
	l := Compose(Optional(Find(matching)), WithDefault(entry{Value: 111}))

	xs := []entry{{Value: 123}}
	if got := l.Get(xs); got.Value != 111 {
		t.Errorf("Get on missing = %+v, want default", got)
	}

	// No match: the write has nowhere to land.
	if got := l.Set(entry{Value: 333}, xs); len(got) != 1 || got[0].Value != 123 {
		t.Errorf("Set on missing = %+v, want unchanged", got)
	}

	xs = append(xs, entry{Value: 111})
	got := l.Set(entry{Value: 333}, xs)
	if got[1].Value != 333 {
		t.Errorf("Set on match = %+v", got)
	}
	// The predicate no longer matches, so the default shows again.
	if l.Get(got).Value != 111 {
		t.Errorf("Get after Set = %+v", l.Get(got))
	}
}

func TestComposePrism(t *testing.T) {
	type row struct{ Cells []int }
	rows := []row{{Cells: []int{1, 2}}, {Cells: []int{3}}}

	cells := New(
		func(r row) []int { return r.Cells },
		func(c []int, r row) row { r.Cells = c; return r },
	)
	p := ComposePrism(PrismThen(Index[row](1), cells), Index[int](0))

	if v, ok := p.Get(rows).Get(); !ok || v != 3 {
		t.Fatalf("Get = %v", p.Get(rows))
	}

	out := p.Set(30, rows)
	if out[1].Cells[0] != 30 || rows[1].Cells[0] != 3 {
		t.Errorf("Set = %+v, input %+v", out, rows)
	}
	if &out[0].Cells[0] != &rows[0].Cells[0] {
		t.Error("untouched row should share its cells")
	}

	missing := ComposePrism(Index[row](5), PrismThen(cells.Prism(), Identity[[]int]()))
	if missing.Get(rows).IsSome() {
		t.Error("out of range prism should be None")
	}
	if got := missing.Set([]int{9}, rows); &got[0] != &rows[0] {
		t.Error("Set through an absent prefix should return the input")
	}
}

func TestThenPrism(t *testing.T) {
	type bag struct{ Items map[string]int }
	items := New(
		func(b bag) map[string]int { return b.Items },
		func(m map[string]int, b bag) bag { b.Items = m; return b },
	)
	p := ThenPrism(items, At[string, int]("apples"))

	b := bag{Items: map[string]int{"pears": 1}}
	if p.Get(b).IsSome() {
		t.Error("missing key should be None")
	}
	b2 := p.Set(4, b)
	if b2.Items["apples"] != 4 {
		t.Errorf("Set = %v", b2.Items)
	}
	if _, ok := b.Items["apples"]; ok {
		t.Error("Set mutated the input map")
	}
}
