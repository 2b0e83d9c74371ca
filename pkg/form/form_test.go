package form

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/atomrx/pkg/atom"
	"github.com/vango-dev/atomrx/pkg/lens"
)

type signUp struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=100"`
	LastName  string `json:"lastName" validate:"required"`
}

type order struct {
	Items []item `json:"items" validate:"dive"`
}

type item struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"gte=1"`
}

func TestStoreSyncValidation(t *testing.T) {
	value := atom.New(signUp{})
	store := New(context.Background(), value, Validator[signUp](NewValidator()))
	defer store.Close()

	res := store.Result().Get()
	if res.Status != StatusError {
		t.Fatalf("status = %v, want error", res.Status)
	}
	if _, ok := res.Children["firstName"]; !ok {
		t.Errorf("children = %v, want firstName", res.Children)
	}

	first := Bind[signUp, string](store, "firstName")
	if got := first.Result().Get(); got.Status != StatusError || got.Type != "required" {
		t.Errorf("firstName result = %+v", got)
	}

	first.Value().Set("Ada")
	if got := first.Result().Get(); got.Status != StatusSuccess {
		t.Errorf("firstName after set = %+v", got)
	}
	if value.Get().FirstName != "Ada" {
		t.Errorf("value = %+v", value.Get())
	}

	Bind[signUp, string](store, "LastName").Value().Set("Lovelace")
	if !store.CanSubmit().Get() {
		t.Errorf("CanSubmit = false, result %+v", store.Result().Get())
	}
}

func TestBindCache(t *testing.T) {
	store := New(context.Background(), atom.New(signUp{}), Validator[signUp](NewValidator()))
	defer store.Close()

	a := Bind[signUp, string](store, "firstName")
	b := Bind[signUp, string](store, "firstName")
	if a != b {
		t.Error("Bind returned a new store for the same field")
	}
	if Bind[signUp, string](store, "lastName") == a {
		t.Error("Bind returned the same store for different fields")
	}
	if store.CanSubmit() != store.CanSubmit() {
		t.Error("CanSubmit not cached")
	}
}

func TestBindIndex(t *testing.T) {
	value := atom.New(order{Items: []item{{Name: "a", Qty: 1}, {Name: "", Qty: 0}}})
	store := New(context.Background(), value, Validator[order](NewValidator()))
	defer store.Close()

	items := Bind[order, []item](store, "items")
	second := BindIndex(items, 1)
	if BindIndex(items, 1) != second {
		t.Error("BindIndex not cached")
	}

	res := second.Result().Get()
	if res.Status != StatusError {
		t.Fatalf("second item result = %+v", res)
	}
	if res.Child("name").Type != "required" || res.Child("qty").Type != "gte" {
		t.Errorf("children = %+v", res.Children)
	}
	if BindIndex(items, 0).Result().Get().Status != StatusSuccess {
		t.Error("first item should be valid")
	}

	second.Value().Set(lens.Some(item{Name: "b", Qty: 2}))
	if !store.Result().Get().Valid() {
		t.Errorf("result after fix = %+v", store.Result().Get())
	}

	missing := BindIndex(items, 5)
	missing.Value().Set(lens.Some(item{Name: "x", Qty: 1}))
	if len(value.Get().Items) != 2 {
		t.Errorf("out of range write grew the slice: %+v", value.Get().Items)
	}
}

func TestAsyncValidationStatuses(t *testing.T) {
	value := atom.New(signUp{})
	release := make(chan struct{}, 4)
	v := NewValidator()
	validate := Async(func(ctx context.Context, s signUp) Result {
		select {
		case <-release:
		case <-ctx.Done():
			return Validating()
		}
		return fromError(v.Struct(s))
	})

	var mu sync.Mutex
	var statuses []Status
	settled := make(chan Result, 8)
	store := New(context.Background(), value, validate)
	defer store.Close()
	store.Result().Subscribe(func(r Result) {
		mu.Lock()
		statuses = append(statuses, r.Status)
		mu.Unlock()
		if r.Status != StatusValidating {
			settled <- r
		}
	})

	release <- struct{}{}
	if r := waitResult(t, settled); r.Status != StatusError {
		t.Fatalf("first result = %v, want error", r.Status)
	}

	// The error is held while the next validation runs.
	value.Set(signUp{FirstName: "Ada", LastName: "Lovelace"})
	if got := store.Result().Get().Status; got != StatusError {
		t.Errorf("status while revalidating = %v, want error", got)
	}
	release <- struct{}{}
	if r := waitResult(t, settled); r.Status != StatusSuccess {
		t.Fatalf("second result = %v, want success", r.Status)
	}

	// A success turns into validating while the next run is pending.
	value.Set(signUp{FirstName: "Al", LastName: "Lovelace"})
	if got := store.Result().Get().Status; got != StatusValidating {
		t.Errorf("status while validating = %v, want validating", got)
	}
	release <- struct{}{}
	waitResult(t, settled)

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusValidating, StatusError, StatusSuccess, StatusValidating, StatusSuccess}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for validation result")
	}
	return Result{}
}

func TestAsyncValidationSupersededRun(t *testing.T) {
	value := atom.New(0)
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	validate := Async(func(ctx context.Context, n int) Result {
		if g, ok := gates[n]; ok {
			<-g
		}
		if n == 1 {
			return Failure("stale")
		}
		return Success()
	})
	store := New(context.Background(), value, validate)
	defer store.Close()

	value.Set(1)
	value.Set(2)
	close(gates[2])

	deadline := time.Now().Add(time.Second)
	for !store.Result().Get().Valid() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(gates[1])
	time.Sleep(20 * time.Millisecond)

	if got := store.Result().Get(); !got.Valid() {
		t.Errorf("result = %+v, want success", got)
	}
}

func TestSubmit(t *testing.T) {
	value := atom.New(signUp{})
	store := New(context.Background(), value, Validator[signUp](NewValidator()))
	defer store.Close()

	called := false
	if err := store.Submit(func(signUp) error { called = true; return nil }); !errors.Is(err, ErrInvalid) || called {
		t.Errorf("Submit on invalid form = %v, called %v", err, called)
	}

	value.Set(signUp{FirstName: "Ada", LastName: "Lovelace"})
	var got signUp
	if err := store.Submit(func(s signUp) error { got = s; return nil }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.FirstName != "Ada" {
		t.Errorf("submitted %+v", got)
	}
}

func TestCloseStopsValidation(t *testing.T) {
	value := atom.New(signUp{})
	store := New(context.Background(), value, Validator[signUp](NewValidator()))
	store.Close()

	value.Set(signUp{FirstName: "Ada", LastName: "Lovelace"})
	if store.Result().Get().Valid() {
		t.Error("validation ran after Close")
	}
	if value.Subscribers() != 0 {
		t.Errorf("value still has %d subscribers", value.Subscribers())
	}

	// Closing a child store is a no-op.
	Bind[signUp, string](store, "firstName").Close()
}
