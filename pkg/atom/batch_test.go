package atom

import (
	"context"
	"errors"
	"testing"
	"time"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
)

func TestBatchCoalesces(t *testing.T) {
	a := New(point{})
	rec := &recorder[point]{}
	a.Subscribe(rec.add)
	rec.values = nil

	err := a.Batch(func() error {
		a.Set(point{X: 1})
		a.Set(point{X: 2, Y: 2})
		LensKey[point, int](a, "x").Set(3)
		return nil
	})
	if err != nil {
		t.Fatalf("Batch returned %v", err)
	}

	if len(rec.values) != 1 {
		t.Fatalf("expected 1 notification, got %d: %v", len(rec.values), rec.values)
	}
	if rec.values[0] != (point{X: 3, Y: 2}) {
		t.Errorf("got %+v, want {X:3 Y:2}", rec.values[0])
	}
}

func TestBatchGetReturnsPending(t *testing.T) {
	a := New(1)
	_ = a.Batch(func() error {
		a.Set(2)
		if a.Get() != 2 {
			t.Errorf("Get in batch = %d, want 2", a.Get())
		}
		if a.committed() != 1 {
			t.Errorf("committed in batch = %d, want 1", a.committed())
		}
		if !a.IsBatching() {
			t.Error("IsBatching = false inside batch")
		}
		return nil
	})
	if a.IsBatching() {
		t.Error("IsBatching = true after batch")
	}
}

func TestBatchNested(t *testing.T) {
	a := New(0)
	calls := 0
	a.Subscribe(func(int) { calls++ })
	calls = 0

	_ = a.Batch(func() error {
		a.Set(1)
		_ = a.Batch(func() error {
			a.Set(2)
			return nil
		})
		if calls != 0 {
			t.Errorf("inner batch notified, calls = %d", calls)
		}
		a.Set(3)
		return nil
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if a.Get() != 3 {
		t.Errorf("value = %d, want 3", a.Get())
	}
}

func TestBatchErrorStillCommits(t *testing.T) {
	a := New(0)
	rec := &recorder[int]{}
	a.Subscribe(rec.add)
	rec.values = nil

	boom := errors.New("boom")
	err := a.Batch(func() error {
		a.Modify(func(n int) int { return n + 5 })
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(rec.values) != 1 || rec.values[0] != 5 {
		t.Errorf("notifications = %v, want [5]", rec.values)
	}
	if a.IsBatching() {
		t.Error("batching state leaked")
	}
}

func TestBatchPanicCommitsAndRepanics(t *testing.T) {
	a := New(0)
	calls := 0
	a.Subscribe(func(int) { calls++ })
	calls = 0

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = a.Batch(func() error {
			a.Set(7)
			panic("boom")
		})
	}()

	if calls != 1 || a.Get() != 7 {
		t.Errorf("calls = %d value = %d, want 1 and 7", calls, a.Get())
	}
	if a.IsBatching() {
		t.Error("batching state leaked")
	}
}

func TestBatchUnchangedDoesNotNotify(t *testing.T) {
	a := New(1)
	calls := 0
	a.Subscribe(func(int) { calls++ })
	calls = 0

	_ = a.Batch(func() error {
		a.Set(2)
		a.Set(1)
		return nil
	})
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestBatchObserver(t *testing.T) {
	obs := &countingObserver{}
	a := New(0, WithObserver(obs))
	boom := errors.New("boom")

	_ = a.Batch(func() error {
		_ = a.Batch(func() error { return nil })
		return boom
	})

	if len(obs.batches) != 1 || !errors.Is(obs.batches[0], boom) {
		t.Errorf("batches = %v, want [boom]", obs.batches)
	}
}

func TestBatchValue(t *testing.T) {
	a := New(0)
	n, err := BatchValue(a, func() (string, error) {
		a.Set(4)
		return "done", nil
	})
	if err != nil || n != "done" {
		t.Errorf("BatchValue = %q, %v", n, err)
	}
	if a.Get() != 4 {
		t.Errorf("value = %d, want 4", a.Get())
	}
}

func TestBatchThroughLensedAtom(t *testing.T) {
	a := New(point{})
	x := LensKey[point, int](a, "X")

	_ = x.Batch(func() error {
		x.Set(1)
		if !a.IsBatching() || !x.IsBatching() {
			t.Error("expected source and lensed atom to report batching")
		}
		if x.Get() != 1 {
			t.Errorf("x in batch = %d, want 1", x.Get())
		}
		return nil
	})
	if a.Get().X != 1 {
		t.Errorf("source = %+v", a.Get())
	}
}

func TestBatchAsync(t *testing.T) {
	a := New(0)
	rec := &recorder[int]{}
	a.Subscribe(rec.add)
	rec.values = nil

	release := make(chan struct{})
	p := BatchAsync(context.Background(), a, func(ctx context.Context) (int, error) {
		a.Set(1)
		<-release
		a.Set(2)
		return 42, nil
	})

	if !a.IsBatching() {
		t.Fatal("frame not opened synchronously")
	}
	close(release)

	v, err := p.Wait(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("Wait = %d, %v", v, err)
	}
	if a.IsBatching() {
		t.Error("batching state leaked")
	}
	if len(rec.values) != 1 || rec.values[0] != 2 {
		t.Errorf("notifications = %v, want [2]", rec.values)
	}
}

func TestBatchAsyncOverlap(t *testing.T) {
	a := New(0)
	calls := 0
	a.Subscribe(func(int) { calls++ })
	calls = 0

	firstGate := make(chan struct{})
	secondGate := make(chan struct{})
	first := BatchAsync(context.Background(), a, func(context.Context) (struct{}, error) {
		<-firstGate
		a.Modify(func(n int) int { return n + 1 })
		return struct{}{}, nil
	})
	second := BatchAsync(context.Background(), a, func(context.Context) (struct{}, error) {
		<-secondGate
		a.Modify(func(n int) int { return n + 10 })
		return struct{}{}, nil
	})

	close(firstGate)
	<-first.Done()
	if !a.IsBatching() {
		t.Error("frame closed while second batch is running")
	}

	close(secondGate)
	<-second.Done()
	if a.IsBatching() {
		t.Error("batching state leaked")
	}
	if a.Get() != 11 {
		t.Errorf("value = %d, want 11", a.Get())
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBatchAsyncErrorCommits(t *testing.T) {
	a := New("a")
	boom := errors.New("boom")
	p := BatchAsync(context.Background(), a, func(context.Context) (int, error) {
		a.Set("b")
		return 0, boom
	})

	_, err := p.Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if a.Get() != "b" {
		t.Errorf("value = %q, want b", a.Get())
	}
}

func TestBatchAsyncPanic(t *testing.T) {
	a := New(0, WithName("panicky"))
	p := BatchAsync(context.Background(), a, func(context.Context) (int, error) {
		a.Set(3)
		panic("boom")
	})

	_, err := p.Wait(context.Background())
	if !errors.Is(err, ErrBatchPanic) {
		t.Fatalf("err = %v, want ErrBatchPanic", err)
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if ae.Code != atomerrors.CodeBatchPanic || ae.Subject != "panicky" || ae.Detail != "boom" {
		t.Errorf("unexpected error fields: %+v", ae)
	}
	if a.Get() != 3 || a.IsBatching() {
		t.Errorf("value = %d batching = %v", a.Get(), a.IsBatching())
	}
}

func TestBatchAsyncContext(t *testing.T) {
	a := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	p := BatchAsync(ctx, a, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	_, err := p.Wait(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	block := BatchAsync(context.Background(), a, func(context.Context) (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer waitCancel()
	if _, err := block.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want DeadlineExceeded", err)
	}
}
