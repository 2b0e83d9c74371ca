package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/atomrx/pkg/atom"
)

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(WithRegistry(reg), WithNamespace("test"))

	a := atom.New(0, atom.WithName("count"), atom.WithObserver(obs))
	a.Subscribe(func(n int) {
		if n == 1 {
			a.Set(2)
		}
	})
	a.Subscribe(func(int) {})

	a.Set(1)
	_ = a.Batch(func() error { a.Set(3); return nil })
	_ = a.Batch(func() error { return errors.New("boom") })

	if got := testutil.ToFloat64(obs.commits.WithLabelValues("count")); got != 3 {
		t.Errorf("commits = %v, want 3", got)
	}
	if got := testutil.ToFloat64(obs.dropped.WithLabelValues("count")); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.batches.WithLabelValues("count", "ok")); got != 1 {
		t.Errorf("ok batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.batches.WithLabelValues("count", "error")); got != 1 {
		t.Errorf("error batches = %v, want 1", got)
	}
}

func TestObserverConnectedGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(WithRegistry(reg))

	a := atom.New(1)
	v := atom.View(a, func(n int) int { return n * 2 }, atom.WithObserver(obs))

	unsub := v.Subscribe(func(int) {})
	if got := testutil.ToFloat64(obs.connected); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
	unsub()
	if got := testutil.ToFloat64(obs.connected); got != 0 {
		t.Errorf("connected = %v, want 0", got)
	}
}

func TestObserverWithoutAtomLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(WithRegistry(reg), WithPerAtom(false), WithSubsystem("core"))

	a := atom.New("x", atom.WithObserver(obs))
	a.Set("y")
	b := atom.New("x", atom.WithObserver(obs))
	b.Set("z")

	expected := `
# HELP atomrx_core_commits_total Total number of values committed to atoms
# TYPE atomrx_core_commits_total counter
atomrx_core_commits_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "atomrx_core_commits_total"); err != nil {
		t.Error(err)
	}
}

func TestObserverConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(WithRegistry(reg), WithConstLabels(prometheus.Labels{"app": "demo"}))
	obs.Committed("a")

	n, err := testutil.GatherAndCount(reg, "atomrx_commits_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}

func TestObserverDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewObserver(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewObserver(WithRegistry(reg))
}
