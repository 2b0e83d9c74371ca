package atom

import (
	"sync"

	"github.com/vango-dev/atomrx/pkg/lens"
)

// input is a type-erased source of a derived node.
type input struct {
	get       func() any
	committed func() any
	version   func() uint64
	batching  func() bool
	subscribe func(fn func(any)) Unsubscribe
}

func inputOf[T any](src ReadOnly[T]) input {
	return input{
		get:       func() any { return src.Get() },
		committed: func() any { return src.committed() },
		version:   src.version,
		batching:  src.IsBatching,
		subscribe: func(fn func(any)) Unsubscribe {
			return src.Subscribe(func(v T) { fn(v) })
		},
	}
}

// as converts an erased value back to T. A nil interface yields the zero value.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// node is the shared machinery of derived atoms: a cached cell fed by one
// reference-counted connection to the sources.
type node[T any] struct {
	inputs  []input
	project func(vals []any) T
	equals  func(a, b T) bool
	cell    *cell[T]
	opts    options

	mu         sync.Mutex
	refs       int
	connecting bool
	connected  bool
	seen       uint64
	upstream   []Unsubscribe
}

func newNode[T any](kind string, inputs []input, project func([]any) T, opts []Option) *node[T] {
	o := applyOptions(kind, opts)
	n := &node[T]{
		inputs:  inputs,
		project: project,
		equals:  lens.Equal[T],
		opts:    o,
	}
	n.cell = newCell(n.compute(false), o.name, o.observer)
	return n
}

// compute evaluates the projection over the sources' current values.
// With committed set it ignores pending batch values.
func (n *node[T]) compute(committed bool) T {
	vals := make([]any, len(n.inputs))
	for i, in := range n.inputs {
		if committed {
			vals[i] = in.committed()
		} else {
			vals[i] = in.get()
		}
	}
	return n.project(vals)
}

func (n *node[T]) sourceVersion() uint64 {
	var sum uint64
	for _, in := range n.inputs {
		sum += in.version()
	}
	return sum
}

// fresh reports whether the cached cell reflects the sources' committed values.
func (n *node[T]) fresh() bool {
	n.mu.Lock()
	connected, seen := n.connected, n.seen
	n.mu.Unlock()
	return connected && seen == n.sourceVersion()
}

// Get returns the cached value while connected and no source is batching,
// and recomputes from the sources otherwise.
func (n *node[T]) Get() T {
	if !n.IsBatching() && n.fresh() {
		v, _ := n.cell.load()
		return v
	}
	return n.compute(false)
}

func (n *node[T]) committed() T {
	if n.fresh() {
		v, _ := n.cell.load()
		return v
	}
	return n.compute(true)
}

func (n *node[T]) version() uint64 {
	return n.sourceVersion()
}

// IsBatching reports whether any source is batching.
func (n *node[T]) IsBatching() bool {
	for _, in := range n.inputs {
		if in.batching() {
			return true
		}
	}
	return false
}

// Name returns the atom name used in logs and metrics.
func (n *node[T]) Name() string {
	return n.opts.name
}

// Subscribe registers fn and replays the current value to it. The first
// subscriber connects the node to its sources; the last one to leave
// disconnects it.
func (n *node[T]) Subscribe(fn func(T)) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	n.acquire()
	unsub := n.cell.subscribe(fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			n.release()
		})
	}
}

// Connected reports whether the node holds an upstream subscription.
func (n *node[T]) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}

func (n *node[T]) acquire() {
	n.mu.Lock()
	n.refs++
	if n.refs > 1 {
		n.mu.Unlock()
		return
	}
	n.connecting = true
	n.mu.Unlock()

	ups := make([]Unsubscribe, len(n.inputs))
	for i, in := range n.inputs {
		ups[i] = in.subscribe(func(any) { n.onSource() })
	}

	n.mu.Lock()
	n.upstream = ups
	n.connecting = false
	n.connected = true
	n.mu.Unlock()

	n.opts.logger.Debug("derived atom connected", "atom", n.opts.name, "sources", len(n.inputs))
	n.opts.observer.Connected(n.opts.name, true)
	n.recompute()
}

func (n *node[T]) release() {
	n.mu.Lock()
	if n.refs == 0 {
		n.mu.Unlock()
		return
	}
	n.refs--
	if n.refs > 0 {
		n.mu.Unlock()
		return
	}
	ups := n.upstream
	n.upstream = nil
	n.connected = false
	n.mu.Unlock()

	for _, unsub := range ups {
		unsub()
	}
	n.opts.logger.Debug("derived atom disconnected", "atom", n.opts.name)
	n.opts.observer.Connected(n.opts.name, false)
}

// onSource handles an emission from any source. Emissions of a cascade
// that the node already computed from are ignored, so a tuple of sources
// changed by one synchronous cascade is projected once.
func (n *node[T]) onSource() {
	n.mu.Lock()
	skip := n.connecting || !n.connected
	seen := n.seen
	n.mu.Unlock()
	if skip || seen == n.sourceVersion() {
		return
	}
	n.recompute()
}

// recompute projects the sources' committed values and commits the result
// to the cached cell when it differs.
func (n *node[T]) recompute() {
	version := n.sourceVersion()
	next := n.compute(true)

	n.mu.Lock()
	n.seen = version
	n.mu.Unlock()

	cur, _ := n.cell.load()
	if !n.equals(cur, next) {
		n.cell.next(next)
	}
}
