package atom

import "sync"

// cell is a versioned single-value broadcaster.
//
// Every commit increments time. A listener only accepts a delivery whose
// time is not older than the cell's latest time and newer than anything
// it already accepted, so a re-entrant cascade of commits reaches
// listeners that were not yet notified with the final value only.
type cell[T any] struct {
	mu        sync.Mutex
	value     T
	time      uint64
	listeners []*listener[T]

	name string
	obs  Observer
}

type listener[T any] struct {
	fn     func(T)
	last   uint64
	active bool
}

func newCell[T any](v T, name string, obs Observer) *cell[T] {
	return &cell[T]{value: v, time: 1, name: name, obs: obs}
}

// load returns the current value and its time.
func (c *cell[T]) load() (T, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.time
}

// next commits v and delivers it to every listener in registration order.
func (c *cell[T]) next(v T) {
	t, ls := c.swap(v)
	c.publish(v, t, ls)
}

// swap stores v without delivering it.
func (c *cell[T]) swap(v T) (uint64, []*listener[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store(v)
}

// commitIf stores v only if no commit happened since time stamp. The
// caller must publish the result when ok is set.
func (c *cell[T]) commitIf(stamp uint64, v T) (t uint64, ls []*listener[T], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.time != stamp {
		return 0, nil, false
	}
	t, ls = c.store(v)
	return t, ls, true
}

// store sets the value and returns the new time and a copy of the
// listeners. c.mu must be held.
func (c *cell[T]) store(v T) (uint64, []*listener[T]) {
	c.value = v
	c.time++
	ls := make([]*listener[T], len(c.listeners))
	copy(ls, c.listeners)
	return c.time, ls
}

// publish delivers the value committed at time t.
func (c *cell[T]) publish(v T, t uint64, ls []*listener[T]) {
	c.obs.Committed(c.name)
	for _, l := range ls {
		c.deliver(l, v, t)
	}
}

// deliver hands v to l unless l is gone or the delivery is stale.
func (c *cell[T]) deliver(l *listener[T], v T, t uint64) {
	c.mu.Lock()
	if !l.active {
		c.mu.Unlock()
		return
	}
	if t < c.time || t <= l.last {
		c.mu.Unlock()
		c.obs.Dropped(c.name)
		return
	}
	l.last = t
	c.mu.Unlock()

	c.obs.Delivered(c.name)
	l.fn(v)
}

// subscribe registers fn and replays the current value to it.
func (c *cell[T]) subscribe(fn func(T)) Unsubscribe {
	l := &listener[T]{fn: fn, active: true}

	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	v, t := c.value, c.time
	c.mu.Unlock()

	c.deliver(l, v, t)

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(l) })
	}
}

// remove detaches l, keeping the order of the remaining listeners.
func (c *cell[T]) remove(l *listener[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l.active = false
	for i, existing := range c.listeners {
		if existing == l {
			ls := make([]*listener[T], 0, len(c.listeners)-1)
			ls = append(ls, c.listeners[:i]...)
			ls = append(ls, c.listeners[i+1:]...)
			c.listeners = ls
			return
		}
	}
}

// size returns the number of registered listeners.
func (c *cell[T]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}
