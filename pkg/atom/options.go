package atom

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Option configures an atom or a derived atom.
type Option func(*options)

// options holds configuration shared by every atom kind.
type options struct {
	// name identifies the atom in logs and observer callbacks.
	name string

	// logger receives debug output. If nil, slog.Default() is used.
	logger *slog.Logger

	// observer receives propagation events. If nil, the default observer is used.
	observer Observer
}

// WithName sets the atom name used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger for connection and batch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets the observer that receives propagation events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func applyOptions(kind string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("%s#%d", kind, nextID())
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = DefaultObserver()
	}
	return o
}

var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

// Observer receives propagation events from atoms.
// Implementations must be cheap and must not call back into atoms.
type Observer interface {
	// Committed is called after a cell accepted a new value.
	Committed(name string)

	// Delivered is called when a subscriber received a value.
	Delivered(name string)

	// Dropped is called when a stale delivery was discarded.
	Dropped(name string)

	// BatchClosed is called when the outermost batch frame of an atom closes.
	BatchClosed(name string, err error)

	// Connected is called when a derived atom attaches to (true) or
	// detaches from (false) its sources.
	Connected(name string, connected bool)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Committed(string)          {}
func (NopObserver) Delivered(string)          {}
func (NopObserver) Dropped(string)            {}
func (NopObserver) BatchClosed(string, error) {}
func (NopObserver) Connected(string, bool)    {}

type observerBox struct {
	obs Observer
}

var defaultObserver atomic.Pointer[observerBox]

// SetDefaultObserver sets the observer used by atoms created without
// WithObserver. Atoms created earlier keep their observer.
func SetDefaultObserver(obs Observer) {
	if obs == nil {
		obs = NopObserver{}
	}
	defaultObserver.Store(&observerBox{obs: obs})
}

// DefaultObserver returns the observer used by atoms created without WithObserver.
func DefaultObserver() Observer {
	if b := defaultObserver.Load(); b != nil {
		return b.obs
	}
	return NopObserver{}
}
