// Package metrics exports atom propagation events to Prometheus.
//
// Metrics collected:
//   - atomrx_commits_total: Counter of committed values by atom
//   - atomrx_deliveries_total: Counter of values delivered to subscribers by atom
//   - atomrx_dropped_deliveries_total: Counter of stale deliveries discarded by atom
//   - atomrx_batches_total: Counter of closed outermost batches by atom and status
//   - atomrx_connected_derived: Gauge of derived atoms connected to their sources
//
// Example:
//
//	obs := metrics.NewObserver(metrics.WithRegistry(reg))
//	atom.SetDefaultObserver(obs)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/atomrx/pkg/atom"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "atomrx").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// PerAtom labels series with the atom name. Disable it when atom
	// names are unbounded.
	PerAtom bool

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithPerAtom enables or disables the atom label.
func WithPerAtom(enabled bool) Option {
	return func(c *Config) {
		c.PerAtom = enabled
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "atomrx",
		PerAtom:   true,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer is an atom.Observer recording Prometheus metrics.
type Observer struct {
	perAtom bool

	commits    *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	batches    *prometheus.CounterVec
	connected  prometheus.Gauge
}

var _ atom.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its metrics.
// It panics if the metrics are already registered with the registry.
func NewObserver(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	var labels []string
	if config.PerAtom {
		labels = []string{"atom"}
	}

	return &Observer{
		perAtom: config.PerAtom,

		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of values committed to atoms",
			ConstLabels: config.ConstLabels,
		}, labels),

		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "deliveries_total",
			Help:        "Total number of values delivered to subscribers",
			ConstLabels: config.ConstLabels,
		}, labels),

		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dropped_deliveries_total",
			Help:        "Total number of stale deliveries discarded during update cascades",
			ConstLabels: config.ConstLabels,
		}, labels),

		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_total",
			Help:        "Total number of closed batches by status",
			ConstLabels: config.ConstLabels,
		}, append(append([]string(nil), labels...), "status")),

		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connected_derived",
			Help:        "Number of derived atoms connected to their sources",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (o *Observer) values(name string, rest ...string) []string {
	if !o.perAtom {
		return rest
	}
	return append([]string{name}, rest...)
}

// Committed implements atom.Observer.
func (o *Observer) Committed(name string) {
	o.commits.WithLabelValues(o.values(name)...).Inc()
}

// Delivered implements atom.Observer.
func (o *Observer) Delivered(name string) {
	o.deliveries.WithLabelValues(o.values(name)...).Inc()
}

// Dropped implements atom.Observer.
func (o *Observer) Dropped(name string) {
	o.dropped.WithLabelValues(o.values(name)...).Inc()
}

// BatchClosed implements atom.Observer.
func (o *Observer) BatchClosed(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.batches.WithLabelValues(o.values(name, status)...).Inc()
}

// Connected implements atom.Observer.
func (o *Observer) Connected(_ string, connected bool) {
	if connected {
		o.connected.Inc()
		return
	}
	o.connected.Dec()
}
