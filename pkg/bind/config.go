package bind

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds websocket binding settings.
type Config struct {
	// ReadBufferSize and WriteBufferSize size the connection buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// PingInterval is the interval between keepalive pings. Zero disables pings.
	PingInterval time.Duration

	// ReadTimeout is how long a connection may go without a client frame
	// or pong while pings are enabled. It must exceed PingInterval; shorter
	// values are raised to twice the interval.
	ReadTimeout time.Duration

	// MaxMessageSize limits client frames, in bytes.
	MaxMessageSize int64

	// CheckOrigin validates the Origin header. Nil allows same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// Logger receives connection diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns the default binding settings.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		ReadTimeout:     60 * time.Second,
		MaxMessageSize:  1 << 20,
	}
}

// Option configures a binding.
type Option func(*Config)

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = d
	}
}

// WithPingInterval sets the keepalive ping interval.
func WithPingInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PingInterval = d
	}
}

// WithReadTimeout sets how long a pinged client may stay silent.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// WithMaxMessageSize limits the size of client frames.
func WithMaxMessageSize(n int64) Option {
	return func(c *Config) {
		c.MaxMessageSize = n
	}
}

// WithCheckOrigin sets the origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *Config) {
		c.CheckOrigin = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PingInterval > 0 && cfg.ReadTimeout <= cfg.PingInterval {
		cfg.ReadTimeout = 2 * cfg.PingInterval
	}
	return cfg
}
