package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/atomrx/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "atomctl.json"

	// DefaultListen is the default inspector server address.
	DefaultListen = "localhost:7070"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "atomrx"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultPingInterval is the default websocket keepalive interval.
	DefaultPingInterval = "30s"

	// DefaultWriteTimeout is the default websocket write deadline.
	DefaultWriteTimeout = "10s"
)

// Config represents the complete atomctl.json configuration.
type Config struct {
	// Listen is the address the inspector server binds to.
	Listen string `json:"listen,omitempty"`

	// State is the path to the JSON document loaded as the initial state.
	// Relative paths resolve against the config file directory.
	State string `json:"state,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`

	// Namespace is the Prometheus metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Metrics contains metrics endpoint configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Watch contains websocket binding configuration.
	Watch WatchConfig `json:"watch,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains metrics endpoint settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `json:"enabled"`

	// Path is the URL path of the metrics endpoint.
	Path string `json:"path,omitempty"`
}

// WatchConfig contains websocket binding settings.
type WatchConfig struct {
	// PingInterval is the keepalive interval (e.g., "30s").
	PingInterval string `json:"pingInterval,omitempty"`

	// WriteTimeout is the write deadline per frame (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// MaxMessageSize limits inbound client frames in bytes. Zero means no limit.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`

	// ReadOnly rejects client writes on every watch endpoint.
	ReadOnly bool `json:"readOnly,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Listen:    DefaultListen,
		LogLevel:  DefaultLogLevel,
		Namespace: DefaultNamespace,
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Watch: WatchConfig{
			PingInterval:   DefaultPingInterval,
			WriteTimeout:   DefaultWriteTimeout,
			MaxMessageSize: 1 << 20,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for atomctl.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithSubject(path).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New(errors.CodeConfigRead).WithSubject(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithSubject(path).
			WithDetail(err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).WithSubject(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Watch.PingInterval == "" {
		c.Watch.PingInterval = DefaultPingInterval
	}
	if c.Watch.WriteTimeout == "" {
		c.Watch.WriteTimeout = DefaultWriteTimeout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return invalid("listen", "Listen address must be host:port, got "+c.Listen)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return invalid("logLevel", "Log level must be one of debug, info, warn, error")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "Metrics path must start with /")
	}
	if _, err := parsePositive(c.Watch.PingInterval); err != nil {
		return invalid("watch.pingInterval", err.Error())
	}
	if _, err := parsePositive(c.Watch.WriteTimeout); err != nil {
		return invalid("watch.writeTimeout", err.Error())
	}
	if c.Watch.MaxMessageSize < 0 {
		return invalid("watch.maxMessageSize", "Max message size cannot be negative")
	}
	return nil
}

func invalid(field, detail string) error {
	return errors.New(errors.CodeConfigInvalid).
		WithSubject(field).
		WithDetail(detail)
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CategoryConfig, "duration must be positive, got %s", s)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Level returns the slog level for LogLevel. Unknown levels map to info.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// PingInterval returns the websocket keepalive interval.
func (c *Config) PingInterval() time.Duration {
	d, err := parsePositive(c.Watch.PingInterval)
	if err != nil {
		d, _ = time.ParseDuration(DefaultPingInterval)
	}
	return d
}

// WriteTimeout returns the websocket write deadline.
func (c *Config) WriteTimeout() time.Duration {
	d, err := parsePositive(c.Watch.WriteTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultWriteTimeout)
	}
	return d
}

// StatePath returns the absolute path to the initial state document,
// or "" if none is configured.
func (c *Config) StatePath() string {
	if c.State == "" || filepath.IsAbs(c.State) {
		return c.State
	}
	return filepath.Join(c.Dir(), c.State)
}

// LoadState reads the initial state document. Without a configured
// document the state is an empty object.
func (c *Config) LoadState() (any, error) {
	path := c.StatePath()
	if path == "" {
		return map[string]any{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeStateLoad).WithSubject(path).Wrap(err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.CodeStateLoad).
			WithSubject(path).
			WithDetail(err.Error()).
			WithSuggestion("The state document must be valid JSON")
	}
	return doc, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
