package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/atomrx/internal/config"
	"github.com/vango-dev/atomrx/internal/inspector"
	"github.com/vango-dev/atomrx/pkg/bind"
)

type serveFlags struct {
	config   string
	listen   string
	state    string
	logLevel string
	readOnly bool
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a JSON document over HTTP and WebSocket",
		Long: `Serve a JSON document held in an atom.

Configuration is read from --config, or from atomctl.json in the
working directory if present. Flags override file values.

Examples:
  atomctl serve --state state.json
  atomctl serve --config deploy/atomctl.json --listen :8080
  atomctl serve --read-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Path to atomctl.json")
	cmd.Flags().StringVarP(&f.listen, "listen", "l", "", "Address to listen on (default from config)")
	cmd.Flags().StringVar(&f.state, "state", "", "Initial JSON document (default from config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&f.readOnly, "read-only", false, "Reject writes")

	return cmd
}

// loadConfig resolves the configuration file and applies flag overrides.
func loadConfig(f serveFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case f.config != "":
		cfg, err = config.LoadFile(f.config)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}

	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.state != "" {
		cfg.State = f.state
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.readOnly {
		cfg.Watch.ReadOnly = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	doc, err := cfg.LoadState()
	if err != nil {
		return err
	}

	opts := inspector.Options{
		Logger:      logger,
		Namespace:   cfg.Namespace,
		MetricsPath: cfg.Metrics.Path,
		ReadOnly:    cfg.Watch.ReadOnly,
		Bind: []bind.Option{
			bind.WithPingInterval(cfg.PingInterval()),
			bind.WithWriteTimeout(cfg.WriteTimeout()),
			bind.WithMaxMessageSize(cfg.Watch.MaxMessageSize),
		},
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Registry = reg
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           inspector.New(doc, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Serving state on http://%s", cfg.Listen)
	if cfg.StatePath() != "" {
		info("State:   %s", cfg.StatePath())
	}
	if cfg.Metrics.Enabled {
		info("Metrics: http://%s%s", cfg.Listen, cfg.Metrics.Path)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
