package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
	"github.com/vango-dev/atomrx/internal/inspector"
	"github.com/vango-dev/atomrx/pkg/bind"
)

const (
	gib = int64(1024 * 1024 * 1024)

	benchNamespace = "bench"
)

// benchConfig is one resolved run. Profiles are partial benchConfigs.
type benchConfig struct {
	Profile       string
	Clients       int
	Duration      time.Duration
	RPS           float64
	Keys          int
	PayloadBytes  int
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
	EventTimeout  time.Duration
}

var benchProfiles = map[string]benchConfig{
	"fast": {
		Clients:      20,
		Duration:     5 * time.Second,
		RPS:          5,
		Keys:         8,
		PayloadBytes: 32,
	},
	"standard": {
		Clients:      100,
		Duration:     20 * time.Second,
		RPS:          10,
		Keys:         32,
		PayloadBytes: 32,
	},
	"stress": {
		Clients:       400,
		Duration:      45 * time.Second,
		RPS:           20,
		Keys:          64,
		PayloadBytes:  32,
		MaxProcs:      4,
		MemLimitBytes: gib,
	},
}

type benchCounters struct {
	writesSent     atomic.Uint64
	writesComplete atomic.Uint64
	writeBytes     atomic.Uint64
	frames         atomic.Uint64
	staleFrames    atomic.Uint64
}

type benchErrors struct {
	dialFailures        atomic.Uint64
	writeFailures       atomic.Uint64
	frameDecodeFailures atomic.Uint64
	tokenMissing        atomic.Uint64
	totalErrors         atomic.Uint64
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		memLimit    string
		over        benchConfig
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write-to-watcher latency of an in-process server",
		Long: `Run an in-process state server and drive it with websocket clients.

Each client watches its own key path and writes unique tokens to it
through the binding. The latency sample is the time from the write to
the frame carrying the token. Writes of one client must not produce
frames for the others.

Examples:
  atomctl bench --profile fast
  atomctl bench --clients 10 --duration 5s --json report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveBench(profileName, memLimit, over, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			report, err := runBench(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			writeSummary(cmd.ErrOrStderr(), report)
			return writeReport(cmd.OutOrStdout(), cfg.JSONOutput, report)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&profileName, "profile", "standard", "profile: fast|standard|stress")
	fs.IntVar(&over.Clients, "clients", 0, "number of concurrent websocket clients")
	fs.DurationVar(&over.Duration, "duration", 0, "how long clients keep writing")
	fs.Float64Var(&over.RPS, "rps", 0, "writes per second per client")
	fs.IntVar(&over.Keys, "keys", 0, "sibling keys per client object")
	fs.IntVar(&over.PayloadBytes, "payload-bytes", 0, "token size in bytes")
	fs.IntVar(&over.MaxProcs, "max-procs", 0, "GOMAXPROCS for the run (0 leaves it unchanged)")
	fs.StringVar(&memLimit, "mem-limit", "", "soft memory limit for the run, e.g. 512MiB")
	fs.StringVar(&over.JSONOutput, "json", "-", "where to write the JSON report ('-' is stdout)")

	return cmd
}

func usageError(flag, detail string) error {
	return atomerrors.New(atomerrors.CodeCLIUsage).
		WithSubject("--" + flag).
		WithDetail(detail)
}

// resolveBench starts from the named profile and applies every value of
// over whose flag changed reports as set.
func resolveBench(name, memLimit string, over benchConfig, changed func(flag string) bool) (benchConfig, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "standard"
	}
	cfg, ok := benchProfiles[name]
	if !ok {
		return benchConfig{}, usageError("profile", fmt.Sprintf("unknown profile %q", name))
	}
	cfg.Profile = name
	cfg.JSONOutput = "-"

	overrides := map[string]func(){
		"clients":       func() { cfg.Clients = over.Clients },
		"duration":      func() { cfg.Duration = over.Duration },
		"rps":           func() { cfg.RPS = over.RPS },
		"keys":          func() { cfg.Keys = over.Keys },
		"payload-bytes": func() { cfg.PayloadBytes = over.PayloadBytes },
		"max-procs":     func() { cfg.MaxProcs = over.MaxProcs },
		"json":          func() { cfg.JSONOutput = strings.TrimSpace(over.JSONOutput) },
	}
	for flag, apply := range overrides {
		if changed(flag) {
			apply()
		}
	}
	if changed("mem-limit") {
		limit, err := parseBytes(memLimit)
		if err != nil {
			return benchConfig{}, usageError("mem-limit", err.Error())
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	checks := []struct {
		flag string
		bad  bool
		want string
	}{
		{"clients", cfg.Clients <= 0, "must be > 0"},
		{"duration", cfg.Duration <= 0, "must be > 0"},
		{"rps", cfg.RPS <= 0, "must be > 0"},
		{"keys", cfg.Keys < 0, "must be >= 0"},
		{"payload-bytes", cfg.PayloadBytes <= 0, "must be > 0"},
		{"max-procs", cfg.MaxProcs < 0, "must be >= 0"},
	}
	for _, c := range checks {
		if c.bad {
			return benchConfig{}, usageError(c.flag, c.want)
		}
	}

	cfg.EventTimeout = eventTimeout(cfg.RPS)
	return cfg, nil
}

// eventTimeout is how long a client waits for its own frame: ten write
// periods, and never less than two seconds.
func eventTimeout(rps float64) time.Duration {
	if rps <= 0 {
		return 0
	}
	return max(10*time.Duration(float64(time.Second)/rps), 2*time.Second)
}

// byteUnits maps size suffixes to multipliers, longest suffixes first.
var byteUnits = []struct {
	suffix string
	mult   float64
}{
	{"kib", 1 << 10},
	{"mib", 1 << 20},
	{"gib", 1 << 30},
	{"kb", 1e3},
	{"mb", 1e6},
	{"gb", 1e9},
	{"b", 1},
}

// parseBytes parses sizes such as "512", "64MiB" or "1.5 GB".
func parseBytes(input string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	mult := 1.0
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			mult = u.mult
			break
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}
	return int64(value*mult + 0.5), nil
}

// benchDoc builds a document with one object per client. Each object
// holds the watched "echo" key and keys siblings.
func benchDoc(clients, keys int) map[string]any {
	objs := make(map[string]any, clients)
	for i := 0; i < clients; i++ {
		obj := make(map[string]any, keys+1)
		obj["echo"] = ""
		for k := 0; k < keys; k++ {
			obj["k"+strconv.Itoa(k)] = float64(k)
		}
		objs[clientKey(i)] = obj
	}
	return map[string]any{"clients": objs}
}

func clientKey(i int) string {
	return "c" + strconv.Itoa(i)
}

func runBench(ctx context.Context, cfg benchConfig) (benchReport, error) {
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}

	reg := prometheus.NewRegistry()
	srv := inspector.New(benchDoc(cfg.Clients, cfg.Keys), inspector.Options{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry:  reg,
		Namespace: benchNamespace,
		Bind:      []bind.Option{bind.WithPingInterval(0)},
	})

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return benchReport{}, fmt.Errorf("listen: %w", err)
	}
	httpServer := &http.Server{Handler: srv.Handler()}
	go func() {
		_ = httpServer.Serve(ln)
	}()
	defer func() {
		_ = httpServer.Shutdown(context.Background())
	}()

	baseURL := "ws://" + ln.Addr().String() + "/watch/clients/"

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Clients))
	res := runResult{counters: &benchCounters{}, errs: &benchErrors{}}
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			res.samples = append(res.samples, rtt)
		}
	}()

	res.before = captureMem()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < cfg.Clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			url := baseURL + clientKey(id) + "/echo"
			if err := runClient(ctx, url, id, cfg, res.counters, res.errs, samplesCh); err != nil {
				res.errs.totalErrors.Add(1)
			}
		}(i)
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	res.elapsed = time.Since(start)
	res.after = captureMem()

	atoms, err := atomCounters(reg, benchNamespace)
	if err != nil {
		return benchReport{}, err
	}
	res.atoms = atoms
	res.samples.sort()

	return buildReport(cfg, res), nil
}

func sampleBuffer(clients int) int {
	buf := clients * 4
	if buf < 1024 {
		buf = 1024
	}
	return buf
}

func runClient(
	ctx context.Context,
	url string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	samples chan<- time.Duration,
) error {
	c, err := bind.Dial[string](ctx, url, nil)
	if err != nil {
		errCounts.dialFailures.Add(1)
		return err
	}
	defer c.Close()

	// The replayed value.
	c.SetReadDeadline(time.Now().Add(cfg.EventTimeout))
	if _, err := c.Next(); err != nil {
		errCounts.dialFailures.Add(1)
		return fmt.Errorf("replay: %w", err)
	}
	counters.frames.Add(1)

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seq++
		token := makeToken(clientID, seq, cfg.PayloadBytes)

		start := time.Now()
		if err := c.Send(token); err != nil {
			errCounts.writeFailures.Add(1)
			return err
		}
		counters.writesSent.Add(1)
		counters.writeBytes.Add(uint64(len(token)))

		c.SetReadDeadline(time.Now().Add(cfg.EventTimeout))
		if err := waitForToken(c, token, counters); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTimeout(err) {
				errCounts.tokenMissing.Add(1)
				return fmt.Errorf("token not observed in frames")
			}
			errCounts.frameDecodeFailures.Add(1)
			return fmt.Errorf("wait for token: %w", err)
		}

		counters.writesComplete.Add(1)
		samples <- time.Since(start)

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

// waitForToken reads frames until one carries token. Frames with other
// values are counted as stale.
func waitForToken(c *bind.Client[string], token string, counters *benchCounters) error {
	for {
		f, err := c.Next()
		if err != nil {
			return err
		}
		counters.frames.Add(1)
		if f.Value == token {
			return nil
		}
		counters.staleFrames.Add(1)
	}
}

func makeToken(clientID int, seq uint64, payloadBytes int) string {
	if payloadBytes <= 0 {
		return ""
	}
	seed := (uint64(clientID) << 32) ^ seq
	base := strconv.FormatUint(seed, 36)
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	return base + strings.Repeat("x", payloadBytes-len(base))
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// atomCounters sums every series of the metric families in namespace,
// keyed by the name without the namespace prefix.
func atomCounters(g prometheus.Gatherer, namespace string) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	prefix := namespace + "_"
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
		out[strings.TrimPrefix(mf.GetName(), prefix)] = sum
	}
	return out, nil
}

func writeReport(stdout io.Writer, path string, report benchReport) error {
	if path == "-" {
		return encodeReport(stdout, report)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encodeReport(file, report)
}
