package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"runtime/metrics"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// latencies holds write-to-frame samples.
type latencies []time.Duration

func (l latencies) sort() {
	sort.Slice(l, func(i, j int) bool { return l[i] < l[j] })
}

// at returns the nearest-rank percentile p of sorted samples.
func (l latencies) at(p float64) time.Duration {
	if len(l) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(l))*p)) - 1
	return l[min(max(idx, 0), len(l)-1)]
}

func (l latencies) info() latencyInfo {
	if len(l) == 0 {
		return latencyInfo{}
	}
	return latencyInfo{
		Min: ms(l[0]),
		P50: ms(l.at(0.50)),
		P95: ms(l.at(0.95)),
		P99: ms(l.at(0.99)),
		Max: ms(l[len(l)-1]),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// memSnapshot is the process memory state at one point of a run.
type memSnapshot struct {
	stats     runtime.MemStats
	cpuTotal  float64
	cpuGC     float64
	allocObjs uint64
}

var memSamples = []string{
	"/cpu/classes/total:cpu-seconds",
	"/cpu/classes/gc/total:cpu-seconds",
	"/gc/heap/allocs:objects",
}

func captureMem() memSnapshot {
	var s memSnapshot
	runtime.GC()
	runtime.ReadMemStats(&s.stats)

	samples := make([]metrics.Sample, len(memSamples))
	for i, name := range memSamples {
		samples[i].Name = name
	}
	metrics.Read(samples)

	if v := samples[0].Value; v.Kind() == metrics.KindFloat64 {
		s.cpuTotal = v.Float64()
	}
	if v := samples[1].Value; v.Kind() == metrics.KindFloat64 {
		s.cpuGC = v.Float64()
	}
	if v := samples[2].Value; v.Kind() == metrics.KindUint64 {
		s.allocObjs = v.Uint64()
	}
	return s
}

// gcBetween summarizes allocation and collection work between two snapshots.
func gcBetween(before, after memSnapshot) gcInfo {
	const mb = 1024 * 1024

	info := gcInfo{
		AllocMB:       float64(after.stats.TotalAlloc-before.stats.TotalAlloc) / mb,
		HeapLiveMB:    float64(after.stats.HeapAlloc) / mb,
		NumGC:         after.stats.NumGC - before.stats.NumGC,
		AllocsObjects: after.allocObjs - before.allocObjs,
	}
	pause := time.Duration(after.stats.PauseTotalNs - before.stats.PauseTotalNs)
	info.PauseTotalMS = ms(pause)
	if info.NumGC > 0 {
		info.PauseAvgMS = ms(pause / time.Duration(info.NumGC))
	}
	if total := after.cpuTotal - before.cpuTotal; total > 0 {
		info.GCCPUFraction = math.Max(0, after.cpuGC-before.cpuGC) / total
	}
	return info
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Binding    bindingInfo    `json:"binding"`
	Atoms      atomInfo       `json:"atoms"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile        string  `json:"profile"`
	Clients        int     `json:"clients"`
	DurationMS     int64   `json:"duration_ms"`
	RPSPerClient   float64 `json:"rps_per_client"`
	Keys           int     `json:"keys"`
	PayloadBytes   int     `json:"payload_bytes"`
	MaxProcs       int     `json:"max_procs,omitempty"`
	MemLimitBytes  int64   `json:"mem_limit_bytes,omitempty"`
	EventTimeoutMS int64   `json:"event_timeout_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	Writes          uint64  `json:"writes"`
	PerSec          float64 `json:"per_sec"`
	PerSecPerClient float64 `json:"per_sec_per_client"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type bindingInfo struct {
	WriteBytes     uint64  `json:"write_bytes"`
	Frames         uint64  `json:"frames"`
	StaleFrames    uint64  `json:"stale_frames"`
	FramesPerWrite float64 `json:"frames_per_write"`
}

type atomInfo struct {
	Commits          float64 `json:"commits"`
	Deliveries       float64 `json:"deliveries"`
	Dropped          float64 `json:"dropped_deliveries"`
	ConnectedDerived float64 `json:"connected_derived"`
}

type errorInfo struct {
	Total        uint64 `json:"total"`
	Dial         uint64 `json:"dial"`
	Write        uint64 `json:"write"`
	FrameDecode  uint64 `json:"frame_decode"`
	TokenMissing uint64 `json:"token_missing"`
}

// runResult is everything a run measured.
type runResult struct {
	elapsed  time.Duration
	samples  latencies
	counters *benchCounters
	errs     *benchErrors
	atoms    map[string]float64
	before   memSnapshot
	after    memSnapshot
}

func buildReport(cfg benchConfig, r runResult) benchReport {
	writes := r.counters.writesComplete.Load()
	frames := r.counters.frames.Load()
	perSec := float64(writes) / math.Max(0.001, r.elapsed.Seconds())

	binding := bindingInfo{
		WriteBytes:  r.counters.writeBytes.Load(),
		Frames:      frames,
		StaleFrames: r.counters.staleFrames.Load(),
	}
	// The replayed frame of each client is not caused by a write.
	if replays := uint64(cfg.Clients); writes > 0 && frames > replays {
		binding.FramesPerWrite = float64(frames-replays) / float64(writes)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:        cfg.Profile,
			Clients:        cfg.Clients,
			DurationMS:     cfg.Duration.Milliseconds(),
			RPSPerClient:   cfg.RPS,
			Keys:           cfg.Keys,
			PayloadBytes:   cfg.PayloadBytes,
			MaxProcs:       cfg.MaxProcs,
			MemLimitBytes:  cfg.MemLimitBytes,
			EventTimeoutMS: cfg.EventTimeout.Milliseconds(),
		},
		LatencyMS: r.samples.info(),
		Throughput: throughputInfo{
			Writes:          writes,
			PerSec:          perSec,
			PerSecPerClient: perSec / float64(cfg.Clients),
		},
		GC:      gcBetween(r.before, r.after),
		Binding: binding,
		Atoms: atomInfo{
			Commits:          r.atoms["commits_total"],
			Deliveries:       r.atoms["deliveries_total"],
			Dropped:          r.atoms["dropped_deliveries_total"],
			ConnectedDerived: r.atoms["connected_derived"],
		},
		Errors: errorInfo{
			Total:        r.errs.totalErrors.Load(),
			Dial:         r.errs.dialFailures.Load(),
			Write:        r.errs.writeFailures.Load(),
			FrameDecode:  r.errs.frameDecodeFailures.Load(),
			TokenMissing: r.errs.tokenMissing.Load(),
		},
	}
}

// writeSummary prints the human-readable report.
func writeSummary(w io.Writer, r benchReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	section := func(title string) { fmt.Fprintf(tw, "\n%s\n", title) }
	row := func(label, format string, args ...any) {
		fmt.Fprintf(tw, "  %s\t%s\n", label, fmt.Sprintf(format, args...))
	}

	fmt.Fprintln(tw, "=== atomctl bench ===")
	section("Workload")
	row("profile", "%s", r.Workload.Profile)
	row("clients", "%d", r.Workload.Clients)
	row("duration", "%s", time.Duration(r.Workload.DurationMS)*time.Millisecond)
	row("rate", "%.2f writes/s per client", r.Workload.RPSPerClient)
	row("keys", "%d per client", r.Workload.Keys)
	row("payload", "%d bytes", r.Workload.PayloadBytes)
	if r.Workload.MaxProcs > 0 {
		row("GOMAXPROCS", "%d", r.Workload.MaxProcs)
	}
	if r.Workload.MemLimitBytes > 0 {
		row("GOMEMLIMIT", "%.2f GiB", float64(r.Workload.MemLimitBytes)/float64(gib))
	}

	section("Results")
	row("writes", "%d (%.1f/s, %.2f/s per client)", r.Throughput.Writes, r.Throughput.PerSec, r.Throughput.PerSecPerClient)
	row("errors", "%d", r.Errors.Total)

	section("Latency (write -> commit -> watcher frame)")
	if r.LatencyMS.Max == 0 {
		row("samples", "none")
	} else {
		row("min", "%.2f ms", r.LatencyMS.Min)
		row("p50", "%.2f ms", r.LatencyMS.P50)
		row("p95", "%.2f ms", r.LatencyMS.P95)
		row("p99", "%.2f ms", r.LatencyMS.P99)
		row("max", "%.2f ms", r.LatencyMS.Max)
	}

	section("Propagation")
	row("frames/write", "%.2f", r.Binding.FramesPerWrite)
	row("stale frames", "%d", r.Binding.StaleFrames)
	row("commits", "%.0f", r.Atoms.Commits)
	row("deliveries", "%.0f", r.Atoms.Deliveries)
	row("dropped", "%.0f", r.Atoms.Dropped)

	section("Go runtime (process-wide)")
	row("alloc", "%.2f MB", r.GC.AllocMB)
	row("heap live", "%.2f MB", r.GC.HeapLiveMB)
	row("gc cycles", "%d", r.GC.NumGC)
	row("gc pause", "%.2f ms total, %.2f ms avg", r.GC.PauseTotalMS, r.GC.PauseAvgMS)
	row("gc cpu", "%.2f%%", r.GC.GCCPUFraction*100)

	tw.Flush()
}

func encodeReport(w io.Writer, report benchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	for _, key := range []string{"ATOMRX_GIT_COMMIT", "GIT_COMMIT"} {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
