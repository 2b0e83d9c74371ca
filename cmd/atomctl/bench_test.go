package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/atomrx/internal/errors"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"1kb", 1000, false},
		{"2GiB", 2 * gib, false},
		{"1.5 MiB", 1572864, false},
		{"", 0, true},
		{"GiB", 0, true},
		{"3 parsecs", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseBytes(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseBytes(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestLatenciesAt(t *testing.T) {
	var sorted latencies
	for i := 1; i <= 100; i++ {
		sorted = append(sorted, time.Duration(i)*time.Millisecond)
	}

	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1 * time.Millisecond},
		{0.50, 50 * time.Millisecond},
		{0.95, 95 * time.Millisecond},
		{0.99, 99 * time.Millisecond},
		{1, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := sorted.at(tt.p); got != tt.want {
			t.Errorf("at(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := latencies(nil).at(0.5); got != 0 {
		t.Errorf("empty at(0.5) = %v, want 0", got)
	}

	info := sorted.info()
	if info.Min != 1 || info.Max != 100 || info.P50 != 50 {
		t.Errorf("info() = %+v", info)
	}
}

func TestMakeToken(t *testing.T) {
	a := makeToken(1, 1, 24)
	b := makeToken(1, 2, 24)
	c := makeToken(2, 1, 24)

	if len(a) != 24 {
		t.Errorf("len = %d, want 24", len(a))
	}
	if a == b || a == c {
		t.Errorf("tokens collide: %q %q %q", a, b, c)
	}
	if got := makeToken(1, 1, 0); got != "" {
		t.Errorf("zero payload = %q", got)
	}
}

func TestEventTimeout(t *testing.T) {
	if got := eventTimeout(100); got != 2*time.Second {
		t.Errorf("eventTimeout(100) = %v, want floor of 2s", got)
	}
	if got := eventTimeout(0.1); got != 100*time.Second {
		t.Errorf("eventTimeout(0.1) = %v, want 100s", got)
	}
}

func changedFlags(names ...string) func(string) bool {
	return func(flag string) bool {
		for _, n := range names {
			if n == flag {
				return true
			}
		}
		return false
	}
}

func TestResolveBench(t *testing.T) {
	cfg, err := resolveBench("fast", "", benchConfig{Clients: 3, RPS: 99}, changedFlags("clients"))
	if err != nil {
		t.Fatalf("resolveBench: %v", err)
	}
	if cfg.Profile != "fast" || cfg.Clients != 3 || cfg.RPS != 5 || cfg.Keys != 8 || cfg.JSONOutput != "-" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.EventTimeout != 2*time.Second {
		t.Errorf("event timeout = %v, want 2s", cfg.EventTimeout)
	}

	cfg, err = resolveBench("", "64MiB", benchConfig{}, changedFlags("mem-limit"))
	if err != nil {
		t.Fatalf("resolveBench: %v", err)
	}
	if cfg.Profile != "standard" || cfg.MemLimitBytes != 64<<20 {
		t.Errorf("cfg = %+v", cfg)
	}

	tests := []struct {
		name    string
		profile string
		limit   string
		over    benchConfig
		changed []string
		subject string
	}{
		{"unknown profile", "warp", "", benchConfig{}, nil, "--profile"},
		{"zero clients", "fast", "", benchConfig{}, []string{"clients"}, "--clients"},
		{"negative keys", "fast", "", benchConfig{Keys: -1}, []string{"keys"}, "--keys"},
		{"bad mem limit", "fast", "lots", benchConfig{}, []string{"mem-limit"}, "--mem-limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveBench(tt.profile, tt.limit, tt.over, changedFlags(tt.changed...))
			ae, ok := err.(*errors.AtomError)
			if !ok || ae.Code != errors.CodeCLIUsage || ae.Subject != tt.subject {
				t.Errorf("err = %v, want usage error on %s", err, tt.subject)
			}
		})
	}
}

func TestBenchDoc(t *testing.T) {
	doc := benchDoc(2, 3)
	clients := doc["clients"].(map[string]any)
	if len(clients) != 2 {
		t.Fatalf("clients = %d, want 2", len(clients))
	}
	obj := clients["c1"].(map[string]any)
	if obj["echo"] != "" || len(obj) != 4 {
		t.Errorf("c1 = %v", obj)
	}
}

func TestRunBench(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load run in short mode")
	}

	cfg := benchConfig{
		Profile:      "test",
		Clients:      3,
		Duration:     300 * time.Millisecond,
		RPS:          50,
		Keys:         2,
		PayloadBytes: 16,
		JSONOutput:   "-",
		EventTimeout: 2 * time.Second,
	}

	report, err := runBench(context.Background(), cfg)
	if err != nil {
		t.Fatalf("runBench: %v", err)
	}
	if report.Errors.Total != 0 {
		t.Fatalf("errors = %+v", report.Errors)
	}
	if report.Throughput.Writes == 0 {
		t.Fatal("no writes completed")
	}
	if report.Binding.StaleFrames != 0 {
		t.Errorf("stale frames = %d, writes of one client reached another", report.Binding.StaleFrames)
	}
	if report.Atoms.Commits < float64(report.Throughput.Writes) {
		t.Errorf("commits = %v, want >= %d", report.Atoms.Commits, report.Throughput.Writes)
	}
	if report.LatencyMS.Max < report.LatencyMS.P50 {
		t.Errorf("latency = %+v", report.LatencyMS)
	}

	var out, summary bytes.Buffer
	writeSummary(&summary, report)
	if !strings.Contains(summary.String(), "=== atomctl bench ===") {
		t.Errorf("summary = %s", summary.String())
	}
	if err := writeReport(&out, "-", report); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if _, ok := decoded["atoms"]; !ok {
		t.Error("report missing atoms section")
	}
}
