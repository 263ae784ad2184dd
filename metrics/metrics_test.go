package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSourceOutcomes(t *testing.T) {
	m := New()
	at := time.Unix(1700000000, 0)

	m.RecordSourceSuccess("aptv", at)
	m.RecordSourceSuccess("fmml_ipv6_sh", at)
	m.RecordSourceFailure("broken", "fetch")

	if got := testutil.ToFloat64(m.SourcesTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SourcesTotal.WithLabelValues(ResultFailure)); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("broken", "fetch")); got != 1 {
		t.Errorf("stage failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess.WithLabelValues("aptv")); got != 1700000000 {
		t.Errorf("last success = %v, want 1700000000", got)
	}
}

func TestRecordBlocks(t *testing.T) {
	m := New()
	m.RecordBlocks("fmml", 3, 5, 2)
	m.RecordBlocks("fmml", 1, 0, 0)

	tests := []struct {
		outcome  string
		expected float64
	}{
		{BlockKept, 4},
		{BlockDropped, 5},
		{BlockRenamed, 2},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			if got := testutil.ToFloat64(m.BlocksTotal.WithLabelValues("fmml", tt.outcome)); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.outcome, got, tt.expected)
			}
		})
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	tests := []struct {
		state    string
		expected float64
	}{
		{"CLOSED", 0},
		{"OPEN", 1},
		{"HALF-OPEN", 2},
	}

	m := New()
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			m.SetCircuitBreakerState("example.com", tt.state)
			if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("example.com")); got != tt.expected {
				t.Errorf("state %s = %v, want %v", tt.state, got, tt.expected)
			}
		})
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordSourceFailure("x", "write")

	if got := testutil.ToFloat64(b.SourcesTotal.WithLabelValues(ResultFailure)); got != 0 {
		t.Errorf("expected separate registries, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordSourceSuccess("aptv", time.Now())
	m.ObserveFetch("aptv", 250*time.Millisecond)
	m.SetArtifactBytes("aptv", ".txt", 1024)
	m.SetCircuitBreakerState("raw.githubusercontent.com", "CLOSED")

	path := filepath.Join(t.TempDir(), "iptv_sync.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	output := string(data)

	expectedMetrics := []string{
		"iptv_sync_sources_total",
		"iptv_sync_fetch_duration_seconds",
		"iptv_sync_artifact_bytes",
		"iptv_sync_last_success_timestamp_seconds",
		"iptv_sync_circuit_breaker_state",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(output, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}
}

func TestWriteTextfile_InvalidPath(t *testing.T) {
	m := New()
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}
