package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source results as recorded in iptv_sync_sources_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Block outcomes as recorded in iptv_sync_blocks_total.
const (
	BlockKept    = "kept"
	BlockDropped = "dropped"
	BlockRenamed = "renamed"
)

// Metrics groups the collectors of one sync process on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	// SourcesTotal counts synced sources by result
	SourcesTotal *prometheus.CounterVec

	// StageFailures counts source failures by pipeline stage
	StageFailures *prometheus.CounterVec

	// BlocksTotal counts genre blocks by source and filter outcome
	BlocksTotal *prometheus.CounterVec

	// FetchDuration tracks how long each source retrieval took
	FetchDuration *prometheus.HistogramVec

	// ArtifactBytes tracks the size of the last published artifact
	ArtifactBytes *prometheus.GaugeVec

	// LastSuccess tracks the unix time of the last fully synced run per source
	LastSuccess *prometheus.GaugeVec

	// CircuitBreakerState tracks the current state of per-host circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates the sync collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourcesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iptv_sync_sources_total",
			Help: "Total number of processed sources by result",
		}, []string{"result"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iptv_sync_stage_failures_total",
			Help: "Total number of source failures by pipeline stage",
		}, []string{"source", "stage"}),
		BlocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iptv_sync_blocks_total",
			Help: "Total number of genre blocks by filter outcome",
		}, []string{"source", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iptv_sync_fetch_duration_seconds",
			Help:    "Duration of playlist retrievals",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		ArtifactBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iptv_sync_artifact_bytes",
			Help: "Size of the last published artifact",
		}, []string{"identity", "ext"}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iptv_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful sync per source",
		}, []string{"source"}),
		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iptv_sync_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
		}, []string{"host"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSourceSuccess counts a synced source and stamps its last success time
func (m *Metrics) RecordSourceSuccess(sourceID string, at time.Time) {
	m.SourcesTotal.WithLabelValues(ResultSuccess).Inc()
	m.LastSuccess.WithLabelValues(sourceID).Set(float64(at.Unix()))
}

// RecordSourceFailure counts a failed source and the stage it failed in
func (m *Metrics) RecordSourceFailure(sourceID, stage string) {
	m.SourcesTotal.WithLabelValues(ResultFailure).Inc()
	m.StageFailures.WithLabelValues(sourceID, stage).Inc()
}

// RecordBlocks adds filter outcome counts for a source
func (m *Metrics) RecordBlocks(sourceID string, kept, dropped, renamed int) {
	m.BlocksTotal.WithLabelValues(sourceID, BlockKept).Add(float64(kept))
	m.BlocksTotal.WithLabelValues(sourceID, BlockDropped).Add(float64(dropped))
	m.BlocksTotal.WithLabelValues(sourceID, BlockRenamed).Add(float64(renamed))
}

// ObserveFetch records the duration of one retrieval
func (m *Metrics) ObserveFetch(sourceID string, d time.Duration) {
	m.FetchDuration.WithLabelValues(sourceID).Observe(d.Seconds())
}

// SetArtifactBytes records the size of a published artifact
func (m *Metrics) SetArtifactBytes(identity, ext string, size int) {
	m.ArtifactBytes.WithLabelValues(identity, ext).Set(float64(size))
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func (m *Metrics) SetCircuitBreakerState(host, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	m.CircuitBreakerState.WithLabelValues(host).Set(value)
}

// WriteTextfile writes every collector in the node-exporter textfile format.
// The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
