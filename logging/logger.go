package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLogLevel converts a string to a log.Level, defaulting to INFO for
// empty or unknown values.
func ParseLogLevel(s string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger writing to stderr with the specified level and prefix.
func New(level log.Level, prefix string) *log.Logger {
	return NewWithWriter(level, prefix, os.Stderr)
}

// NewWithWriter creates a logger with a custom output writer.
func NewWithWriter(level log.Level, prefix string, w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
}

// Discard returns a logger that drops everything. Useful as a default for
// optional logger dependencies.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Event identifies a sync lifecycle event in structured log output.
type Event string

// Event constants identify specific sync and resilience events
const (
	EventSourceSynced         Event = "source_synced"          // EventSourceSynced indicates every artifact of a source was written
	EventSourceFailed         Event = "source_failed"          // EventSourceFailed indicates a source stage failed
	EventArtifactWritten      Event = "artifact_written"       // EventArtifactWritten indicates one artifact was published
	EventCircuitBreakerChange Event = "circuit_breaker_change" // EventCircuitBreakerChange indicates circuit breaker state transition
)

// LogSourceSynced logs a fully synced source (INFO level)
func LogSourceSynced(l *log.Logger, sourceID string, artifacts int, elapsed time.Duration) {
	l.Info("Source synced",
		"event", EventSourceSynced,
		"source", sourceID,
		"artifacts", artifacts,
		"elapsed", elapsed.Round(time.Millisecond).String(),
	)
}

// LogSourceFailed logs a failed source with the stage it failed in (ERROR level)
func LogSourceFailed(l *log.Logger, sourceID, stage string, err error) {
	l.Error("Source failed",
		"event", EventSourceFailed,
		"source", sourceID,
		"stage", stage,
		"error", err.Error(),
	)
}

// LogArtifactWritten logs a published artifact (DEBUG level)
func LogArtifactWritten(l *log.Logger, identity, ext string, size int) {
	l.Debug("Artifact written",
		"event", EventArtifactWritten,
		"identity", identity,
		"ext", ext,
		"bytes", size,
	)
}

// LogCircuitBreakerChange logs a circuit breaker state change (WARN level)
func LogCircuitBreakerChange(l *log.Logger, oldState, newState, name string) {
	kv := []any{
		"event", EventCircuitBreakerChange,
		"oldState", oldState,
		"newState", newState,
	}
	if name != "" {
		kv = append(kv, "name", name)
	}
	l.Warn("Circuit breaker state changed", kv...)
}
