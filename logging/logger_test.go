package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"DEBUG", log.DebugLevel},
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"info", log.InfoLevel},
		{"WARN", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"ERROR", log.ErrorLevel},
		{" error ", log.ErrorLevel},
		{"invalid", log.InfoLevel}, // default to INFO
		{"", log.InfoLevel},        // default to INFO
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLogLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLoggerFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     log.Level
		logFunc      func(*log.Logger)
		shouldAppear bool
	}{
		{
			name:         "DEBUG message with DEBUG level",
			logLevel:     log.DebugLevel,
			logFunc:      func(l *log.Logger) { l.Debug("test") },
			shouldAppear: true,
		},
		{
			name:         "DEBUG message with INFO level",
			logLevel:     log.InfoLevel,
			logFunc:      func(l *log.Logger) { l.Debug("test") },
			shouldAppear: false,
		},
		{
			name:         "WARN message with ERROR level",
			logLevel:     log.ErrorLevel,
			logFunc:      func(l *log.Logger) { l.Warn("test") },
			shouldAppear: false,
		},
		{
			name:         "ERROR message with DEBUG level",
			logLevel:     log.DebugLevel,
			logFunc:      func(l *log.Logger) { l.Error("test") },
			shouldAppear: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewWithWriter(tt.logLevel, "", buf)

			tt.logFunc(logger)

			hasOutput := buf.Len() > 0
			if hasOutput != tt.shouldAppear {
				t.Errorf("Log output presence = %v, want %v. Output: %q", hasOutput, tt.shouldAppear, buf.String())
			}
		})
	}
}

func TestLoggerPrefix(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithWriter(log.InfoLevel, "iptv-sync", buf)

	logger.Info("test message")

	if !strings.Contains(buf.String(), "iptv-sync") {
		t.Errorf("Output missing prefix: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	if logger.GetLevel() != log.FatalLevel {
		t.Errorf("Discard level = %v, want fatal", logger.GetLevel())
	}
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(*log.Logger)
		contains []string
	}{
		{
			name:     "source synced",
			logFunc:  func(l *log.Logger) { LogSourceSynced(l, "aptv", 2, 1500*time.Millisecond) },
			contains: []string{"Source synced", string(EventSourceSynced), "aptv", "artifacts=2", "1.5s"},
		},
		{
			name:     "source failed",
			logFunc:  func(l *log.Logger) { LogSourceFailed(l, "fmml", "fetch", errors.New("status 404")) },
			contains: []string{"Source failed", string(EventSourceFailed), "fmml", "stage=fetch", "status 404"},
		},
		{
			name:     "artifact written",
			logFunc:  func(l *log.Logger) { LogArtifactWritten(l, "fmml", ".txt", 42) },
			contains: []string{"Artifact written", "identity=fmml", "ext=.txt", "bytes=42"},
		},
		{
			name:     "circuit breaker change",
			logFunc:  func(l *log.Logger) { LogCircuitBreakerChange(l, "CLOSED", "OPEN", "example.com") },
			contains: []string{"Circuit breaker state changed", "oldState=CLOSED", "newState=OPEN", "name=example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(NewWithWriter(log.DebugLevel, "", buf))

			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output %q missing %q", output, want)
				}
			}
		})
	}
}
