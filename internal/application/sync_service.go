package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/alorle/iptv-sync/internal/playlist"
	"github.com/alorle/iptv-sync/internal/port/driven"
	"github.com/alorle/iptv-sync/logging"
	"github.com/alorle/iptv-sync/metrics"
)

// Stage names the pipeline step a source failed in.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageFilter    Stage = "filter"
	StageWrite     Stage = "write"
)

// ErrEmptyDocument is returned when a stage produces a document with no content.
// Such documents are never published.
var ErrEmptyDocument = errors.New("document is empty")

// SourceError reports the source and stage a sync failed in.
// Identity and Ext are set for write failures only.
type SourceError struct {
	SourceID string
	Stage    Stage
	Identity string
	Ext      string
	Err      error
}

func (e *SourceError) Error() string {
	if e.Stage == StageWrite {
		return fmt.Sprintf("source %s: %s %s%s: %v", e.SourceID, e.Stage, e.Identity, e.Ext, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %v", e.SourceID, e.Stage, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Artifact is one published document.
type Artifact struct {
	Identity string
	Ext      string
	Bytes    int
}

// Name returns the artifact file name, e.g. "fmml.txt".
func (a Artifact) Name() string {
	return a.Identity + a.Ext
}

// SourceResult is the outcome of syncing one source.
// Artifacts lists what was written, even when a later write failed.
type SourceResult struct {
	Source    playlist.Source
	Artifacts []Artifact
	Stats     playlist.FilterStats
	Elapsed   time.Duration
	Err       error
}

// Stage returns the failed stage, or "" for a successful source.
func (r SourceResult) Stage() Stage {
	var se *SourceError
	if errors.As(r.Err, &se) {
		return se.Stage
	}
	return ""
}

// Report is the outcome of one sync run, with results in declaration order.
type Report struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Elapsed   time.Duration
	Results   []SourceResult
}

// Failed returns the results of sources that did not sync completely.
func (r Report) Failed() []SourceResult {
	var failed []SourceResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of every failed source, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

// SyncService drives each source through fetch, normalize, filter and write.
type SyncService struct {
	fetcher driven.PlaylistFetcher
	writer  driven.ArtifactWriter
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// SyncOption configures optional SyncService dependencies.
type SyncOption func(*SyncService)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *log.Logger) SyncOption {
	return func(s *SyncService) { s.logger = l }
}

// WithMetrics enables metric recording.
func WithMetrics(m *metrics.Metrics) SyncOption {
	return func(s *SyncService) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

// NewSyncService creates a new sync service with the required dependencies.
func NewSyncService(fetcher driven.PlaylistFetcher, writer driven.ArtifactWriter, opts ...SyncOption) *SyncService {
	s := &SyncService{
		fetcher: fetcher,
		writer:  writer,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync processes sources sequentially in declaration order.
// A failing source is recorded in the report and does not stop the others.
func (s *SyncService) Sync(ctx context.Context, sources []playlist.Source) Report {
	report := Report{
		RunID:     uuid.New(),
		StartedAt: s.now(),
		Results:   make([]SourceResult, 0, len(sources)),
	}
	runLog := s.logger.With("run", report.RunID.String())
	runLog.Info("Sync started", "sources", len(sources))

	for _, src := range sources {
		res := s.syncSource(ctx, src, runLog.With("source", src.ID))
		report.Results = append(report.Results, res)
	}

	report.Elapsed = s.now().Sub(report.StartedAt)
	runLog.Info("Sync finished",
		"sources", len(report.Results),
		"failed", len(report.Failed()),
		"elapsed", report.Elapsed.Round(time.Millisecond).String(),
	)
	return report
}

func (s *SyncService) syncSource(ctx context.Context, src playlist.Source, logger *log.Logger) SourceResult {
	start := s.now()
	res := SourceResult{Source: src}

	fail := func(se *SourceError) SourceResult {
		se.SourceID = src.ID
		res.Err = se
		res.Elapsed = s.now().Sub(start)
		logging.LogSourceFailed(logger, src.ID, string(se.Stage), se.Err)
		if s.metrics != nil {
			s.metrics.RecordSourceFailure(src.ID, string(se.Stage))
		}
		return res
	}

	logger.Debug("Fetching source", "url", src.URL, "dialect", src.Dialect)
	raw, err := s.fetcher.FetchText(ctx, src.URL)
	if s.metrics != nil {
		s.metrics.ObserveFetch(src.ID, s.now().Sub(start))
	}
	if err != nil {
		return fail(&SourceError{Stage: StageFetch, Err: err})
	}
	if strings.TrimSpace(raw) == "" {
		return fail(&SourceError{Stage: StageFetch, Err: ErrEmptyDocument})
	}

	canonical, err := playlist.Normalize(src.Dialect, raw)
	if err != nil {
		return fail(&SourceError{Stage: StageNormalize, Err: err})
	}
	if strings.TrimSpace(canonical) == "" {
		return fail(&SourceError{Stage: StageNormalize, Err: ErrEmptyDocument})
	}

	filtered, stats := playlist.FilterWithStats(canonical, src.Policy)
	res.Stats = stats
	if s.metrics != nil {
		s.metrics.RecordBlocks(src.ID, stats.Kept, stats.Dropped, stats.Renamed)
	}
	logger.Debug("Filtered genres", "kept", stats.Kept, "dropped", stats.Dropped, "renamed", stats.Renamed)
	if strings.TrimSpace(filtered) == "" {
		return fail(&SourceError{Stage: StageFilter, Err: ErrEmptyDocument})
	}

	for _, e := range planEmissions(src, raw, filtered) {
		if err := s.writer.WriteArtifact(ctx, e.Identity, e.Ext, e.content); err != nil {
			return fail(&SourceError{Stage: StageWrite, Identity: e.Identity, Ext: e.Ext, Err: err})
		}
		res.Artifacts = append(res.Artifacts, e.Artifact)
		logging.LogArtifactWritten(logger, e.Identity, e.Ext, e.Bytes)
		if s.metrics != nil {
			s.metrics.SetArtifactBytes(e.Identity, e.Ext, e.Bytes)
		}
	}

	res.Elapsed = s.now().Sub(start)
	logging.LogSourceSynced(logger, src.ID, len(res.Artifacts), res.Elapsed)
	if s.metrics != nil {
		s.metrics.RecordSourceSuccess(src.ID, s.now())
	}
	return res
}

type emission struct {
	Artifact
	content string
}

// planEmissions lists every artifact of a source in write order: for each
// identity the filtered canonical document, then the raw native document
// when the dialect has one.
func planEmissions(src playlist.Source, raw, filtered string) []emission {
	nativeExt := src.Dialect.NativeExt()

	var plan []emission
	for _, identity := range src.Identities() {
		plan = append(plan, emission{
			Artifact: Artifact{Identity: identity, Ext: playlist.CanonicalExt, Bytes: len(filtered)},
			content:  filtered,
		})
		if nativeExt != "" {
			plan = append(plan, emission{
				Artifact: Artifact{Identity: identity, Ext: nativeExt, Bytes: len(raw)},
				content:  raw,
			})
		}
	}
	return plan
}
