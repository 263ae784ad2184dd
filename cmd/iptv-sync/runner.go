package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/alorle/iptv-sync/circuitbreaker"
	"github.com/alorle/iptv-sync/config"
	"github.com/alorle/iptv-sync/internal/adapter/driven"
	"github.com/alorle/iptv-sync/internal/application"
	"github.com/alorle/iptv-sync/internal/report"
	"github.com/alorle/iptv-sync/logging"
	"github.com/alorle/iptv-sync/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// Runner holds the dependencies of the CLI commands and provides one method per command action.
type Runner struct {
	httpClient *http.Client
	output     io.Writer
	logOutput  io.Writer
	debounce   time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// HTTPClient overrides the client built from the fetch settings (optional)
	HTTPClient *http.Client
	// Output receives reports and command output. Defaults to stdout.
	Output io.Writer
	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer
	// Debounce is how long watch waits for config writes to settle
	Debounce time.Duration
}

// NewRunner creates a new Runner with the provided options
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	return &Runner{
		httpClient: opts.HTTPClient,
		output:     opts.Output,
		logOutput:  opts.LogOutput,
		debounce:   opts.Debounce,
	}
}

func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:     "iptv-sync",
		Usage:    "Fetch IPTV playlists, normalize and filter their genres, and publish the results",
		Version:  version,
		Flags:    globalFlags(),
		Action:   r.Sync,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, checkCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig loads the config file and applies command line overrides on top
// of the file and environment settings.
func (r *Runner) loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("output") {
		cfg.Output.Dir = cmd.String("output")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = strings.ToUpper(cmd.String("log-level"))
	}
	if cmd.IsSet("metrics-file") {
		cfg.Metrics.TextfilePath = cmd.String("metrics-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Runner) newLogger(cfg *config.Config) *log.Logger {
	return logging.NewWithWriter(logging.ParseLogLevel(cfg.Log.Level), "iptv-sync", r.logOutput)
}

// runSync wires one sync run from cfg, renders its report and exports metrics.
// The returned error is non-nil when any source failed.
func (r *Runner) runSync(ctx context.Context, cfg *config.Config, logger *log.Logger) (application.Report, error) {
	sources, err := cfg.PlaylistSources()
	if err != nil {
		return application.Report{}, err
	}

	m := metrics.New()
	breakers := circuitbreaker.NewGroup(circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          cfg.Breaker.Timeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
		Logger:           logger,
		OnStateChange: func(host string, _, to circuitbreaker.State) {
			m.SetCircuitBreakerState(host, to.String())
		},
	})

	fetcher := driven.NewPlaylistHTTPFetcher(driven.PlaylistHTTPFetcherConfig{
		Client:    r.httpClient,
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		RateLimit: cfg.Fetch.RateLimit,
		Breakers:  breakers,
	})
	writer := driven.NewArtifactFileWriter(cfg.Output.Dir)

	service := application.NewSyncService(fetcher, writer,
		application.WithLogger(logger),
		application.WithMetrics(m),
	)

	rep := service.Sync(ctx, sources)

	if err := report.Render(r.output, rep); err != nil {
		logger.Warn("Failed to render report", "error", err)
	}

	if path := cfg.Metrics.TextfilePath; path != "" {
		for host, state := range breakers.States() {
			m.SetCircuitBreakerState(host, state.String())
		}
		if err := m.WriteTextfile(path); err != nil {
			logger.Error("Failed to export metrics", "path", path, "error", err)
		} else {
			logger.Debug("Metrics exported", "path", path)
		}
	}

	if failed := rep.Failed(); len(failed) > 0 {
		return rep, fmt.Errorf("%d of %d sources failed: %w", len(failed), len(rep.Results), rep.Err())
	}
	return rep, nil
}

// Sync runs one sync over every configured source
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	_, err = r.runSync(ctx, cfg, r.newLogger(cfg))
	return err
}

// Check validates the configuration and prints the effective settings
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Print(r.output)
	_, err = fmt.Fprintln(r.output, "configuration OK")
	return err
}
