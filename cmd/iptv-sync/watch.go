package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/alorle/iptv-sync/config"
)

// Watch syncs once, then again whenever the config file changes or the
// interval elapses, until the context is cancelled. Failed runs and invalid
// config edits are logged and do not stop the watch.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	path, _ := config.ResolvePath(cmd.String("config"))

	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := r.newLogger(cfg)

	run := func(ctx context.Context) {
		cfg, err := r.loadConfig(cmd)
		if err != nil {
			logger.Error("Invalid configuration, skipping run", "path", path, "error", err)
			return
		}
		if _, err := r.runSync(ctx, cfg, r.newLogger(cfg)); err != nil {
			logger.Warn("Sync finished with failures", "error", err)
		}
	}

	return r.watch(ctx, path, cmd.Duration("interval"), logger, run)
}

func (r *Runner) watch(ctx context.Context, path string, interval time.Duration, logger *log.Logger, run func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	target := filepath.Clean(path)

	run(ctx)

	debounce := time.NewTimer(0)
	<-debounce.C

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	logger.Info("Watching for changes", "path", path, "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(r.debounce)

		case <-debounce.C:
			logger.Info("Configuration changed, re-syncing", "path", path)
			run(ctx)

		case <-tick:
			logger.Debug("Interval elapsed, re-syncing")
			run(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", "error", err)
		}
	}
}
