package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/alorle/iptv-sync/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger := logging.New(log.InfoLevel, "iptv-sync")
	runner := NewRunner(RunnerOpts{})

	err := runner.command().Run(ctx, os.Args)
	stop()
	if err != nil {
		logger.Error("iptv-sync failed", "error", err)
		os.Exit(1)
	}
}
