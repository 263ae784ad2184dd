package main

import "github.com/urfave/cli/v3"

// globalFlags are shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (.yaml, .yml or .toml)",
			Sources: cli.EnvVars("IPTV_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory artifacts are written to",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this textfile after each run",
		},
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Fetch, normalize and filter every source once (default)",
		Action: r.Sync,
	}
}

func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Validate the configuration and list the sources",
		Action: r.Check,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Sync now and again whenever the configuration file changes",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Also re-sync periodically (0 disables)",
				Value: 0,
			},
		},
		Action: r.Watch,
	}
}
