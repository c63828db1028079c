package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/internal/logger"
)

func (a *app) rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default $XDG_CONFIG_HOME/mpcextract/config.yaml, or $" + envConfig + ")",
			Destination: &a.configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &a.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text); pretty when stderr is a terminal",
			Destination: &a.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &a.debug,
		},
	}
}

// before loads the configuration and installs the logger for every command.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(a.configFile)
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	applyLogConfig(cmd, cfg, &a.logLevel, &a.logFormat)

	level := logger.ParseLevel(a.logLevel)
	if a.debug {
		level = slog.LevelDebug
	}
	format := a.logFormat
	if format == "" {
		format = "text"
		if a.stderr == os.Stderr && stderrIsTTY() {
			format = "pretty"
		}
	}
	return logger.WithContext(ctx, logger.FromFormat(format, level, a.stderr)), nil
}

// stderrIsTTY is a small seam for tests.
var stderrIsTTY = isTTY

func isTTY() bool {
	st, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
