package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/internal/logger"
	"github.com/samcharles93/mpcextract/internal/server"
	"github.com/samcharles93/mpcextract/pkg/mpc"
)

func (a *app) serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		rateLimit   float64
		burst       int
		mmap        bool
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Browse an archive over a read-only HTTP API",
		ArgsUsage: "ARCHIVE.mpc",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Float64Flag{
				Name:        "rate-limit",
				Usage:       "requests per second across all clients (0 disables)",
				Destination: &rateLimit,
			},
			&cli.IntFlag{
				Name:        "burst",
				Usage:       "rate limiter burst size",
				Destination: &burst,
			},
			&cli.BoolFlag{
				Name:        "mmap",
				Usage:       "memory-map the archive",
				Destination: &mmap,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("serve: archive path is required")
			}
			applyServeConfig(cmd, a.cfg, &addr, &rateLimit, &mmap)
			log := logger.FromContext(ctx)

			c, err := mpc.OpenWithOptions(cmd.Args().First(), mpc.OpenOptions{Mmap: mmap})
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.New(c, log, server.Options{RateLimit: rateLimit, Burst: burst}).Register(e)

			log.Info("starting server", "address", addr, "archive", c.Name(), "entries", c.EntryCount())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
