package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// app carries the root flags and the resolved configuration into every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	cfg Config
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "mpcextract",
		Usage:     "Extract Monkeystone MPC archives",
		ArgsUsage: "ARCHIVE.mpc",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     a.rootFlags(),
		Before:    a.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return cli.ShowAppHelp(cmd)
			}
			opts := a.defaultExtractOptions()
			return a.runExtract(ctx, cmd.Args().First(), opts)
		},
		Commands: []*cli.Command{
			a.extractCmd(),
			a.listCmd(),
			a.infoCmd(),
			a.sumCmd(),
			a.serveCmd(),
			a.versionCmd(),
		},
	}
}

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(exitCode(err))
	}
}
