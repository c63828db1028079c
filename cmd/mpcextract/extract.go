package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/internal/logger"
	"github.com/samcharles93/mpcextract/internal/unpack"
	"github.com/samcharles93/mpcextract/pkg/mpc"
)

type extractOptions struct {
	outputDir string
	jobs      int
	keepGoing bool
	mmap      bool
	digest    bool
	manifest  string
	patterns  []string
}

// defaultExtractOptions is what a bare `mpcextract ARCHIVE` uses.
func (a *app) defaultExtractOptions() extractOptions {
	opts := extractOptions{outputDir: ".", jobs: 1}
	if a.cfg.OutputDir != "" {
		opts.outputDir = a.cfg.OutputDir
	}
	if a.cfg.Jobs != nil {
		opts.jobs = *a.cfg.Jobs
	}
	if a.cfg.Mmap != nil {
		opts.mmap = *a.cfg.Mmap
	}
	if a.cfg.KeepGoing != nil {
		opts.keepGoing = *a.cfg.KeepGoing
	}
	return opts
}

func (a *app) extractCmd() *cli.Command {
	var opts extractOptions

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract entries, optionally only those matching glob patterns",
		ArgsUsage: "ARCHIVE.mpc [PATTERN ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output directory (or $" + envOutputDir + ")",
				Value:       ".",
				Destination: &opts.outputDir,
			},
			&cli.IntFlag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "number of entries extracted concurrently (or $" + envJobs + ")",
				Value:       1,
				Destination: &opts.jobs,
			},
			&cli.BoolFlag{
				Name:        "keep-going",
				Aliases:     []string{"k"},
				Usage:       "continue with the remaining entries after a failure",
				Destination: &opts.keepGoing,
			},
			&cli.BoolFlag{
				Name:        "mmap",
				Usage:       "memory-map the archive instead of reading it through the file",
				Destination: &opts.mmap,
			},
			&cli.BoolFlag{
				Name:        "digest",
				Usage:       "record the BLAKE2b-256 of every extracted file in the manifest",
				Destination: &opts.digest,
			},
			&cli.StringFlag{
				Name:        "manifest",
				Usage:       "write a JSON report of the run to this file",
				Destination: &opts.manifest,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errors.New("extract: archive path is required")
			}
			applyExtractConfig(cmd, a.cfg, &opts)
			opts.patterns = cmd.Args().Tail()
			return a.runExtract(ctx, cmd.Args().First(), opts)
		},
	}
}

func (a *app) runExtract(ctx context.Context, archive string, opts extractOptions) error {
	log := logger.FromContext(ctx)

	c, err := mpc.OpenWithOptions(archive, mpc.OpenOptions{Mmap: opts.mmap})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	x, err := mpc.NewDirExtractor(opts.outputDir)
	if err != nil {
		return err
	}

	selected, err := unpack.Select(c.Entries(), opts.patterns)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "Extracting %d files:\n", len(selected))

	rep, err := unpack.Run(ctx, c, x, unpack.Options{
		Patterns:  opts.patterns,
		Jobs:      opts.jobs,
		KeepGoing: opts.keepGoing,
		Digest:    opts.digest,
		Progress: func(r unpack.Result) {
			if r.Err != nil {
				_, _ = fmt.Fprintf(a.stdout, " - %s: FAILED\n", r.Name)
				return
			}
			_, _ = fmt.Fprintf(a.stdout, " - %s: OK\n", r.Name)
		},
	})

	if opts.manifest != "" && rep != nil {
		if merr := writeManifest(opts.manifest, rep); merr != nil {
			log.Error("manifest not written", "path", opts.manifest, "error", merr)
			if err == nil {
				err = merr
			}
		}
	}
	if err != nil {
		if rep != nil && opts.keepGoing && rep.Failed > 0 {
			_, _ = fmt.Fprintf(a.stdout, "Done with %d of %d files failed\n", rep.Failed, rep.Selected)
		}
		return err
	}

	_, _ = fmt.Fprintln(a.stdout, "Done")
	return nil
}

func writeManifest(path string, rep *unpack.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return rep.WriteJSON(f)
}
