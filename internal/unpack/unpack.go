// Package unpack drives extraction of a whole archive: selection, ordering,
// optional parallelism, progress reporting and the JSON manifest.
package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/mpcextract/internal/digest"
	"github.com/samcharles93/mpcextract/internal/logger"
	"github.com/samcharles93/mpcextract/pkg/mpc"
)

// Options controls a run. The zero value extracts everything sequentially and
// stops at the first failure.
type Options struct {
	// Patterns are path.Match globs against the sanitized entry name.
	// Empty selects every entry.
	Patterns []string

	// Jobs is the number of concurrent extractions. Values below 2 run
	// sequentially in directory order.
	Jobs int

	// KeepGoing continues with the remaining entries after a failure.
	KeepGoing bool

	// Digest records the BLAKE2b-256 of each written file.
	Digest bool

	// Progress, if set, is called once per finished entry. Calls never overlap.
	Progress func(Result)
}

// Result is the outcome of one entry.
type Result struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Path     string        `json:"path,omitempty"`
	Offset   uint32        `json:"offset"`
	Length   uint32        `json:"length"`
	Digest   string        `json:"blake2b,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Report summarises a run.
type Report struct {
	RunID     string    `json:"run_id"`
	Archive   string    `json:"archive"`
	Entries   int       `json:"entries"`
	Selected  int       `json:"selected"`
	Extracted int       `json:"extracted"`
	Failed    int       `json:"failed"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Results   []Result  `json:"results"`
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Select returns the entries matching patterns in directory order. Entries
// whose names cannot be sanitized are kept so the extractor reports them.
func Select(entries []mpc.Entry, patterns []string) ([]mpc.Entry, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}
	if len(patterns) == 0 {
		return entries, nil
	}

	out := make([]mpc.Entry, 0, len(entries))
	for _, e := range entries {
		name, err := mpc.SafeName(e.Name)
		if err != nil {
			name = e.Name
		}
		for _, p := range patterns {
			if ok, _ := path.Match(p, name); ok {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// Run extracts the selected entries of c with x. The returned error is the
// first extraction failure (an *mpc.Error), even when KeepGoing let the run
// finish; the report is returned in every case except a bad pattern.
func Run(ctx context.Context, c *mpc.Container, x *mpc.Extractor, opts Options) (*Report, error) {
	selected, err := Select(c.Entries(), opts.Patterns)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:    uuid.NewString(),
		Archive:  c.Name(),
		Entries:  c.EntryCount(),
		Selected: len(selected),
		Started:  time.Now().UTC(),
		Results:  make([]Result, len(selected)),
	}
	log := logger.FromContext(ctx).With("run_id", rep.RunID)
	log.Debug("extraction started", "archive", c.Name(), "entries", c.EntryCount(), "selected", len(selected), "jobs", opts.Jobs)

	r := &runner{c: c, x: x, opts: opts, log: log, rep: rep, done: make([]bool, len(selected))}
	if opts.Jobs > 1 {
		err = r.parallel(ctx, selected)
	} else {
		err = r.sequential(ctx, selected)
	}

	// Entries never attempted after an abort are left out of the report.
	results := rep.Results[:0]
	for i, res := range rep.Results {
		if r.done[i] {
			results = append(results, res)
		}
	}
	rep.Results = results
	rep.Finished = time.Now().UTC()
	for _, res := range rep.Results {
		switch {
		case res.Err != nil:
			rep.Failed++
		case res.Path != "":
			rep.Extracted++
		}
	}
	log.Info("extraction finished",
		"extracted", rep.Extracted, "failed", rep.Failed,
		"elapsed", rep.Finished.Sub(rep.Started))
	return rep, err
}

type runner struct {
	c    *mpc.Container
	x    *mpc.Extractor
	opts Options
	log  logger.Logger
	rep  *Report

	mu       sync.Mutex
	done     []bool
	firstErr error
}

func (r *runner) sequential(ctx context.Context, entries []mpc.Entry) error {
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.one(i, e); err != nil && !r.opts.KeepGoing {
			return err
		}
	}
	return r.firstErr
}

func (r *runner) parallel(ctx context.Context, entries []mpc.Entry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			if err := r.one(i, e); err != nil && !r.opts.KeepGoing {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if r.firstErr != nil {
		return r.firstErr
	}
	return ctx.Err()
}

// one extracts a single entry and records its result at slot i.
func (r *runner) one(i int, e mpc.Entry) error {
	start := time.Now()
	res := Result{Index: e.Index, Name: e.Name, Offset: e.Offset, Length: e.Length}

	name, err := r.x.Extract(r.c, e)
	if err == nil && r.opts.Digest {
		res.Digest, err = digest.File(r.x.Fs(), name)
	}
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		r.log.Warn("entry failed", "index", e.Index, "name", e.Name, "kind", mpc.KindOf(err).String(), "error", err)
	} else {
		res.Path = name
		r.log.Debug("entry extracted", "index", e.Index, "name", name, "bytes", e.Length, "elapsed", res.Duration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rep.Results[i] = res
	r.done[i] = true
	if err != nil && r.firstErr == nil {
		r.firstErr = err
	}
	if r.opts.Progress != nil {
		r.opts.Progress(res)
	}
	return err
}

// Failures returns the failed results.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every failure of the report, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
