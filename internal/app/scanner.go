package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/corey/acscan/internal/ports"
)

// errLimitReached stops a file's scan once MaxPerFile matches were seen.
var errLimitReached = errors.New("per-file match limit reached")

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path    string            // as enumerated
	Matches []ports.Match     // ascending End; nil in count-only or skipped results
	Report  *ports.FileReport // nil when Err is set
	Skipped bool              // unchanged since the stored report, not rescanned
	Err     error
}

// Sink receives results one at a time, in enumeration order.
// A non-nil error stops the run.
type Sink func(FileResult) error

// Summary totals a scan run.
type Summary struct {
	Files   int // files enumerated
	Scanned int
	Skipped int
	Failed  int // per-file errors, enumeration errors included
	Matches int
	Elapsed time.Duration
}

// Scan enumerates roots, scans every file on a bounded worker pool and hands
// each result to sink in enumeration order. Per-file failures are logged,
// counted and passed on; they do not stop the run. Scan returns early with
// the context's error on cancellation, or with the sink's error.
func (a *App) Scan(ctx context.Context, roots []string, sink Sink) (Summary, error) {
	start := time.Now()
	var sum Summary

	files, walkErrs := CollectFiles(roots, a.cfg.WalkOptions())
	for _, err := range walkErrs {
		a.log.Warn().Err(err).Msg("skip")
		sum.Failed++
	}
	sum.Files = len(files)
	a.log.Debug().Int("files", len(files)).Int("workers", a.cfg.Workers).Msg("scan started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// One buffered slot per file: workers never block on delivery and the
	// consumer below drains the slots in order.
	slots := make([]chan FileResult, len(files))
	for i := range slots {
		slots[i] = make(chan FileResult, 1)
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				slots[i] <- FileResult{Path: path, Err: err}
				continue
			}
			g.Go(func() error {
				slots[i] <- a.scanFile(ctx, path, false)
				return nil
			})
		}
	}()

	a.cfg.Progress.Start(len(files))
	var runErr error
	for i := range files {
		res := <-slots[i]
		if res.Err != nil && ctx.Err() != nil && errors.Is(res.Err, ctx.Err()) {
			runErr = ctx.Err()
			break
		}
		switch {
		case res.Err != nil:
			a.log.Warn().Err(res.Err).Str("path", res.Path).Msg("scan failed")
			sum.Failed++
		case res.Skipped:
			sum.Skipped++
			sum.Matches += res.Report.Matches
		default:
			sum.Scanned++
			sum.Matches += res.Report.Matches
		}
		if res.Report != nil {
			a.cfg.Progress.Advance(res.Report.Matches)
		} else {
			a.cfg.Progress.Advance(0)
		}
		if err := sink(res); err != nil {
			runErr = err
			break
		}
	}

	cancel()
	<-launched
	g.Wait()
	a.cfg.Progress.Finish()

	sum.Elapsed = time.Since(start)
	a.log.Debug().
		Int("scanned", sum.Scanned).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Int("matches", sum.Matches).
		Dur("elapsed", sum.Elapsed).
		Msg("scan finished")
	return sum, runErr
}

// ScanFile scans a single file regardless of any stored report.
func (a *App) ScanFile(ctx context.Context, path string) FileResult {
	return a.scanFile(ctx, path, true)
}

func (a *App) scanFile(ctx context.Context, path string, force bool) FileResult {
	res := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}
	if !info.Mode().IsRegular() {
		res.Err = fmt.Errorf("%s: not a regular file", path)
		return res
	}
	key, err := filepath.Abs(path)
	if err != nil {
		res.Err = err
		return res
	}

	if a.cfg.Incremental && !force && a.Store != nil {
		prev, err := a.Store.LoadReport(a.SetID, key)
		if err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("load report")
		} else if prev != nil && !prev.Truncated &&
			prev.Size == info.Size() && prev.ModTime == info.ModTime().UnixNano() {
			res.Report = prev
			res.Skipped = true
			return res
		}
	}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	report, matches, err := a.scanStream(ctx, f)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	report.Path = key
	report.Size = info.Size()
	report.ModTime = info.ModTime().UnixNano()
	res.Report = report
	res.Matches = matches

	if a.Store != nil {
		if err := a.Store.SaveReport(a.SetID, report); err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("save report")
		}
	}
	return res
}

// ScanReader scans r as one stream named name. Nothing is recorded.
func (a *App) ScanReader(ctx context.Context, name string, r io.Reader) FileResult {
	res := FileResult{Path: name}
	report, matches, err := a.scanStream(ctx, r)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", name, err)
		return res
	}
	report.Path = name
	res.Report = report
	res.Matches = matches
	return res
}

// scanStream runs the matcher over r, digesting the bytes as they pass.
// Size is the number of bytes read.
func (a *App) scanStream(ctx context.Context, r io.Reader) (*ports.FileReport, []ports.Match, error) {
	var matches []ports.Match
	report := &ports.FileReport{Counts: make(map[int]int)}
	emit := func(m ports.Match) error {
		report.Matches++
		report.Counts[m.Keyword]++
		if !a.cfg.CountOnly {
			matches = append(matches, m)
		}
		if a.cfg.MaxPerFile > 0 && report.Matches >= a.cfg.MaxPerFile {
			return errLimitReached
		}
		return nil
	}

	h := xxhash.New()
	cr := &countingReader{r: &ctxReader{ctx: ctx, r: r}}
	err := a.Matcher.Scan(io.TeeReader(cr, h), emit)
	switch {
	case errors.Is(err, errLimitReached):
		report.Truncated = true
	case err != nil:
		return nil, nil, err
	}
	report.Size = cr.n
	report.Digest = h.Sum64()
	report.ScannedAt = time.Now().Unix()
	return report, matches, nil
}

// ctxReader fails reads once ctx is done so a long file scan stops promptly.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
