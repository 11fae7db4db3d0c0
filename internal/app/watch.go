package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/corey/acscan/internal/ports"
)

// Watch scans root once, then rescans files as w reports changes until ctx
// is done. A rescanned file reaches sink only when its content differs from
// the last scan of it. Removed files are dropped from the report store.
func (a *App) Watch(ctx context.Context, root string, w ports.Watcher, sink Sink) error {
	digests := make(map[string]uint64)
	record := func(res FileResult) error {
		if res.Report != nil && !res.Report.Truncated {
			digests[res.Report.Path] = res.Report.Digest
		}
		return sink(res)
	}
	if _, err := a.Scan(ctx, []string{root}, record); err != nil {
		return err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	// The watcher calls back from its own goroutine; changes are handled
	// one at a time here.
	changes := make(chan string, 64)
	err = w.Watch(absRoot, func(path string) {
		select {
		case changes <- path:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	a.log.Info().Str("root", absRoot).Msg("watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			if err := a.onFileChanged(ctx, root, absRoot, path, digests, sink); err != nil {
				return err
			}
		}
	}
}

// onFileChanged handles one create/modify/delete event. display is the root
// as the user gave it; reported paths are rebuilt under it.
func (a *App) onFileChanged(ctx context.Context, display, absRoot, absPath string, digests map[string]uint64, sink Sink) error {
	relPath, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return nil
	}
	opts := a.cfg.WalkOptions()
	if !opts.Recursive && filepath.Dir(relPath) != "." {
		return nil
	}
	if !opts.wantFile(filepath.Base(absPath)) {
		return nil
	}
	path := filepath.Join(display, relPath)

	info, statErr := os.Stat(absPath)
	if errors.Is(statErr, fs.ErrNotExist) {
		delete(digests, absPath)
		if a.Store != nil {
			if err := a.Store.DeleteReport(a.SetID, absPath); err != nil {
				a.log.Warn().Err(err).Str("path", path).Msg("drop report")
			}
		}
		a.log.Debug().Str("path", path).Msg("removed")
		return nil
	}
	if statErr != nil || !info.Mode().IsRegular() {
		return nil
	}

	prev, known := digests[absPath]
	if !known && a.Store != nil {
		report, err := a.Store.LoadReport(a.SetID, absPath)
		if err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("load report")
		}
		if report != nil && !report.Truncated {
			prev, known = report.Digest, true
		}
	}

	res := a.ScanFile(ctx, path)
	if res.Err != nil {
		a.log.Warn().Err(res.Err).Str("path", path).Msg("rescan failed")
		return nil
	}
	if res.Report.Truncated {
		delete(digests, absPath)
	} else {
		digests[absPath] = res.Report.Digest
		if known && prev == res.Report.Digest {
			a.log.Debug().Str("path", path).Msg("unchanged")
			return nil
		}
	}
	return sink(res)
}
