package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs once, then again whenever the working-copy tree has been quiet
// for debounce after a change. onRun receives each completed report. Failed
// or busy runs are logged and retried on the next change. Watch returns nil
// when ctx is cancelled.
func (r *Reconciler) Watch(ctx context.Context, opts Options, debounce time.Duration, onRun func(*Report)) error {
	if debounce <= 0 {
		debounce = r.cfg.WatchDebounceDuration()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, r.cfg.WorkingPath); err != nil {
		return fmt.Errorf("watch %s: %w", r.cfg.WorkingPath, err)
	}

	logger := r.logger.With("watch", r.cfg.WorkingPath)
	logger.Info("watching working copy", "debounce", debounce)

	runOnce := func() {
		report, err := r.Run(ctx, opts)
		switch {
		case err == nil:
			if onRun != nil {
				onRun(report)
			}
		case errors.Is(err, ErrRunInProgress):
			logger.Warn("reconcile run skipped", "error", err)
		case ctx.Err() == nil:
			logger.Error("reconcile run failed", "error", err)
		}
	}

	runOnce()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New directories are not watched until added.
				if err := addTree(watcher, event.Name); err != nil {
					logger.Debug("watch new path", "path", event.Name, "error", err)
				}
			}
			logger.Debug("working copy changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			runOnce()
		}
	}
}

// addTree adds root and every directory beneath it. A root that is a plain
// file is ignored.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(p)
	})
}
