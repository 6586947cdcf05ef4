// Package watch re-runs ingestion when a source file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// ErrNoPaths is returned when the watcher has nothing to watch.
var ErrNoPaths = errors.New("watch: no paths to watch")

// RunFunc is invoked once per debounced burst of changes.
type RunFunc func(ctx context.Context) error

// Watcher watches a fixed set of files and invokes a RunFunc after
// changes settle. Parent directories are watched so that editors that
// replace files by rename are still seen.
type Watcher struct {
	targets  map[string]bool
	dirs     []string
	debounce time.Duration
	run      RunFunc
}

// New creates a watcher for paths. Empty paths are skipped.
func New(paths []string, debounce time.Duration, run RunFunc) (*Watcher, error) {
	w := &Watcher{
		targets:  make(map[string]bool),
		debounce: debounce,
		run:      run,
	}

	seenDir := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.targets[abs] = true

		dir := filepath.Dir(abs)
		if !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	if len(w.targets) == 0 {
		return nil, ErrNoPaths
	}
	return w, nil
}

// Run blocks until ctx is cancelled. A failed run is logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	logger.Info("watching %d files for changes", len(w.targets))

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("change: %s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timerC:
			timerC = nil
			logger.Progress("Change detected, re-ingesting...")
			if err := w.run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("re-ingestion failed: %v", err)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.targets[filepath.Clean(ev.Name)]
}
