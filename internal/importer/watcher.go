package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the import root and keeps the
// store in sync until ctx is cancelled. Events are debounced: a burst
// of writes triggers one Sync after the quiet period, which also covers
// renames without per-event bookkeeping.
//
// New directories created at runtime are added to the watch list.
func (im *Importer) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, im.root); err != nil {
		return err
	}

	im.log.Info("watcher: started", slog.String("root", im.root))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(debounce)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			im.log.Info("watcher: stopped")
			return nil

		case <-syncCh:
			if err := im.Sync(); err != nil {
				im.log.Warn("watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						im.log.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleSync()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			scheduleSync()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
