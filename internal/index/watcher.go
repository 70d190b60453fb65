package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the watcher waits for a burst of events on the
// document to settle before re-syncing.
const debounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is "updated" or "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the directory holding docPath and
// re-syncs the index whenever the document changes on disk, until ctx is
// cancelled. It calls cb (if non-nil) after each sync that changed the
// index, and with "deleted" when the document disappears.
//
// The directory is watched rather than the file because atomic writes
// replace the file's inode.
func Watch(ctx context.Context, db *DB, src Source, docPath string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(docPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed, syncErr := Sync(db, src, logger)
			switch {
			case syncErr != nil && missing(abs):
				logger.Warn("watcher: document missing", slog.String("path", abs))
				if cb != nil {
					cb("deleted", abs)
				}
			case syncErr != nil:
				logger.Warn("watcher: sync failed", slog.String("error", syncErr.Error()))
			case changed:
				logger.Debug("watcher: reindexed", slog.String("path", abs))
				if cb != nil {
					cb("updated", abs)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
