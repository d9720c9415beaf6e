package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// Watch calls onChange after the artifact at absPath is replaced, until ctx
// is cancelled. The parent directory is watched because atomic writes swap
// the file by rename. Bursts of events collapse into one call.
func Watch(ctx context.Context, absPath string, logger *slog.Logger, onChange func()) error {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(absPath)
	name := filepath.Base(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("snapshot watcher: started", slog.String("path", absPath))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("snapshot watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			logger.Debug("snapshot watcher: artifact changed", slog.String("path", absPath))
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("snapshot watcher: error", slog.String("error", werr.Error()))
		}
	}
}
