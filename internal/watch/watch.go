// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/joinql/internal/debug"
)

// DefaultDebounce is the quiet period after the last write before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a single file.
type Watcher struct {
	file     string
	callback func() error
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher for file. The directory is watched so editors that
// replace the file on save are still noticed.
func New(file string, debounce time.Duration, callback func() error) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		file:     absPath,
		callback: callback,
		debounce: debounce,
		watcher:  watcher,
	}, nil
}

// Run calls the callback once and then after every change until ctx is done.
// Callback errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.invoke()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == w.file {
				w.log().Debug("file changed", "op", event.Op.String())
				timer.Reset(w.debounce)
				debounceCh = timer.C
			}

		case <-debounceCh:
			debounceCh = nil
			w.invoke()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log().Warn("watch error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) invoke() {
	if err := w.callback(); err != nil {
		w.log().Warn("watch callback failed", "error", err)
	}
}

// log is resolved per call so a logger reconfigured by the callback is used.
func (w *Watcher) log() *slog.Logger {
	return debug.With("component", "watch", "file", w.file)
}
