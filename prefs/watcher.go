package prefs

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher notifies a callback when the file store's backing file is
// changed by another process, so a long-lived command can pick up
// session or consent flags written by a second keypilot invocation.
// Notification is best-effort: watch errors are logged and absorbed.
type Watcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	pendingMu sync.Mutex
	pending   bool
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the store file to watch.
	Path string

	// OnChange is invoked after the file changes, debounced.
	OnChange func()

	// DebounceDelay is how long to wait for further events before
	// invoking OnChange. Defaults to 100ms.
	DebounceDelay time.Duration

	// Logger for diagnostics.
	Logger *slog.Logger
}

// NewWatcher creates a watcher for the given store file.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := config.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		path:     config.Path,
		onChange: config.OnChange,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
	}, nil
}

// Start begins watching until ctx is cancelled. The store file may not
// exist yet, so the watch is placed on its parent directory and events
// are filtered by name (the file store replaces the file on write).
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.run(ctx)

	w.logger.Debug("Preference store watcher started", "path", w.path)
	return nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Preference store watch error", "error", err)
		}
	}
}

// schedule coalesces bursts of events into a single callback.
func (w *Watcher) schedule() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending {
		return
	}
	w.pending = true

	time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		w.pending = false
		w.pendingMu.Unlock()

		if w.onChange != nil {
			w.onChange()
		}
	})
}
