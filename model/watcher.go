package model

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a registry from its JSON config file whenever the
// file changes, so model endpoints can be repointed without a restart.
type Watcher struct {
	path     string
	registry *Registry
	logger   *slog.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets how long to wait after a change before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher that reloads registry configuration from
// path into the given registry.
func NewWatcher(path string, registry *Registry, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:     path,
		registry: registry,
		logger:   slog.Default(),
		debounce: 200 * time.Millisecond,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the config file. It watches the containing
// directory because editors typically replace files via rename.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go w.run(ctx)

	w.logger.Info("Model registry watcher started", "path", w.path)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts of writes from the same save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Registry watcher error", "error", err)

		case <-timerC:
			timerC = nil
			w.reload()
		}
	}
}

// reload re-reads the config file and merges it into the registry.
// A broken file leaves the current registry untouched.
func (w *Watcher) reload() {
	loaded, err := LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("Registry reload failed, keeping current config",
			"path", w.path,
			"error", err)
		return
	}

	w.registry.MergeFromConfig(loaded.ToConfig())
	w.logger.Info("Model registry reloaded", "path", w.path)
}
