package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the daemon config file and reloads it on change.
// Invalid configs are reported and the last valid config is kept.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	path    string
	current *DaemonConfig
	watcher *fsnotify.Watcher

	onReload func(cfg *DaemonConfig)
	onError  func(err error)

	done    chan struct{}
	running bool
}

// NewWatcher creates a config watcher for path, starting from initial.
func NewWatcher(path string, initial *DaemonConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:  logger,
		path:    path,
		current: initial,
	}
}

// SetReloadCallback sets the callback invoked with each valid reloaded config.
func (w *Watcher) SetReloadCallback(callback func(cfg *DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback invoked when a reload fails.
func (w *Watcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Current returns the last valid configuration.
func (w *Watcher) Current() *DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching the config file. The containing directory is
// watched so editors that replace the file are handled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	w.running = true

	go w.watch(ctx, fw, w.done)

	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// Stop stops watching the config file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	w.logger.Debug("config watcher stopped")
	return w.watcher.Close()
}

func (w *Watcher) watch(ctx context.Context, fw *fsnotify.Watcher, done <-chan struct{}) {
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

// reload loads and validates the config file and notifies callbacks.
func (w *Watcher) reload() {
	w.logger.Debug("config file changed", "path", w.path)

	cfg, err := LoadDaemonConfigFile(w.path)

	w.mu.Lock()
	reloadCallback := w.onReload
	errorCallback := w.onError
	if err == nil {
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.logger.Info("config reloaded successfully")
	if reloadCallback != nil {
		reloadCallback(cfg)
	}
}
