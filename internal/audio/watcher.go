package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"
)

// Watcher polls sound files and drops stale decoded buffers when a file
// is replaced, so edited sounds play without restarting the daemon.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *Player

	// Watched paths with their last modification times
	watched map[string]time.Time

	pollInterval time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		player:       player,
		watched:      make(map[string]time.Time),
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch adds a path to the watch list.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	w.mu.Lock()
	w.watched[path] = modTime
	w.mu.Unlock()
}

// Unwatch removes a path from the watch list.
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, path)
}

// Start begins polling watched files.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("sound watcher started", "interval", interval)
	return nil
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("sound watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges invalidates cached buffers for modified files and
// returns the paths that changed.
func (w *Watcher) checkForChanges() []string {
	w.mu.RLock()
	paths := make(map[string]time.Time, len(w.watched))
	maps.Copy(paths, w.watched)
	w.mu.RUnlock()

	var changed []string
	for path, last := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.ModTime().After(last) {
			continue
		}

		w.mu.Lock()
		w.watched[path] = info.ModTime()
		w.mu.Unlock()

		w.logger.Debug("sound file changed, invalidating cache", "path", path)
		if w.player != nil {
			w.player.Invalidate(path)
		}
		changed = append(changed, path)
	}
	return changed
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
