package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StateWatcher watches the shared state file and reports each new state.
type StateWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	logger   *slog.Logger
	onChange func(state *SharedState)
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewStateWatcher creates a watcher for the state file at filePath.
func NewStateWatcher(filePath string, onChange func(state *SharedState), logger *slog.Logger) (*StateWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &StateWatcher{
		watcher:  watcher,
		filePath: filePath,
		logger:   logger,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the file for changes.
func (sw *StateWatcher) Start() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.running {
		return nil
	}

	// Watch the directory containing the file (more reliable for atomic writes)
	dir := filepath.Dir(sw.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := sw.watcher.Add(dir); err != nil {
		return err
	}

	sw.running = true
	go sw.watch()
	return nil
}

func (sw *StateWatcher) watch() {
	filename := filepath.Base(sw.filePath)

	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				state, err := LoadSharedStateFile(sw.filePath)
				if err != nil {
					sw.logger.Warn("failed to reload state file", "path", sw.filePath, "error", err)
					continue
				}
				sw.logger.Debug("state file changed", "path", sw.filePath, "silent", state.Silent)
				if sw.onChange != nil {
					sw.onChange(state)
				}
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("state watcher error", "error", err)

		case <-sw.done:
			return
		}
	}
}

// Stop stops the state watcher.
func (sw *StateWatcher) Stop() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.running {
		return sw.watcher.Close()
	}

	sw.running = false
	close(sw.done)
	return sw.watcher.Close()
}
