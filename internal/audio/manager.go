package audio

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/feedback"
)

// Manager plays key clicks per sound variant. It implements feedback.AudioSink.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	config  *config.DaemonConfig

	// Variant to sound file mapping; missing variants use a built-in click
	sounds map[feedback.SoundVariant]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.DaemonConfig, player *Player, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		config:  cfg,
		sounds:  make(map[feedback.SoundVariant]string),
	}

	m.loadSoundConfig()
	return m
}

// loadSoundConfig resolves the configured sound files.
func (m *Manager) loadSoundConfig() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sounds = make(map[feedback.SoundVariant]string)
	if m.config == nil {
		return
	}

	for _, variant := range feedback.SoundVariants() {
		path := m.config.SoundFile(variant)
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found, using built-in click", "sound", variant, "path", path)
			continue
		}

		m.sounds[variant] = path
		m.logger.Debug("configured sound", "sound", variant, "path", path)
	}
}

// Start preloads every variant and starts the sound file watcher.
func (m *Manager) Start(ctx context.Context) error {
	m.preload()

	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "files", len(m.soundFiles()))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// preload decodes every configured file and synthesizes the remaining clicks.
func (m *Manager) preload() {
	sounds := m.soundFiles()

	for _, variant := range feedback.SoundVariants() {
		path, ok := sounds[variant]
		if !ok {
			if _, err := m.builtin(variant); err != nil {
				m.logger.Warn("failed to synthesize click", "sound", variant, "error", err)
			}
			continue
		}
		if _, err := m.player.Load(path); err != nil {
			m.logger.Warn("failed to preload sound", "sound", variant, "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}
}

func (m *Manager) soundFiles() map[feedback.SoundVariant]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sounds := make(map[feedback.SoundVariant]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	return sounds
}

// builtin returns the synthesized click for variant.
func (m *Manager) builtin(variant feedback.SoundVariant) (*beep.Buffer, error) {
	key := clickKey(variant)
	if buffer, ok := m.player.cached(key); ok {
		return buffer, nil
	}
	buffer, err := synthesizeClick(variant, DefaultSampleRate)
	if err != nil {
		return nil, err
	}
	m.player.store(key, buffer)
	return buffer, nil
}

// PlaySound plays the click for variant at volume.
func (m *Manager) PlaySound(variant feedback.SoundVariant, volume float64) error {
	m.mu.RLock()
	path, ok := m.sounds[variant]
	m.mu.RUnlock()

	if ok {
		buffer, err := m.player.Load(path)
		if err == nil {
			return m.player.PlayBuffer(buffer, volume)
		}
		m.logger.Warn("failed to load sound, using built-in click", "sound", variant, "path", path, "error", err)
	}

	buffer, err := m.builtin(variant)
	if err != nil {
		return fmt.Errorf("failed to synthesize %s click: %w", variant, err)
	}
	return m.player.PlayBuffer(buffer, volume)
}

// Reload re-resolves sound files and refreshes the cache.
func (m *Manager) Reload() {
	for _, path := range m.soundFiles() {
		m.watcher.Unwatch(path)
	}
	m.player.ClearCache()
	m.loadSoundConfig()
	m.preload()
	m.logger.Debug("audio manager reloaded")
}

// UpdateConfig updates the configuration and reloads sounds.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.logger.Debug("audio manager config updated")
	m.Reload()
}
