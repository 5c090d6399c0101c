// Package config handles keyfxd configuration loading, validation and hot reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// VibrationDuration is a keypress vibration length in milliseconds.
// Negative values defer to the platform's default keypress haptic.
// Accepts "default", integer milliseconds, or duration strings like "25ms".
type VibrationDuration int

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *VibrationDuration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	switch strings.ToLower(s) {
	case "default", "system", "":
		*d = VibrationDuration(feedback.DefaultVibrationDuration)
		return nil
	}

	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			ms = feedback.DefaultVibrationDuration
		}
		if ms > feedback.MaxVibrationDurationMs {
			return fmt.Errorf("invalid vibration duration %q: must be at most %dms", s, feedback.MaxVibrationDurationMs)
		}
		*d = VibrationDuration(ms)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid vibration duration %q: must be 'default', like '25ms', or milliseconds: %w", s, err)
	}
	if dur < 0 {
		return fmt.Errorf("invalid vibration duration %q: must not be negative", s)
	}
	if dur.Milliseconds() > feedback.MaxVibrationDurationMs {
		return fmt.Errorf("invalid vibration duration %q: must be at most %dms", s, feedback.MaxVibrationDurationMs)
	}
	*d = VibrationDuration(dur.Milliseconds())
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d VibrationDuration) MarshalText() ([]byte, error) {
	if d.IsDefault() {
		return []byte("default"), nil
	}
	return []byte((time.Duration(d) * time.Millisecond).String()), nil
}

// IsDefault reports whether the platform default duration is requested.
func (d VibrationDuration) IsDefault() bool {
	return d < 0
}

// Milliseconds returns the raw duration, negative for the platform default.
func (d VibrationDuration) Milliseconds() int {
	return int(d)
}

// DaemonConfig is the configuration for keyfxd.
// Loaded from ~/.config/keyfx/keyfxd.toml
type DaemonConfig struct {
	Sound  SoundConfig  `toml:"sound"`
	Haptic HapticConfig `toml:"haptic"`
	Ringer RingerConfig `toml:"ringer"`
}

// SoundConfig contains key-click sound settings.
type SoundConfig struct {
	Enabled bool       `toml:"enabled"`
	Volume  int        `toml:"volume"` // 0-100
	Files   SoundFiles `toml:"files"`
}

// SoundFiles contains per-variant sound file paths.
// Empty paths use the built-in synthesized click.
type SoundFiles struct {
	Standard string `toml:"standard"`
	Delete   string `toml:"delete"`
	Return   string `toml:"return"`
	Spacebar string `toml:"spacebar"`
}

// HapticConfig contains vibration settings.
type HapticConfig struct {
	Enabled   bool              `toml:"enabled"`
	Duration  VibrationDuration `toml:"duration"`  // "default" or e.g. "25ms"
	Backend   string            `toml:"backend"`   // "feedbackd" or "none"
	Event     string            `toml:"event"`     // feedbackd event for the default haptic
	Magnitude float64           `toml:"magnitude"` // 0.0-1.0, explicit vibrations only
}

// RingerConfig selects where the ringer state comes from.
type RingerConfig struct {
	Source string `toml:"source"` // "feedbackd", "state-file", "normal", "silent"
}

// HapticBackend names a haptic sink implementation.
type HapticBackend string

const (
	HapticBackendFeedbackd HapticBackend = "feedbackd"
	HapticBackendNone      HapticBackend = "none"
)

// RingerSource names a ringer state source.
type RingerSource string

const (
	RingerSourceFeedbackd RingerSource = "feedbackd"
	RingerSourceStateFile RingerSource = "state-file"
	RingerSourceNormal    RingerSource = "normal"
	RingerSourceSilent    RingerSource = "silent"
)

// ValidRingerSources returns all valid ringer source values.
func ValidRingerSources() []RingerSource {
	return []RingerSource{RingerSourceFeedbackd, RingerSourceStateFile, RingerSourceNormal, RingerSourceSilent}
}

// ValidHapticBackends returns all valid haptic backend values.
func ValidHapticBackends() []HapticBackend {
	return []HapticBackend{HapticBackendFeedbackd, HapticBackendNone}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Sound: SoundConfig{
			Enabled: true,
			Volume:  50,
		},
		Haptic: HapticConfig{
			Enabled:   true,
			Duration:  VibrationDuration(feedback.DefaultVibrationDuration),
			Backend:   string(HapticBackendFeedbackd),
			Event:     "button-pressed",
			Magnitude: 1.0,
		},
		Ringer: RingerConfig{
			Source: string(RingerSourceFeedbackd),
		},
	}
}

// ConfigDir returns the keyfx configuration directory.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "keyfx"), nil
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keyfxd.toml"), nil
}

// LoadDaemonConfigFile loads the daemon configuration from path.
func LoadDaemonConfigFile(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfigFile saves the daemon configuration to path.
func SaveDaemonConfigFile(config *DaemonConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Sound.Volume < 0 || c.Sound.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Sound.Volume)
	}

	if c.Haptic.Magnitude < 0 || c.Haptic.Magnitude > 1 {
		return fmt.Errorf("haptic magnitude must be between 0 and 1, got %g", c.Haptic.Magnitude)
	}

	validBackend := false
	for _, b := range ValidHapticBackends() {
		if c.Haptic.Backend == string(b) {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid haptic backend %q, must be one of: %v", c.Haptic.Backend, ValidHapticBackends())
	}

	validSource := false
	for _, s := range ValidRingerSources() {
		if c.Ringer.Source == string(s) {
			validSource = true
			break
		}
	}
	if !validSource {
		return fmt.Errorf("invalid ringer source %q, must be one of: %v", c.Ringer.Source, ValidRingerSources())
	}

	return c.Settings().Validate()
}

// Settings returns the feedback settings snapshot described by the config.
func (c *DaemonConfig) Settings() feedback.Settings {
	return feedback.Settings{
		SoundEnabled:        c.Sound.Enabled,
		VibrationEnabled:    c.Haptic.Enabled,
		FxVolume:            float64(c.Sound.Volume) / 100.0,
		VibrationDurationMs: c.Haptic.Duration.Milliseconds(),
	}
}

// SoundFile returns the configured sound file for a variant, with ~ expanded.
// An empty result means the built-in click should be used.
func (c *DaemonConfig) SoundFile(variant feedback.SoundVariant) string {
	var path string
	switch variant {
	case feedback.SoundDelete:
		path = c.Sound.Files.Delete
	case feedback.SoundReturn:
		path = c.Sound.Files.Return
	case feedback.SoundSpacebar:
		path = c.Sound.Files.Spacebar
	default:
		path = c.Sound.Files.Standard
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
