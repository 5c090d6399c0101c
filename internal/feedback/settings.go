package feedback

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is returned by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid feedback settings")

// DefaultVibrationDuration is the sentinel duration that defers
// vibration timing to the platform's keypress haptic.
const DefaultVibrationDuration = -1

// MaxVibrationDurationMs bounds an explicit vibration duration.
const MaxVibrationDurationMs = 10000

// Settings is a read-only snapshot of the user's feedback preferences.
type Settings struct {
	SoundEnabled        bool    `json:"sound_enabled" yaml:"sound_enabled"`
	VibrationEnabled    bool    `json:"vibration_enabled" yaml:"vibration_enabled"`
	FxVolume            float64 `json:"fx_volume" yaml:"fx_volume"`                         // 0.0-1.0
	VibrationDurationMs int     `json:"vibration_duration_ms" yaml:"vibration_duration_ms"` // <0 = platform default
}

// Validate checks the value ranges that Decide itself tolerates.
func (s Settings) Validate() error {
	if math.IsNaN(s.FxVolume) || s.FxVolume < 0 || s.FxVolume > 1 {
		return fmt.Errorf("%w: fx volume must be between 0 and 1, got %g", ErrInvalidSettings, s.FxVolume)
	}
	if s.VibrationDurationMs > MaxVibrationDurationMs {
		return fmt.Errorf("%w: vibration duration must be at most %dms, got %dms",
			ErrInvalidSettings, MaxVibrationDurationMs, s.VibrationDurationMs)
	}
	return nil
}

// SettingsProvider supplies the current settings snapshot for each key press.
type SettingsProvider interface {
	Settings() Settings
}

// StaticSettings is a SettingsProvider that always returns the same snapshot.
type StaticSettings Settings

// Settings implements SettingsProvider.
func (s StaticSettings) Settings() Settings {
	return Settings(s)
}
