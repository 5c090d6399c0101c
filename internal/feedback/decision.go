package feedback

import "fmt"

// VibrationKind distinguishes platform-timed from explicitly-timed vibration.
type VibrationKind int

const (
	// VibrationSystemDefault defers to the platform's keypress haptic,
	// bypassing any global haptics-disabled switch.
	VibrationSystemDefault VibrationKind = iota
	// VibrationExplicit vibrates for exactly DurationMs.
	VibrationExplicit
)

// VibrationMode describes how a haptic sink should vibrate.
type VibrationMode struct {
	Kind       VibrationKind
	DurationMs int // only meaningful for VibrationExplicit
}

// SystemDefault returns the platform-default vibration mode.
func SystemDefault() VibrationMode {
	return VibrationMode{Kind: VibrationSystemDefault}
}

// Explicit returns a vibration mode with a fixed duration in milliseconds.
func Explicit(durationMs int) VibrationMode {
	return VibrationMode{Kind: VibrationExplicit, DurationMs: durationMs}
}

// IsSystemDefault reports whether the mode defers to the platform.
func (m VibrationMode) IsSystemDefault() bool {
	return m.Kind == VibrationSystemDefault
}

// String returns "system-default" or "explicit(<ms>ms)".
func (m VibrationMode) String() string {
	if m.Kind == VibrationExplicit {
		return fmt.Sprintf("explicit(%dms)", m.DurationMs)
	}
	return "system-default"
}

// Decision is the feedback to perform for one key press.
// Sound and Volume are only meaningful when PlaySound is set;
// Vibration only when Vibrate is set.
type Decision struct {
	PlaySound bool
	Sound     SoundVariant
	Volume    float64
	Vibrate   bool
	Vibration VibrationMode
}

// Report is a flattened, serializable view of a Decision.
type Report struct {
	Key         string  `json:"key" yaml:"key"`
	PlaySound   bool    `json:"play_sound" yaml:"play_sound"`
	Sound       string  `json:"sound,omitempty" yaml:"sound,omitempty"`
	Volume      float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Vibrate     bool    `json:"vibrate" yaml:"vibrate"`
	Vibration   string  `json:"vibration,omitempty" yaml:"vibration,omitempty"`
	DurationMs  int     `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	RingerState string  `json:"ringer_state" yaml:"ringer_state"`
}

// NewReport builds a Report for a decision made for code under ringer.
func NewReport(code KeyCode, ringer RingerState, d Decision) Report {
	r := Report{
		Key:         code.String(),
		PlaySound:   d.PlaySound,
		Vibrate:     d.Vibrate,
		RingerState: ringer.String(),
	}
	if d.PlaySound {
		r.Sound = d.Sound.String()
		r.Volume = d.Volume
	}
	if d.Vibrate {
		if d.Vibration.IsSystemDefault() {
			r.Vibration = "system-default"
		} else {
			r.Vibration = "explicit"
			r.DurationMs = d.Vibration.DurationMs
		}
	}
	return r
}
