package dbus

import (
	"math"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// WireDecision is a feedback.Decision as carried over D-Bus.
// DurationMs is -1 for the platform default vibration; Sound is empty
// when no sound plays.
type WireDecision struct {
	PlaySound  bool
	Sound      string
	Volume     float64
	Vibrate    bool
	DurationMs int32
}

// ToWire converts a decision into its D-Bus form.
func ToWire(d feedback.Decision) WireDecision {
	w := WireDecision{
		PlaySound: d.PlaySound,
		Vibrate:   d.Vibrate,
	}
	if d.PlaySound {
		w.Sound = d.Sound.String()
		w.Volume = d.Volume
	}
	if d.Vibrate {
		if d.Vibration.IsSystemDefault() {
			w.DurationMs = feedback.DefaultVibrationDuration
		} else {
			w.DurationMs = int32(min(d.Vibration.DurationMs, math.MaxInt32))
		}
	}
	return w
}

// Decision converts the wire form back into a feedback.Decision.
func (w WireDecision) Decision() feedback.Decision {
	d := feedback.Decision{
		PlaySound: w.PlaySound,
		Vibrate:   w.Vibrate,
	}
	if w.PlaySound {
		d.Sound = parseSoundVariant(w.Sound)
		d.Volume = w.Volume
	}
	if w.Vibrate {
		if w.DurationMs < 0 {
			d.Vibration = feedback.SystemDefault()
		} else {
			d.Vibration = feedback.Explicit(int(w.DurationMs))
		}
	}
	return d
}

func parseSoundVariant(s string) feedback.SoundVariant {
	for _, v := range feedback.SoundVariants() {
		if v.String() == s {
			return v
		}
	}
	return feedback.SoundStandard
}

// VibraStep is one (magnitude, duration) step of a feedbackd haptic pattern.
// It is marshaled as the D-Bus struct (du).
type VibraStep struct {
	Magnitude  float64
	DurationMs uint32
}
