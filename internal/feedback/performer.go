package feedback

import (
	"errors"
	"fmt"
	"log/slog"
)

// AudioSink plays key-click sounds.
type AudioSink interface {
	PlaySound(variant SoundVariant, volume float64) error
}

// HapticSink triggers vibration.
type HapticSink interface {
	Vibrate(mode VibrationMode) error
}

// NopAudio is an AudioSink that plays nothing.
type NopAudio struct{}

// PlaySound does nothing.
func (NopAudio) PlaySound(SoundVariant, float64) error { return nil }

// NopHaptic is a HapticSink for devices without vibration hardware.
type NopHaptic struct{}

// Vibrate does nothing.
func (NopHaptic) Vibrate(VibrationMode) error { return nil }

// Performer applies policy decisions to the audio and haptic sinks.
type Performer struct {
	policy   *Policy
	settings SettingsProvider
	audio    AudioSink
	haptic   HapticSink
	logger   *slog.Logger
}

// NewPerformer creates a Performer. Nil sinks are replaced with no-ops.
func NewPerformer(policy *Policy, settings SettingsProvider, audio AudioSink, haptic HapticSink, logger *slog.Logger) *Performer {
	if logger == nil {
		logger = slog.Default()
	}
	if audio == nil {
		audio = NopAudio{}
	}
	if haptic == nil {
		haptic = NopHaptic{}
	}
	return &Performer{
		policy:   policy,
		settings: settings,
		audio:    audio,
		haptic:   haptic,
		logger:   logger,
	}
}

// Perform decides and emits feedback for a key press. Haptics fire before
// the click so the vibration is not delayed by audio startup. Sink
// failures are returned joined, but never change the decision.
func (p *Performer) Perform(code KeyCode) (Decision, error) {
	d := p.policy.Decide(code, p.settings.Settings())

	var errs []error
	if d.Vibrate {
		if err := p.haptic.Vibrate(d.Vibration); err != nil {
			p.logger.Debug("haptic feedback failed", "key", code, "mode", d.Vibration, "error", err)
			errs = append(errs, fmt.Errorf("failed to vibrate: %w", err))
		}
	}
	if d.PlaySound {
		if err := p.audio.PlaySound(d.Sound, d.Volume); err != nil {
			p.logger.Debug("key click failed", "key", code, "sound", d.Sound, "error", err)
			errs = append(errs, fmt.Errorf("failed to play %s click: %w", d.Sound, err))
		}
	}

	return d, errors.Join(errs...)
}

// PerformHaptic emits only the haptic part of the feedback, for callers
// such as key repeat that should not click on every repetition.
func (p *Performer) PerformHaptic() error {
	settings := p.settings.Settings()
	if !settings.VibrationEnabled {
		return nil
	}
	d := p.policy.Decide(CodeDelete, settings)
	if err := p.haptic.Vibrate(d.Vibration); err != nil {
		return fmt.Errorf("failed to vibrate: %w", err)
	}
	return nil
}
