package feedback

import (
	"fmt"
	"strings"
	"sync"
)

// RingerState is the device-wide ringer mode as far as key clicks care.
// The zero value is RingerSilent.
type RingerState int

const (
	// RingerSilent covers both silent and vibrate-only ringer modes.
	RingerSilent RingerState = iota
	// RingerNormal permits key-click sounds.
	RingerNormal
)

// String returns "normal" or "silent".
func (r RingerState) String() string {
	if r == RingerNormal {
		return "normal"
	}
	return "silent"
}

// ParseRingerState parses "normal" or "silent" (also "vibrate", "quiet").
func ParseRingerState(s string) (RingerState, error) {
	switch strings.ToLower(s) {
	case "normal", "full", "on":
		return RingerNormal, nil
	case "silent", "vibrate", "quiet", "off":
		return RingerSilent, nil
	default:
		return RingerSilent, fmt.Errorf("invalid ringer state %q, must be normal or silent", s)
	}
}

// Policy resolves key presses into feedback decisions.
//
// It caches the ringer state instead of querying it on every key press.
// Until RefreshRingerState is first called the cache holds RingerSilent,
// so sound stays suppressed until the ringer state is known.
type Policy struct {
	mu     sync.RWMutex
	ringer RingerState
}

// NewPolicy creates a policy with the ringer state unknown (silent).
func NewPolicy() *Policy {
	return &Policy{ringer: RingerSilent}
}

// RefreshRingerState replaces the cached ringer state.
func (p *Policy) RefreshRingerState(state RingerState) {
	p.mu.Lock()
	p.ringer = state
	p.mu.Unlock()
}

// Swap replaces the cached ringer state and returns the one it replaced.
func (p *Policy) Swap(state RingerState) RingerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous := p.ringer
	p.ringer = state
	return previous
}

// RingerState returns the cached ringer state.
func (p *Policy) RingerState() RingerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ringer
}

// Decide returns the feedback for a press of code under settings.
// It has no side effects and never fails.
func (p *Policy) Decide(code KeyCode, settings Settings) Decision {
	return decide(code, settings, p.RingerState())
}

func decide(code KeyCode, settings Settings, ringer RingerState) Decision {
	var d Decision

	if settings.SoundEnabled && ringer == RingerNormal {
		d.PlaySound = true
		d.Sound = VariantForKey(code)
		d.Volume = settings.FxVolume
	}

	if settings.VibrationEnabled {
		d.Vibrate = true
		if settings.VibrationDurationMs < 0 {
			d.Vibration = SystemDefault()
		} else {
			d.Vibration = Explicit(settings.VibrationDurationMs)
		}
	}

	return d
}
