package feedback

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allCodes = []KeyCode{CodeDelete, CodeEnter, CodeSpace, 'a', 'Z', '1', ',', 0, -1, -100, 0x1F600}

func TestPolicy_SilentUntilRefreshed(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, RingerSilent, p.RingerState())

	for _, code := range allCodes {
		for _, sound := range []bool{true, false} {
			d := p.Decide(code, Settings{SoundEnabled: sound, FxVolume: 1})
			assert.False(t, d.PlaySound, "code %v sound %v", code, sound)
		}
	}
}

func TestPolicy_ZeroValueIsSilent(t *testing.T) {
	var p Policy
	d := p.Decide(CodeSpace, Settings{SoundEnabled: true, FxVolume: 0.5})
	assert.False(t, d.PlaySound)
}

func TestPolicy_NormalFollowsSoundSetting(t *testing.T) {
	p := NewPolicy()
	p.RefreshRingerState(RingerNormal)

	for _, code := range allCodes {
		for _, sound := range []bool{true, false} {
			for _, vol := range []float64{0, 0.5, 1} {
				d := p.Decide(code, Settings{SoundEnabled: sound, FxVolume: vol})
				assert.Equal(t, sound, d.PlaySound)
				if sound {
					assert.Equal(t, vol, d.Volume)
				}
			}
		}
	}
}

func TestPolicy_RingerOscillates(t *testing.T) {
	p := NewPolicy()
	s := Settings{SoundEnabled: true, FxVolume: 1}

	p.RefreshRingerState(RingerNormal)
	assert.True(t, p.Decide('a', s).PlaySound)

	p.RefreshRingerState(RingerSilent)
	assert.False(t, p.Decide('a', s).PlaySound)

	p.RefreshRingerState(RingerNormal)
	p.RefreshRingerState(RingerNormal)
	assert.True(t, p.Decide('a', s).PlaySound)
}

func TestVariantForKey(t *testing.T) {
	tests := []struct {
		code     KeyCode
		expected SoundVariant
	}{
		{CodeDelete, SoundDelete},
		{CodeEnter, SoundReturn},
		{CodeSpace, SoundSpacebar},
		{'a', SoundStandard},
		{'\t', SoundStandard},
		{0, SoundStandard},
		{-1, SoundStandard},
		{1 << 20, SoundStandard},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, VariantForKey(tt.code))

			p := NewPolicy()
			p.RefreshRingerState(RingerNormal)
			d := p.Decide(tt.code, Settings{SoundEnabled: true, FxVolume: 1})
			assert.Equal(t, tt.expected, d.Sound)
		})
	}
}

func TestPolicy_VibrationIndependentOfRinger(t *testing.T) {
	for _, ringer := range []RingerState{RingerSilent, RingerNormal} {
		p := NewPolicy()
		p.RefreshRingerState(ringer)
		for _, code := range allCodes {
			assert.True(t, p.Decide(code, Settings{VibrationEnabled: true}).Vibrate)
			assert.False(t, p.Decide(code, Settings{VibrationEnabled: false, SoundEnabled: true}).Vibrate)
		}
	}
}

func TestPolicy_VibrationMode(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		expected VibrationMode
	}{
		{"sentinel", -1, SystemDefault()},
		{"any negative", -42, SystemDefault()},
		{"zero", 0, Explicit(0)},
		{"explicit", 250, Explicit(250)},
	}

	p := NewPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide('x', Settings{VibrationEnabled: true, VibrationDurationMs: tt.duration})
			assert.True(t, d.Vibrate)
			assert.Equal(t, tt.expected, d.Vibration)
		})
	}
}

func TestPolicy_Scenarios(t *testing.T) {
	t.Run("normal ringer delete key", func(t *testing.T) {
		p := NewPolicy()
		p.RefreshRingerState(RingerNormal)
		d := p.Decide(CodeDelete, Settings{SoundEnabled: true, VibrationEnabled: false, FxVolume: 0.8})
		assert.Equal(t, Decision{PlaySound: true, Sound: SoundDelete, Volume: 0.8, Vibrate: false}, d)
	})

	t.Run("ringer never refreshed", func(t *testing.T) {
		p := NewPolicy()
		d := p.Decide(CodeSpace, Settings{SoundEnabled: true, FxVolume: 1})
		assert.False(t, d.PlaySound)
	})

	t.Run("silent ringer default vibration", func(t *testing.T) {
		p := NewPolicy()
		p.RefreshRingerState(RingerSilent)
		d := p.Decide('q', Settings{SoundEnabled: true, VibrationEnabled: true, VibrationDurationMs: -1, FxVolume: 1})
		assert.False(t, d.PlaySound)
		assert.True(t, d.Vibrate)
		assert.True(t, d.Vibration.IsSystemDefault())
	})
}

func TestParseRingerState(t *testing.T) {
	for in, expected := range map[string]RingerState{
		"normal": RingerNormal, "NORMAL": RingerNormal, "full": RingerNormal,
		"silent": RingerSilent, "vibrate": RingerSilent, "quiet": RingerSilent,
	} {
		got, err := ParseRingerState(in)
		assert.NoError(t, err, in)
		assert.Equal(t, expected, got, in)
	}

	_, err := ParseRingerState("loud")
	assert.Error(t, err)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, Settings{FxVolume: 0}.Validate())
	assert.NoError(t, Settings{FxVolume: 1}.Validate())
	assert.ErrorIs(t, Settings{FxVolume: 1.5}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{FxVolume: -0.1}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{FxVolume: math.NaN()}.Validate(), ErrInvalidSettings)

	assert.NoError(t, Settings{VibrationDurationMs: DefaultVibrationDuration}.Validate())
	assert.NoError(t, Settings{VibrationDurationMs: MaxVibrationDurationMs}.Validate())
	assert.ErrorIs(t, Settings{VibrationDurationMs: MaxVibrationDurationMs + 1}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{VibrationDurationMs: 3000000000}.Validate(), ErrInvalidSettings)
}

func TestPolicy_ConcurrentRefreshAndDecide(t *testing.T) {
	p := NewPolicy()
	settings := Settings{SoundEnabled: true, VibrationEnabled: true, FxVolume: 1, VibrationDurationMs: -1}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 100 {
				if (i+j)%2 == 0 {
					p.RefreshRingerState(RingerNormal)
				} else {
					p.RefreshRingerState(RingerSilent)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				d := p.Decide(CodeSpace, settings)
				if d.PlaySound {
					assert.Equal(t, SoundSpacebar, d.Sound)
				}
				assert.True(t, d.Vibrate)
			}
		}()
	}
	wg.Wait()

	p.RefreshRingerState(RingerNormal)
	assert.True(t, p.Decide(CodeSpace, settings).PlaySound)
}

func TestPolicy_Swap(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, RingerSilent, p.Swap(RingerNormal))
	assert.Equal(t, RingerNormal, p.Swap(RingerNormal))
	assert.Equal(t, RingerNormal, p.Swap(RingerSilent))
	assert.Equal(t, RingerSilent, p.RingerState())
}

func TestPolicy_SwapConcurrent(t *testing.T) {
	p := NewPolicy()

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Swap(RingerNormal) == RingerSilent {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, transitions, "exactly one caller observes the change")
	assert.Equal(t, RingerNormal, p.RingerState())
}
