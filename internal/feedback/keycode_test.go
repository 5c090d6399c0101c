package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyCode(t *testing.T) {
	tests := []struct {
		input    string
		expected KeyCode
	}{
		{"delete", CodeDelete},
		{"Backspace", CodeDelete},
		{"enter", CodeEnter},
		{"return", CodeEnter},
		{"space", CodeSpace},
		{"a", 'a'},
		{"é", 'é'},
		{"7", '7'},
		{"65", 65},
		{"-5", CodeDelete},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKeyCode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	for _, bad := range []string{"", "shift-left", "1.5"} {
		_, err := ParseKeyCode(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeyCodeString(t *testing.T) {
	assert.Equal(t, "delete", CodeDelete.String())
	assert.Equal(t, "enter", CodeEnter.String())
	assert.Equal(t, "space", CodeSpace.String())
	assert.Equal(t, "a", KeyCode('a').String())
	assert.Equal(t, "9", KeyCode(9).String())
	assert.Equal(t, "-1", KeyCode(-1).String())
}

func TestSoundVariantString(t *testing.T) {
	assert.Equal(t, "standard", SoundStandard.String())
	assert.Equal(t, "delete", SoundDelete.String())
	assert.Equal(t, "return", SoundReturn.String())
	assert.Equal(t, "spacebar", SoundSpacebar.String())
	assert.Len(t, SoundVariants(), 4)
}

func TestNewReport(t *testing.T) {
	r := NewReport(CodeEnter, RingerNormal, Decision{
		PlaySound: true, Sound: SoundReturn, Volume: 0.4,
		Vibrate: true, Vibration: Explicit(30),
	})
	assert.Equal(t, Report{
		Key: "enter", PlaySound: true, Sound: "return", Volume: 0.4,
		Vibrate: true, Vibration: "explicit", DurationMs: 30, RingerState: "normal",
	}, r)

	r = NewReport('a', RingerSilent, Decision{Vibrate: true, Vibration: SystemDefault()})
	assert.Equal(t, "system-default", r.Vibration)
	assert.Empty(t, r.Sound)
	assert.Equal(t, "silent", r.RingerState)
}
