package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

type recordingAudio struct {
	played []feedback.SoundVariant
	err    error
}

func (a *recordingAudio) PlaySound(v feedback.SoundVariant, _ float64) error {
	a.played = append(a.played, v)
	return a.err
}

type recordingHaptic struct {
	modes []feedback.VibrationMode
}

func (h *recordingHaptic) Vibrate(m feedback.VibrationMode) error {
	h.modes = append(h.modes, m)
	return nil
}

func testSettings() feedback.Settings {
	return feedback.Settings{
		SoundEnabled:        true,
		VibrationEnabled:    true,
		FxVolume:            0.5,
		VibrationDurationMs: feedback.DefaultVibrationDuration,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SilentUntilRingerToggled(t *testing.T) {
	audio := &recordingAudio{}
	haptic := &recordingHaptic{}
	m := New(testSettings(), audio, haptic, nil)

	m = update(t, m, runes("a"))
	assert.Empty(t, audio.played)
	assert.Len(t, haptic.modes, 1)
	require.Len(t, m.history, 1)
	assert.False(t, m.history[0].report.PlaySound)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF4})
	assert.Equal(t, feedback.RingerNormal, m.policy.RingerState())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, []feedback.SoundVariant{feedback.SoundReturn, feedback.SoundSpacebar, feedback.SoundDelete}, audio.played)
	assert.Equal(t, "a↵", string(m.typed))
}

func TestModel_RingerMsg(t *testing.T) {
	m := New(testSettings(), nil, nil, nil)
	m = update(t, m, ringerMsg(feedback.RingerNormal))
	assert.Equal(t, feedback.RingerNormal, m.policy.RingerState())
}

func TestModel_Controls(t *testing.T) {
	m := New(testSettings(), nil, nil, nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	assert.False(t, m.settings.Settings().SoundEnabled)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF3})
	assert.False(t, m.settings.Settings().VibrationEnabled)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF6})
	assert.InDelta(t, 0.6, m.settings.Settings().FxVolume, 1e-9)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF8})
	assert.Equal(t, 0, m.settings.Settings().VibrationDurationMs)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyF8})
	assert.Equal(t, 10, m.settings.Settings().VibrationDurationMs)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyF7})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyF7})
	assert.Equal(t, feedback.DefaultVibrationDuration, m.settings.Settings().VibrationDurationMs)

	assert.Empty(t, m.history, "controls are not key presses")
}

func TestModel_RepeatIsHapticOnly(t *testing.T) {
	audio := &recordingAudio{}
	haptic := &recordingHaptic{}
	m := New(testSettings(), audio, haptic, nil)
	m = update(t, m, ringerMsg(feedback.RingerNormal))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF9})
	assert.Empty(t, audio.played)
	assert.Equal(t, []feedback.VibrationMode{feedback.SystemDefault()}, haptic.modes)
	require.Len(t, m.history, 1)
	assert.True(t, m.history[0].repeat)
}

func TestModel_SinkErrorShownInHistory(t *testing.T) {
	audio := &recordingAudio{err: errors.New("no speaker")}
	m := New(testSettings(), audio, nil, nil)
	m = update(t, m, ringerMsg(feedback.RingerNormal))

	m = update(t, m, runes("x"))
	require.Len(t, m.history, 1)
	assert.True(t, m.history[0].report.PlaySound)
	assert.Contains(t, m.history[0].err, "no speaker")
	assert.Contains(t, m.View(), "no speaker")
}

func TestModel_HistoryBounded(t *testing.T) {
	m := New(testSettings(), nil, nil, nil)
	for range maxHistory + 5 {
		m = update(t, m, runes("z"))
	}
	assert.Len(t, m.history, maxHistory)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.history)
	assert.Empty(t, m.typed)
}

func TestModel_Quit(t *testing.T) {
	m := New(testSettings(), nil, nil, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestKeyCodes(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want []feedback.KeyCode
	}{
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, []feedback.KeyCode{feedback.CodeDelete}},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, []feedback.KeyCode{feedback.CodeEnter}},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, []feedback.KeyCode{feedback.CodeSpace}},
		{"paste", runes("hi"), []feedback.KeyCode{'h', 'i'}},
		{"alt", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true}, nil},
		{"arrow", tea.KeyMsg{Type: tea.KeyUp}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyCodes(tt.msg))
		})
	}
}

func TestStepVolume(t *testing.T) {
	assert.InDelta(t, 0.0, stepVolume(0.05, -volumeStep), 1e-9)
	assert.InDelta(t, 1.0, stepVolume(0.95, volumeStep), 1e-9)
	assert.InDelta(t, 0.3, stepVolume(0.2, volumeStep), 1e-9)
}
