package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/ringer"
)

var _ dbus.Handler = (*Daemon)(nil)
var _ feedback.SettingsProvider = (*Daemon)(nil)

type recordingAudio struct {
	mu     sync.Mutex
	played []feedback.SoundVariant
	cfg    *config.DaemonConfig
	err    error
}

func (a *recordingAudio) PlaySound(v feedback.SoundVariant, _ float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.played = append(a.played, v)
	return a.err
}

func (a *recordingAudio) UpdateConfig(cfg *config.DaemonConfig) { a.cfg = cfg }

type recordingHaptic struct {
	modes []feedback.VibrationMode
	cfg   config.HapticConfig
	err   error
}

func (h *recordingHaptic) Vibrate(m feedback.VibrationMode) error {
	h.modes = append(h.modes, m)
	return h.err
}

func (h *recordingHaptic) UpdateConfig(cfg config.HapticConfig) { h.cfg = cfg }

type fakeSource struct {
	current feedback.RingerState
	err     error
	refresh ringer.RefreshFunc
	started bool
	stopped bool
}

func (s *fakeSource) Current(context.Context) (feedback.RingerState, error) {
	return s.current, s.err
}

func (s *fakeSource) Start(_ context.Context, refresh ringer.RefreshFunc) error {
	s.started = true
	s.refresh = refresh
	return nil
}

func (s *fakeSource) Stop() error {
	s.stopped = true
	return nil
}

func newTestDaemon(t *testing.T) (*Daemon, *recordingAudio, *recordingHaptic, *fakeSource) {
	t.Helper()
	audio := &recordingAudio{}
	haptic := &recordingHaptic{}
	source := &fakeSource{current: feedback.RingerNormal}
	d := New(Options{
		Config: config.DefaultDaemonConfig(),
		Audio:  audio,
		Haptic: haptic,
		Ringer: source,
	})
	return d, audio, haptic, source
}

func TestDaemon_SilentUntilRingerDelivered(t *testing.T) {
	d, audio, haptic, source := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))
	assert.True(t, source.started)

	dec, err := d.KeyPressed(feedback.CodeEnter)
	require.NoError(t, err)
	assert.False(t, dec.PlaySound)
	assert.True(t, dec.Vibrate)
	assert.Empty(t, audio.played)
	assert.Equal(t, []feedback.VibrationMode{feedback.SystemDefault()}, haptic.modes)

	source.refresh(feedback.RingerNormal)
	dec, err = d.KeyPressed(feedback.CodeEnter)
	require.NoError(t, err)
	assert.True(t, dec.PlaySound)
	assert.Equal(t, feedback.SoundReturn, dec.Sound)
	assert.InDelta(t, 0.5, dec.Volume, 1e-9)
	assert.Equal(t, []feedback.SoundVariant{feedback.SoundReturn}, audio.played)

	require.NoError(t, d.Stop())
	assert.True(t, source.stopped)
}

func TestDaemon_StartTwice(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))
	assert.Error(t, d.Start(context.Background()))
}

func TestDaemon_RingerChangeEmitsSignalOnce(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)

	var emitted []feedback.RingerState
	d.SetSignalEmitter(func(s feedback.RingerState) error {
		emitted = append(emitted, s)
		return nil
	})

	d.SetRingerState(feedback.RingerSilent)
	d.SetRingerState(feedback.RingerNormal)
	d.SetRingerState(feedback.RingerNormal)
	d.SetRingerState(feedback.RingerSilent)

	assert.Equal(t, []feedback.RingerState{feedback.RingerNormal, feedback.RingerSilent}, emitted)
	assert.Equal(t, feedback.RingerSilent, d.RingerState())
}

func TestDaemon_StartSessionQueriesRinger(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)
	first := d.SessionID()

	id := d.StartSession()
	assert.NotEqual(t, first, id)
	assert.Equal(t, id, d.SessionID())
	assert.Len(t, id, 26)
	assert.Equal(t, feedback.RingerNormal, d.RingerState())
}

func TestDaemon_StartSessionCurrentFails(t *testing.T) {
	d, audio, _, source := newTestDaemon(t)
	d.SetRingerState(feedback.RingerNormal)
	first := d.SessionID()

	var emitted []feedback.RingerState
	d.SetSignalEmitter(func(s feedback.RingerState) error {
		emitted = append(emitted, s)
		return nil
	})

	source.err = errors.New("feedbackd gone")
	id := d.StartSession()
	assert.NotEqual(t, first, id)
	assert.Equal(t, id, d.SessionID())
	assert.Equal(t, feedback.RingerSilent, d.RingerState(), "new session starts silent")
	assert.Empty(t, emitted)

	dec, err := d.KeyPressed(feedback.CodeSpace)
	require.NoError(t, err)
	assert.False(t, dec.PlaySound)
	assert.Empty(t, audio.played)
}

func TestDaemon_ConcurrentRingerChangeEmitsOnce(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)

	var mu sync.Mutex
	var emitted []feedback.RingerState
	d.SetSignalEmitter(func(s feedback.RingerState) error {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, s)
		return nil
	})

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.SetRingerState(feedback.RingerNormal)
		}()
	}
	wg.Wait()

	assert.Equal(t, []feedback.RingerState{feedback.RingerNormal}, emitted)
}

func TestDaemon_DecideDoesNotPerform(t *testing.T) {
	d, audio, haptic, _ := newTestDaemon(t)
	d.SetRingerState(feedback.RingerNormal)

	dec := d.Decide(feedback.CodeDelete)
	assert.True(t, dec.PlaySound)
	assert.Equal(t, feedback.SoundDelete, dec.Sound)
	assert.Empty(t, audio.played)
	assert.Empty(t, haptic.modes)
}

func TestDaemon_KeyRepeated(t *testing.T) {
	d, audio, haptic, _ := newTestDaemon(t)
	d.SetRingerState(feedback.RingerNormal)

	require.NoError(t, d.KeyRepeated())
	assert.Empty(t, audio.played)
	assert.Len(t, haptic.modes, 1)
}

func TestDaemon_ApplyConfig(t *testing.T) {
	d, audio, haptic, _ := newTestDaemon(t)
	d.SetRingerState(feedback.RingerNormal)

	cfg := config.DefaultDaemonConfig()
	cfg.Sound.Volume = 80
	cfg.Haptic.Duration = 30
	d.ApplyConfig(cfg)
	d.ApplyConfig(nil)

	assert.Same(t, cfg, d.Config())
	assert.Same(t, cfg, audio.cfg)
	assert.Equal(t, cfg.Haptic, haptic.cfg)

	dec, err := d.KeyPressed('a')
	require.NoError(t, err)
	assert.InDelta(t, 0.8, dec.Volume, 1e-9)
	assert.Equal(t, feedback.Explicit(30), dec.Vibration)
}

func TestDaemon_SinkErrorsNotify(t *testing.T) {
	d, audio, haptic, _ := newTestDaemon(t)
	audio.err = errors.New("no speaker")
	haptic.err = errors.New("no motor")

	var sent []dbus.DesktopNotification
	d.notifier.SetSender(func(n dbus.DesktopNotification) error {
		sent = append(sent, n)
		return nil
	})
	d.SetRingerState(feedback.RingerNormal)

	dec, err := d.KeyPressed('a')
	require.Error(t, err)
	assert.True(t, dec.PlaySound)
	assert.True(t, dec.Vibrate)

	_, err = d.KeyPressed('b')
	require.Error(t, err)

	require.Len(t, sent, 2, "repeats are rate limited")
	assert.Equal(t, "Keyboard vibration unavailable", sent[0].Summary)
	assert.Equal(t, "Key click sounds unavailable", sent[1].Summary)
}

func TestDaemon_ConfigError(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)
	var sent []dbus.DesktopNotification
	d.notifier.SetSender(func(n dbus.DesktopNotification) error {
		sent = append(sent, n)
		return nil
	})

	d.ConfigError(errors.New("volume out of range"))
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "volume out of range")
	assert.Equal(t, dbus.UrgencyNormal, sent[0].Urgency)
}

func TestDaemon_NoSource(t *testing.T) {
	d := New(Options{})
	require.NoError(t, d.Start(context.Background()))
	d.StartSession()
	assert.Equal(t, feedback.RingerSilent, d.RingerState())
	require.NoError(t, d.Stop())
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	n := NewInternalNotifier(nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	var sent []dbus.DesktopNotification
	n.SetSender(func(dn dbus.DesktopNotification) error {
		sent = append(sent, dn)
		return nil
	})
	n.SetMinInterval(time.Minute)

	n.Notify("k", "first", "", NotificationLevelError)
	n.Notify("k", "second", "", NotificationLevelError)
	n.Notify("other", "third", "", NotificationLevelInfo)
	now = now.Add(2 * time.Minute)
	n.Notify("k", "fourth", "", NotificationLevelWarning)

	require.Len(t, sent, 3)
	assert.Equal(t, "first", sent[0].Summary)
	assert.Equal(t, dbus.UrgencyCritical, sent[0].Urgency)
	assert.Equal(t, "dialog-error", sent[0].AppIcon)
	assert.Equal(t, "third", sent[1].Summary)
	assert.Equal(t, dbus.UrgencyLow, sent[1].Urgency)
	assert.Equal(t, "fourth", sent[2].Summary)
}

func TestInternalNotifier_NoSender(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.NotPanics(t, func() { n.NotifyConfigError(errors.New("x")) })
}
