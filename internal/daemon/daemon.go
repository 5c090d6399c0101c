package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/ringer"
)

// ringerQueryTimeout bounds the one-shot ringer query made when a session opens.
const ringerQueryTimeout = 2 * time.Second

// audioReconfigurer is implemented by audio sinks that follow config reloads.
type audioReconfigurer interface {
	UpdateConfig(cfg *config.DaemonConfig)
}

// hapticReconfigurer is implemented by haptic sinks that follow config reloads.
type hapticReconfigurer interface {
	UpdateConfig(cfg config.HapticConfig)
}

// Options configures a Daemon.
type Options struct {
	Config   *config.DaemonConfig
	Audio    feedback.AudioSink
	Haptic   feedback.HapticSink
	Ringer   ringer.Source
	Notifier *InternalNotifier
	Logger   *slog.Logger
}

// Daemon routes key events to the current session and keeps the session's
// policy in step with the ringer source. It implements dbus.Handler and
// feedback.SettingsProvider.
type Daemon struct {
	logger   *slog.Logger
	config   atomic.Pointer[config.DaemonConfig]
	audio    feedback.AudioSink
	haptic   feedback.HapticSink
	source   ringer.Source
	notifier *InternalNotifier

	mu      sync.RWMutex
	session *Session
	emit    func(state feedback.RingerState) error
	running bool
}

// New creates a new Daemon. Missing sinks are no-ops and a missing ringer
// source leaves sessions silent.
func New(opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewInternalNotifier(logger)
	}

	d := &Daemon{
		logger:   logger,
		source:   opts.Ringer,
		notifier: notifier,
	}
	d.config.Store(cfg)

	audio := opts.Audio
	if audio == nil {
		audio = feedback.NopAudio{}
	}
	haptic := opts.Haptic
	if haptic == nil {
		haptic = feedback.NopHaptic{}
	}
	d.audio = &notifyingAudio{sink: audio, notifier: notifier}
	d.haptic = &notifyingHaptic{sink: haptic, notifier: notifier}

	d.session = newSession(d, d.audio, d.haptic, logger)
	return d
}

// SetSignalEmitter sets the function called after every ringer state change.
func (d *Daemon) SetSignalEmitter(emit func(state feedback.RingerState) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emit = emit
}

// Start begins delivery from the ringer source into the current session.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	session := d.session
	d.mu.Unlock()

	d.logger.Info("keyboard session started", "session", session.ID)

	if d.source == nil {
		d.logger.Warn("no ringer source, key clicks stay silent")
		return nil
	}
	if err := d.source.Start(ctx, d.refreshRinger); err != nil {
		return fmt.Errorf("failed to start ringer source: %w", err)
	}
	return nil
}

// Stop ends ringer delivery.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	if d.source != nil {
		if err := d.source.Stop(); err != nil {
			return fmt.Errorf("failed to stop ringer source: %w", err)
		}
	}
	return nil
}

// Settings implements feedback.SettingsProvider from the live config.
func (d *Daemon) Settings() feedback.Settings {
	return d.config.Load().Settings()
}

// Config returns the live configuration.
func (d *Daemon) Config() *config.DaemonConfig {
	return d.config.Load()
}

// ApplyConfig swaps in a reloaded configuration and passes it to the sinks.
func (d *Daemon) ApplyConfig(cfg *config.DaemonConfig) {
	if cfg == nil {
		return
	}
	d.config.Store(cfg)

	if r, ok := d.audio.(*notifyingAudio).sink.(audioReconfigurer); ok {
		r.UpdateConfig(cfg)
	}
	if r, ok := d.haptic.(*notifyingHaptic).sink.(hapticReconfigurer); ok {
		r.UpdateConfig(cfg.Haptic)
	}

	d.logger.Info("configuration applied",
		"sound", cfg.Sound.Enabled,
		"volume", cfg.Sound.Volume,
		"haptic", cfg.Haptic.Enabled,
		"duration", cfg.Haptic.Duration)
}

// ConfigError reports a config reload that was rejected.
func (d *Daemon) ConfigError(err error) {
	d.logger.Warn("config reload failed, keeping previous settings", "error", err)
	d.notifier.NotifyConfigError(err)
}

// current returns the active session.
func (d *Daemon) current() *Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session
}

// refreshRinger delivers a ringer state to the current session and
// announces changes.
func (d *Daemon) refreshRinger(state feedback.RingerState) {
	d.mu.RLock()
	session := d.session
	emit := d.emit
	d.mu.RUnlock()

	previous := session.policy.Swap(state)
	if previous == state {
		return
	}

	d.logger.Info("ringer state changed", "from", previous, "to", state, "session", session.ID)
	if emit != nil {
		if err := emit(state); err != nil {
			d.logger.Debug("failed to announce ringer state", "error", err)
		}
	}
}

// KeyPressed performs feedback for code in the current session.
func (d *Daemon) KeyPressed(code feedback.KeyCode) (feedback.Decision, error) {
	return d.current().performer.Perform(code)
}

// KeyRepeated performs haptic-only feedback in the current session.
func (d *Daemon) KeyRepeated() error {
	return d.current().performer.PerformHaptic()
}

// Decide returns the current session's decision for code without performing it.
func (d *Daemon) Decide(code feedback.KeyCode) feedback.Decision {
	return d.current().policy.Decide(code, d.Settings())
}

// RingerState returns the current session's cached ringer state.
func (d *Daemon) RingerState() feedback.RingerState {
	return d.current().policy.RingerState()
}

// SetRingerState overrides the ringer state until the source reports again.
func (d *Daemon) SetRingerState(state feedback.RingerState) {
	d.refreshRinger(state)
}

// SessionID returns the current session's identifier.
func (d *Daemon) SessionID() string {
	return d.current().ID
}

// StartSession replaces the current session with a new one and queries
// the ringer source once for it.
func (d *Daemon) StartSession() string {
	session := newSession(d, d.audio, d.haptic, d.logger)

	d.mu.Lock()
	previous := d.session
	d.session = session
	d.mu.Unlock()

	d.logger.Info("keyboard session started",
		"session", session.ID,
		"previous", previous.ID,
		"previous_age", time.Since(previous.StartedAt).Round(time.Millisecond))

	if d.source == nil {
		return session.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), ringerQueryTimeout)
	defer cancel()
	state, err := d.source.Current(ctx)
	if err != nil {
		d.logger.Debug("ringer query failed, session stays silent", "session", session.ID, "error", err)
		return session.ID
	}
	d.refreshRinger(state)
	return session.ID
}

// notifyingAudio reports audio sink failures to the user.
type notifyingAudio struct {
	sink     feedback.AudioSink
	notifier *InternalNotifier
}

func (a *notifyingAudio) PlaySound(variant feedback.SoundVariant, volume float64) error {
	err := a.sink.PlaySound(variant, volume)
	if err != nil {
		a.notifier.NotifyAudioError(err)
	}
	return err
}

// notifyingHaptic reports haptic sink failures to the user.
type notifyingHaptic struct {
	sink     feedback.HapticSink
	notifier *InternalNotifier
}

func (h *notifyingHaptic) Vibrate(mode feedback.VibrationMode) error {
	err := h.sink.Vibrate(mode)
	if err != nil {
		h.notifier.NotifyHapticError(err)
	}
	return err
}
