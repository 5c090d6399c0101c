package main

import (
	"context"
	"fmt"
	"slices"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/audio"
	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/haptic"
	"github.com/jmylchreest/keyfx/internal/ringer"
	"github.com/jmylchreest/keyfx/internal/tui"
)

const appID = "io.github.jmylchreest.keyfx"

var tryOpts struct {
	ringer   string
	noSound  bool
	noHaptic bool
}

var tryCmd = &cobra.Command{
	Use:   "try",
	Short: "Launch the interactive feedback tester",
	Long: `Launch an interactive tester. Every key you type runs the feedback
policy locally and plays the result through the configured sound and
haptic backends, without going through keyfxd.

The ringer follows the configured ringer source unless --ringer is given.

Key bindings:
  f1          Show help
  f2/f3       Toggle sound/vibration
  f4          Toggle ringer normal/silent
  f5/f6       Volume down/up
  f7/f8       Vibration duration down/up
  f9          Haptic-only repeat
  ctrl+l      Clear
  esc         Quit`,
	RunE: runTry,
}

func init() {
	rootCmd.AddCommand(tryCmd)

	tryCmd.Flags().StringVar(&tryOpts.ringer, "ringer", "",
		"Ringer source (feedbackd, state-file, normal, silent; default from config)")
	tryCmd.Flags().BoolVar(&tryOpts.noSound, "no-sound", false,
		"Do not play clicks, only show decisions")
	tryCmd.Flags().BoolVar(&tryOpts.noHaptic, "no-haptic", false,
		"Do not vibrate, only show decisions")
}

func runTry(cmd *cobra.Command, args []string) error {
	c := getConfig()

	ringerCfg := c.Ringer
	if tryOpts.ringer != "" {
		if !slices.Contains(config.ValidRingerSources(), config.RingerSource(tryOpts.ringer)) {
			return fmt.Errorf("unknown ringer source %q", tryOpts.ringer)
		}
		ringerCfg.Source = tryOpts.ringer
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// D-Bus is optional here; without it only the local backends work.
	conn, err := godbus.SessionBus()
	if err != nil {
		logger.Debug("no session bus, haptics and feedbackd ringer unavailable", "error", err)
		conn = nil
	}

	var sound feedback.AudioSink = feedback.NopAudio{}
	if !tryOpts.noSound {
		manager := audio.NewManager(c, logger)
		if err := manager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}
		defer manager.Stop()
		sound = manager
	}

	var vibra feedback.HapticSink = feedback.NopHaptic{}
	if !tryOpts.noHaptic {
		vibra = haptic.New(conn, appID, c.Haptic, logger)
	}

	source, err := ringer.New(ringerCfg, conn, appID, logger)
	if err != nil {
		logger.Warn("ringer source unavailable, use f4 to toggle", "error", err)
	}

	return tui.Run(tui.RunOptions{
		Settings: c.Settings(),
		Audio:    sound,
		Haptic:   vibra,
		Ringer:   source,
		Logger:   logger,
	})
}
