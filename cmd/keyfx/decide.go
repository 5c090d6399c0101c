package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/output"
)

var decideOpts struct {
	sound    bool
	vibrate  bool
	volume   float64
	duration string
	ringer   string
	format   string
	template string
}

var decideCmd = &cobra.Command{
	Use:   "decide KEY...",
	Short: "Show the feedback decision for keys",
	Long: `Run the feedback policy locally and print what would happen for each key.

Settings come from the config file and can be overridden with flags. The
ringer state defaults to unknown, which behaves as silent: no clicks play
until a ringer state has been seen.

Keys may be named (delete, backspace, enter, return, space), given as a
single character, or as an integer key code.

Examples:
  # Decision for the enter key with config settings
  keyfx decide enter

  # Ringer in normal mode, explicit 30ms vibration
  keyfx decide --ringer normal --duration 30ms a space delete

  # Output as YAML
  keyfx decide --ringer normal --output yaml enter`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().BoolVar(&decideOpts.sound, "sound", true,
		"Key-click sounds enabled (overrides config)")
	decideCmd.Flags().BoolVar(&decideOpts.vibrate, "vibrate", true,
		"Vibration enabled (overrides config)")
	decideCmd.Flags().Float64Var(&decideOpts.volume, "volume", 0.5,
		"Click volume between 0 and 1 (overrides config)")
	decideCmd.Flags().StringVar(&decideOpts.duration, "duration", "",
		"Vibration duration: 'default', milliseconds or a duration like 25ms (overrides config)")
	decideCmd.Flags().StringVar(&decideOpts.ringer, "ringer", "",
		"Ringer state (normal, silent; empty = unknown)")
	decideCmd.Flags().StringVarP(&decideOpts.format, "output", "o", "plain",
		"Output format (plain, json, yaml)")
	decideCmd.Flags().StringVar(&decideOpts.template, "template", "",
		"Custom Go template for plain output")
}

func runDecide(cmd *cobra.Command, args []string) error {
	settings, err := decideSettings(cmd)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(decideOpts.format)
	if err != nil {
		return err
	}

	policy := feedback.NewPolicy()
	if decideOpts.ringer != "" {
		state, err := feedback.ParseRingerState(decideOpts.ringer)
		if err != nil {
			return err
		}
		policy.RefreshRingerState(state)
	}

	reports := make([]feedback.Report, 0, len(args))
	for _, arg := range args {
		code, err := feedback.ParseKeyCode(arg)
		if err != nil {
			return err
		}
		d := policy.Decide(code, settings)
		logger.Debug("decided", "key", code, "decision", d)
		reports = append(reports, feedback.NewReport(code, policy.RingerState(), d))
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = decideOpts.template
	return output.NewFormatter(format, opts).Format(os.Stdout, reports)
}

// decideSettings builds settings from config, overridden by explicitly set flags.
func decideSettings(cmd *cobra.Command) (feedback.Settings, error) {
	settings := getConfig().Settings()

	flags := cmd.Flags()
	if flags.Changed("sound") {
		settings.SoundEnabled = decideOpts.sound
	}
	if flags.Changed("vibrate") {
		settings.VibrationEnabled = decideOpts.vibrate
	}
	if flags.Changed("volume") {
		settings.FxVolume = decideOpts.volume
	}
	if flags.Changed("duration") {
		var d config.VibrationDuration
		if err := d.UnmarshalText([]byte(decideOpts.duration)); err != nil {
			return feedback.Settings{}, err
		}
		settings.VibrationDurationMs = d.Milliseconds()
	}

	if err := settings.Validate(); err != nil {
		return feedback.Settings{}, fmt.Errorf("--volume: %w", err)
	}
	return settings, nil
}
