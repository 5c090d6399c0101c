package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/output"
)

var pressOpts struct {
	dryRun bool
	format string
}

var pressCmd = &cobra.Command{
	Use:   "press KEY...",
	Short: "Ask keyfxd to give feedback for keys",
	Long: `Send key presses to the running keyfxd, which plays the click and
vibrates according to its settings and current ringer state. The decision
keyfxd made for each key is printed.

With --dry-run keyfxd only reports what it would do.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPress,
}

func init() {
	rootCmd.AddCommand(pressCmd)

	pressCmd.Flags().BoolVarP(&pressOpts.dryRun, "dry-run", "n", false,
		"Report the decision without playing or vibrating")
	pressCmd.Flags().StringVarP(&pressOpts.format, "output", "o", "plain",
		"Output format (plain, json, yaml)")
}

func runPress(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(pressOpts.format)
	if err != nil {
		return err
	}

	codes := make([]feedback.KeyCode, 0, len(args))
	for _, arg := range args {
		code, err := feedback.ParseKeyCode(arg)
		if err != nil {
			return err
		}
		codes = append(codes, code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}

	state, err := client.RingerState(ctx)
	if err != nil {
		return err
	}

	reports := make([]feedback.Report, 0, len(codes))
	for _, code := range codes {
		var d feedback.Decision
		if pressOpts.dryRun {
			d, err = client.Decide(ctx, code)
		} else {
			d, err = client.KeyPressed(ctx, code)
		}
		if err != nil {
			return err
		}
		reports = append(reports, feedback.NewReport(code, state, d))
	}

	return output.NewFormatter(format, output.DefaultFormatterOptions()).Format(os.Stdout, reports)
}
