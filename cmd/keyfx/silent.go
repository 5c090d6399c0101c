package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/store"
)

var silentOpts struct {
	quiet bool // Suppress output, return exit code only
}

// silentCmd represents the silent command group.
var silentCmd = &cobra.Command{
	Use:   "silent",
	Short: "Manage the shared silent flag",
	Long: `Manage the silent flag shared with keyfxd.

When keyfxd uses the state-file ringer source, turning silent on acts like
switching the ringer to silent: key clicks stop, vibration continues.

Use 'keyfx silent status' to check the current state.
Use 'keyfx silent on' to silence key clicks.
Use 'keyfx silent off' to allow key clicks.
Use 'keyfx silent toggle' to flip the flag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing status
		return silentStatusRun(cmd, args)
	},
}

var silentOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Silence key clicks",
	RunE:  silentOnRun,
}

var silentOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Allow key clicks",
	RunE:  silentOffRun,
}

var silentToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the silent flag",
	RunE:  silentToggleRun,
}

var silentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the silent flag",
	RunE:  silentStatusRun,
}

func init() {
	silentCmd.AddCommand(silentOnCmd)
	silentCmd.AddCommand(silentOffCmd)
	silentCmd.AddCommand(silentToggleCmd)
	silentCmd.AddCommand(silentStatusCmd)

	for _, cmd := range []*cobra.Command{silentCmd, silentOnCmd, silentOffCmd, silentToggleCmd, silentStatusCmd} {
		cmd.Flags().BoolVarP(&silentOpts.quiet, "quiet", "q", false,
			"Suppress output, return exit code only (0=off, 1=on)")
	}

	rootCmd.AddCommand(silentCmd)
}

// updateSilent loads the shared state, applies change and saves it.
func updateSilent(change func(state *store.SharedState)) (*store.SharedState, error) {
	state, err := store.LoadSharedState()
	if errors.Is(err, store.ErrCorruptState) {
		// Setting the flag replaces the unreadable file.
		logger.Warn("replacing corrupt state file", "error", err)
		state, err = store.DefaultSharedState(), nil
	}
	if err != nil {
		if !silentOpts.quiet {
			fmt.Fprintf(os.Stderr, "Failed to load state: %v\n", err)
		}
		return nil, err
	}

	change(state)
	if err := store.SaveSharedState(state); err != nil {
		if !silentOpts.quiet {
			fmt.Fprintf(os.Stderr, "Failed to save state: %v\n", err)
		}
		return nil, err
	}
	return state, nil
}

func silentOnRun(cmd *cobra.Command, args []string) error {
	state, err := updateSilent(func(s *store.SharedState) {
		s.SetSilent(true, store.TriggerUser, "silent on", "cli")
	})
	if err != nil {
		return err
	}
	return reportSilent(state)
}

func silentOffRun(cmd *cobra.Command, args []string) error {
	state, err := updateSilent(func(s *store.SharedState) {
		s.SetSilent(false, store.TriggerUser, "silent off", "cli")
	})
	if err != nil {
		return err
	}
	return reportSilent(state)
}

func silentToggleRun(cmd *cobra.Command, args []string) error {
	state, err := updateSilent(func(s *store.SharedState) {
		s.ToggleSilent(store.TriggerUser, "silent toggle", "cli")
	})
	if err != nil {
		return err
	}
	return reportSilent(state)
}

func silentStatusRun(cmd *cobra.Command, args []string) error {
	state, err := store.LoadSharedState()
	if err != nil {
		if !silentOpts.quiet {
			fmt.Fprintf(os.Stderr, "Failed to load state: %v\n", err)
		}
		return err
	}

	if !silentOpts.quiet {
		printSilent(state)
		if t := state.LastTransition; t != nil {
			fmt.Printf("  Last change: %s\n", formatTransitionTime(t.Timestamp))
			fmt.Printf("  Trigger: %s\n", t.Trigger)
			if t.Reason != "" {
				fmt.Printf("  Reason: %s\n", t.Reason)
			}
			if t.Source != "" {
				fmt.Printf("  Source: %s\n", t.Source)
			}
		}
	}
	return exitSilent(state)
}

// reportSilent prints the flag and exits with status 1 when silent is on.
func reportSilent(state *store.SharedState) error {
	if !silentOpts.quiet {
		printSilent(state)
	}
	return exitSilent(state)
}

func printSilent(state *store.SharedState) {
	if state.Silent {
		fmt.Println("Silent: on")
	} else {
		fmt.Println("Silent: off")
	}
}

// exitSilent exits with code 1 when silent is on (0=off, 1=on).
func exitSilent(state *store.SharedState) error {
	if state.Silent {
		os.Exit(1)
	}
	return nil
}

// formatTransitionTime formats a unix timestamp as a human-readable relative time.
func formatTransitionTime(timestamp int64) string {
	return humanize.Time(time.Unix(timestamp, 0))
}
