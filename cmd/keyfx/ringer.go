package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	godbus "github.com/godbus/dbus/v5"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/ringer"
)

var ringerCmd = &cobra.Command{
	Use:   "ringer [normal|silent]",
	Short: "Show or override keyfxd's ringer state",
	Long: `Without arguments, print the ringer state keyfxd is using.

With an argument, override it until the configured ringer source reports
a change. When keyfxd follows feedbackd, the feedbackd profile is switched
too ("full" for normal, "silent" for silent) so the override sticks.
Clicks only play in normal mode.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"normal", "silent"},
	RunE:      runRinger,
}

var sessionCmd = &cobra.Command{
	Use:   "session [new]",
	Short: "Show or restart keyfxd's keyboard session",
	Long: `Without arguments, print the current keyboard session id.

'keyfx session new' starts a fresh session. The new session is silent until
keyfxd has looked up the ringer state again.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"new"},
	RunE:      runSession,
}

func init() {
	rootCmd.AddCommand(ringerCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runRinger(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		state, err := feedback.ParseRingerState(args[0])
		if err != nil {
			return err
		}
		if config.RingerSource(getConfig().Ringer.Source) == config.RingerSourceFeedbackd {
			conn, err := godbus.SessionBus()
			if err != nil {
				return fmt.Errorf("failed to connect to session bus: %w", err)
			}
			if err := setFeedbackdProfile(dbus.NewFeedbackd(conn, appID, logger), state); err != nil {
				return err
			}
		}
		if err := client.SetRingerState(ctx, state); err != nil {
			return err
		}
	}

	state, err := client.RingerState(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Ringer: %s\n", state)
	return nil
}

type profileSetter interface {
	SetProfile(profile string) error
}

func setFeedbackdProfile(setter profileSetter, state feedback.RingerState) error {
	profile := ringer.ProfileFor(state)
	if err := setter.SetProfile(profile); err != nil {
		return err
	}
	logger.Debug("feedbackd profile set", "profile", profile, "ringer", state)
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		if args[0] != "new" {
			return fmt.Errorf("unknown session action %q", args[0])
		}
		id, err = client.StartSession(ctx)
	} else {
		id, err = client.SessionID(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Println(id)
	if u, err := ulid.Parse(id); err == nil {
		fmt.Printf("  Started: %s\n", humanize.Time(ulid.Time(u.Time())))
	}
	return nil
}
