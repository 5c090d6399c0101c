// Package main provides the CLI entrypoint for keyfx.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.DaemonConfig
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "keyfx",
	Short: "Key-click and haptic feedback for on-screen keyboards",
	Long: `keyfx controls and tests keyfxd, the key-click and haptic feedback
daemon for Linux on-screen keyboards.

keyfxd decides for every key press whether a click should play and whether
the device should vibrate, based on your settings and the ringer state.
Clicks only play while the ringer is in normal mode.

Running keyfx without a subcommand launches the interactive tester.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err = config.LoadDaemonConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	// Default to the tester when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTry(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/keyfx/keyfxd.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// configPath returns the config path from flags or the default location.
func configPath() (string, error) {
	if globalOpts.configPath != "" {
		return globalOpts.configPath, nil
	}
	path, err := config.DaemonConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}

// getConfig returns the loaded config, or defaults when none was loaded.
func getConfig() *config.DaemonConfig {
	if cfg == nil {
		return config.DefaultDaemonConfig()
	}
	return cfg
}
