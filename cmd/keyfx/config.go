package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/keyfx/internal/config"
)

var configOpts struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the keyfxd configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := toml.Marshal(getConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to the config path. An existing file is
left alone unless --force is given. keyfxd picks up the change without a
restart.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configOpts.force, "force", "f", false,
		"Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configOpts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.SaveDaemonConfigFile(config.DefaultDaemonConfig(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Println("Wrote", path)
	return nil
}
