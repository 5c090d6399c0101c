// Package main is the entry point for the keyfxd keyboard feedback daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/keyfx/internal/audio"
	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/daemon"
	"github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/haptic"
	"github.com/jmylchreest/keyfx/internal/ringer"
)

const appID = "io.github.jmylchreest.keyfxd"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default ~/.config/keyfx/keyfxd.toml)")
	ringerSource := flag.String("ringer", "", "Override the ringer source (feedbackd, state-file, normal, silent)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("keyfxd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, *ringerSource, logger); err != nil {
		logger.Error("keyfxd failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, ringerOverride string, logger *slog.Logger) error {
	logger.Info("starting keyfxd", "version", version)

	if configPath == "" {
		path, err := config.DaemonConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		configPath = path
	}

	cfg, err := config.LoadDaemonConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if ringerOverride != "" {
		cfg.Ringer.Source = ringerOverride
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid -ringer: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	audioManager := audio.NewManager(cfg, logger)
	if err := audioManager.Start(ctx); err != nil {
		logger.Warn("failed to start audio manager", "error", err)
	}
	defer audioManager.Stop()

	hapticSink := haptic.New(conn, appID, cfg.Haptic, logger)

	source, err := ringer.New(cfg.Ringer, conn, appID, logger)
	if err != nil {
		return fmt.Errorf("failed to create ringer source: %w", err)
	}

	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetSender(func(n dbus.DesktopNotification) error {
		_, err := dbus.SendNotification(conn, n)
		return err
	})

	d := daemon.New(daemon.Options{
		Config:   cfg,
		Audio:    audioManager,
		Haptic:   hapticSink,
		Ringer:   source,
		Notifier: notifier,
		Logger:   logger,
	})

	server := dbus.NewServer(d, logger)
	if err := server.Start(conn); err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}
	defer func() { _ = server.Stop() }()
	d.SetSignalEmitter(server.EmitRingerStateChanged)

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	defer func() {
		if err := d.Stop(); err != nil {
			logger.Warn("error stopping daemon", "error", err)
		}
	}()

	configWatcher := config.NewWatcher(configPath, cfg, logger)
	configWatcher.SetReloadCallback(func(newCfg *config.DaemonConfig) {
		if ringerOverride != "" {
			newCfg.Ringer.Source = ringerOverride
		}
		if newCfg.Ringer.Source != d.Config().Ringer.Source {
			logger.Warn("ringer source changes need a restart", "configured", newCfg.Ringer.Source)
		}
		d.ApplyConfig(newCfg)
	})
	configWatcher.SetErrorCallback(d.ConfigError)
	if err := configWatcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	defer func() { _ = configWatcher.Stop() }()

	logger.Info("keyfxd ready",
		"session", d.SessionID(),
		"ringer", cfg.Ringer.Source,
		"haptic", cfg.Haptic.Backend,
		"initial", feedback.RingerSilent.String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	return nil
}
