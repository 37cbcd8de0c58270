// Package main is the entry point for the audiokeepd keep-alive daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jmylchreest/audiokeep/internal/config"
	"github.com/jmylchreest/audiokeep/internal/daemon"
	"github.com/jmylchreest/audiokeep/internal/tray"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	noTray := flag.Bool("no-tray", false, "Run without a system tray icon (also AUDIOKEEP_NO_TRAY=1)")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/audiokeep/audiokeepd.toml)")
	flag.Parse()

	if *showVersion {
		fmt.Println("audiokeepd version", version)
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

	if err := run(logger, *configPath, *noTray || envBool("AUDIOKEEP_NO_TRAY")); err != nil {
		logger.Error("audiokeepd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("audiokeepd stopped")
}

func run(logger *slog.Logger, configPath string, noTray bool) error {
	logger.Info("starting audiokeepd", "version", version)

	if configPath == "" {
		var err error
		configPath, err = config.DaemonConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.LoadDaemonConfigFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	d, err := daemon.New(cfg, daemon.Options{
		ConfigPath: configPath,
		EnableBus:  true,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if noTray || !cfg.Tray.Enabled {
		logger.Info("running without tray")
		return d.Run(ctx)
	}

	// systray owns the main goroutine; the daemon runs beside it and takes
	// the tray down when it returns.
	tr := tray.New(d.HandleTrayAction, version, logger)
	d.SetStatusHandler(tr.SetPlaying)

	errCh := make(chan error, 1)
	tr.Run(func() {
		go func() {
			errCh <- d.Run(ctx)
			tr.Quit()
		}()
	})

	// The tray can exit on its own (e.g. the status notifier host went away).
	d.Quit()
	return <-errCh
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}
