// Package main provides the CLI entrypoint for audiokeep.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/audiokeep/internal/config"
	"github.com/jmylchreest/audiokeep/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "audiokeep",
	Short: "Keep audio output devices awake",
	Long: `audiokeep controls audiokeepd, a small daemon that stops Bluetooth and
USB audio devices from suspending by playing inaudible audio.

Running audiokeep without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, dbus.ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "audiokeepd is not running")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/audiokeep/config.toml)")
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

// connect returns a client for a running daemon.
func connect(ctx context.Context) (*dbus.Client, error) {
	client, err := dbus.NewClient(cfg.Bus.Timeout.Duration())
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
