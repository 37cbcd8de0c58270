package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/audiokeep/internal/config"
	"github.com/jmylchreest/audiokeep/internal/output"
)

var statusOpts struct {
	output   string
	template string
	quiet    bool // Suppress output, return exit code only
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the audio device is being kept awake",
	Long: `Show the keep-alive status reported by audiokeepd.

Output formats:
  text    Human readable (default)
  json    Session as JSON
  yaml    Session as YAML
  waybar  Waybar custom module JSON

Text output accepts a Go template with --format. Available fields:
  {{.State}} {{.Playing}} {{.ID}} {{.Strategy}} {{.StartedAt}} {{.Uptime}} {{.Since}}

Exit code: 0 = inactive, 1 = active.

Example Waybar module:

  "custom/audiokeep": {
    "exec": "audiokeep status --output waybar",
    "interval": 5,
    "return-type": "json",
    "on-click": "audiokeep toggle --quiet"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "",
		"Output format: text, json, yaml, waybar (default from config)")
	statusCmd.Flags().StringVar(&statusOpts.template, "format", "",
		"Go template for text output")
	statusCmd.Flags().BoolVarP(&statusOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=inactive, 1=active)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format := statusOpts.output
	if format == "" {
		format = cfg.Status.Output
	}
	if !slices.Contains(config.ValidOutputs(), format) {
		return fmt.Errorf("invalid output %q, must be one of: %v", format, config.ValidOutputs())
	}

	formatter, err := output.NewFormatter(output.FormatType(format), output.FormatterOptions{
		Template: statusOpts.template,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		// Waybar expects JSON even when the daemon is down
		if format == string(output.FormatWaybar) && !statusOpts.quiet {
			return output.WriteWaybar(os.Stdout, output.WaybarError(err))
		}
		return err
	}

	info, err := client.Session(ctx)
	if err != nil {
		return err
	}

	if !statusOpts.quiet {
		if err := formatter.Format(os.Stdout, info); err != nil {
			return err
		}
	}

	// Exit code 1 means keep-alive is active
	if info.Playing {
		os.Exit(1)
	}
	return nil
}
