package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var playbackOpts struct {
	quiet bool // Suppress output
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start keeping the audio device awake",
	Long:  `Ask audiokeepd to start keep-alive playback. Starting while already active does nothing.`,
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop keeping the audio device awake",
	Long:  `Ask audiokeepd to stop keep-alive playback and release the audio device.`,
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle keep-alive playback",
	Long: `Start keep-alive playback when inactive and stop it when active.

Exit code: 0 = now inactive, 1 = now active.`,
	Args: cobra.NoArgs,
	RunE: runToggle,
}

func init() {
	for _, cmd := range []*cobra.Command{startCmd, stopCmd, toggleCmd} {
		cmd.Flags().BoolVarP(&playbackOpts.quiet, "quiet", "q", false,
			"Suppress output")
		rootCmd.AddCommand(cmd)
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}

	if err := client.StartAudio(ctx); err != nil {
		return err
	}

	printPlayback(true)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}

	if err := client.StopAudio(ctx); err != nil {
		return err
	}

	printPlayback(false)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}

	playing, err := client.IsPlaying(ctx)
	if err != nil {
		return err
	}

	if playing {
		err = client.StopAudio(ctx)
	} else {
		err = client.StartAudio(ctx)
	}
	if err != nil {
		return err
	}

	printPlayback(!playing)

	// Exit code: 0=inactive, 1=active
	if !playing {
		os.Exit(1)
	}
	return nil
}

func printPlayback(enabled bool) {
	if playbackOpts.quiet {
		return
	}
	if enabled {
		fmt.Println("Keep-alive: enable requested")
	} else {
		fmt.Println("Keep-alive: disable requested")
	}
}
