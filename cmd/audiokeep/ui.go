package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/audiokeep/internal/tui"
)

var uiOpts struct {
	noWatch bool
}

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive status screen",
	Long: `Launch the interactive terminal interface showing whether the audio device
is being kept awake, with a button to enable or disable it.

Key bindings:
  space/enter/t  Enable or disable
  s              Enable
  x              Disable
  r              Refresh
  ?              Show help
  q              Quit`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().BoolVar(&uiOpts.noWatch, "no-watch", false,
		"Do not subscribe to daemon signals (poll only)")
}

func runUI(cmd *cobra.Command, args []string) error {
	client, err := connect(context.Background())
	if err != nil {
		return err
	}

	return tui.Run(tui.RunOptions{
		Config:  cfg,
		Backend: client,
		Watch:   !uiOpts.noWatch,
	})
}
