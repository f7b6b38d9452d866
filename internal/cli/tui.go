package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/tui"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:     "ui [device]",
	Aliases: []string{"tui", "watch"},
	Short:   "Launch the interactive now-playing dashboard",
	Long: `Launch the interactive terminal dashboard showing live playback state.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  Space        Play/Pause
  n            Next track
  p            Previous track
  +/-          Volume up/down
  m            Mute/Unmute`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds (default from config)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	identifier := ""
	if len(args) > 0 {
		identifier = args[0]
	}

	host, err := resolveHost(ctx, identifier)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	refresh := tuiRefresh
	if refresh <= 0 {
		refresh = cfg.TUI.RefreshInterval
	}
	if refresh <= 0 {
		refresh = 1000
	}

	return tui.Run(newPlayer(ctx, host, identifier), time.Duration(refresh)*time.Millisecond)
}
