package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/core"
	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/upnp"
)

var statusDevice string

var statusCmd = &cobra.Command{
	Use:   "status [device]",
	Short: "Show current playback status",
	Long:  `Shows the current playback status of a speaker, merged from its HTTP and UPnP feeds.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusDevice, "device", "d", "", "device name, alias, or IP")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	identifier := statusDevice
	if len(args) > 0 {
		identifier = args[0]
	}

	host, err := resolveHost(ctx, identifier)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	p := newPlayer(ctx, host, identifier)
	if err := p.Refresh(ctx); err != nil {
		// Some renderers expose no httpapi; try their UPnP transport.
		fields, upnpErr := upnp.NewAVTransport(0).Snapshot(ctx, host)
		if upnpErr != nil {
			fmt.Fprintln(os.Stderr, errors.Format(err))
			return err
		}
		p.HandleUPnPEvent(fields)
	}

	np := core.FromSnapshot(p.State())

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(np)
	}

	printNowPlaying(host, np)
	return nil
}

func printNowPlaying(host string, np core.NowPlaying) {
	if !np.HasTrack {
		fmt.Printf("%s: nothing playing\n", host)
		if np.HasVolume {
			fmt.Printf("  Volume: %d%%\n", np.Volume)
		}
		return
	}

	state := np.PlayState
	if state == "" {
		state = "unknown"
	}

	fmt.Printf("%s [%s]\n", host, state)
	fmt.Printf("  %s\n", np.Title)
	if np.Artist != "" {
		fmt.Printf("  by %s", np.Artist)
		if np.Album != "" {
			fmt.Printf(" — %s", np.Album)
		}
		fmt.Println()
	}
	if np.Duration > 0 {
		fmt.Printf("  %s / %s (%.0f%%)\n", formatDuration(np.Position), formatDuration(np.Duration), np.ProgressPercent())
	}
	if np.HasVolume {
		muted := ""
		if np.Muted {
			muted = " (muted)"
		}
		fmt.Printf("  Volume: %d%%%s\n", np.Volume, muted)
	}
	if np.Source != "" {
		fmt.Printf("  Source: %s\n", np.Source)
	}
}

// formatDuration formats a duration as M:SS or H:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
