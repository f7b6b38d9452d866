package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
)

var controlDevice string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Play(ctx)
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Pause(ctx)
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between play and pause",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Toggle(ctx)
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Next(ctx)
		})
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Skip to the previous track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Previous(ctx)
		})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <seconds>",
	Short: "Seek to a position in the current track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := parseSeekTarget(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.Seek(ctx, seconds)
		})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Get or set the volume (0-100)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVolume,
}

var muteCmd = &cobra.Command{
	Use:   "mute [on|off]",
	Short: "Mute or unmute the speaker",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMute,
}

func init() {
	for _, c := range []*cobra.Command{playCmd, pauseCmd, toggleCmd, nextCmd, prevCmd, seekCmd, volumeCmd, muteCmd} {
		c.Flags().StringVarP(&controlDevice, "device", "d", "", "device name, alias, or IP")
		rootCmd.AddCommand(c)
	}
}

// withClient resolves the target device and runs fn against its client.
func withClient(fn func(ctx context.Context, c *linkplay.Client) error) error {
	ctx := context.Background()

	host, err := resolveHost(ctx, controlDevice)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	if err := fn(ctx, linkplay.NewClient(host)); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			status, err := c.GetPlayerStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s%%\n", status.Vol)
			return nil
		})
	}

	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid volume %q: must be 0-100", args[0])
	}
	return withClient(func(ctx context.Context, c *linkplay.Client) error {
		return c.SetVolume(ctx, level)
	})
}

func runMute(cmd *cobra.Command, args []string) error {
	muted := true
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			muted = true
		case "off", "false", "0":
			muted = false
		default:
			return fmt.Errorf("invalid mute state %q: use on or off", args[0])
		}
	}
	return withClient(func(ctx context.Context, c *linkplay.Client) error {
		return c.SetMute(ctx, muted)
	})
}

// parseSeekTarget accepts plain seconds or M:SS.
func parseSeekTarget(s string) (int, error) {
	if !strings.Contains(s, ":") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid seek target %q", s)
		}
		return n, nil
	}

	parts := strings.SplitN(s, ":", 2)
	m, err1 := strconv.Atoi(parts[0])
	sec, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, fmt.Errorf("invalid seek target %q", s)
	}
	return m*60 + sec, nil
}
