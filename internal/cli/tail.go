package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/core"
	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/player"
	"github.com/wiimctl/wiimctl/internal/statesync"
	"github.com/wiimctl/wiimctl/internal/tail"
	"github.com/wiimctl/wiimctl/internal/upnp"
)

var (
	tailDevice    string
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail [device]",
	Short: "Follow playback changes in real-time",
	Long: `Watch for playback state changes and print them as they happen.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Pause/Resume
  - Volume and mute changes
  - Source changes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailDevice, "device", "d", "", "device to watch")
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", time.Second, "poll interval")

	rootCmd.AddCommand(tailCmd)
}

// playerSource adapts a Player to the watcher's state source.
type playerSource struct {
	p *player.Player
}

func (s playerSource) Refresh(ctx context.Context) error {
	return s.p.Refresh(ctx)
}

func (s playerSource) State() core.NowPlaying {
	return core.FromSnapshot(s.p.State())
}

func runTail(cmd *cobra.Command, args []string) error {
	identifier := tailDevice
	if len(args) > 0 {
		identifier = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host, err := resolveHost(ctx, identifier)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	p := newPlayer(ctx, host, identifier)

	// With eventing enabled, UPnP NOTIFYs land in the synchronizer between
	// polls and surface on the next watcher tick.
	if cfg.UPnP.Enabled {
		subscriber := upnp.NewSubscriber(cfg.UPnP.CallbackPort, func(_ string, fields map[statesync.Field]any) {
			p.HandleUPnPEvent(fields)
		})
		go func() {
			if err := subscriber.Start(ctx); err != nil && err != context.Canceled {
				fmt.Fprintln(os.Stderr, errors.Format(err))
			}
		}()
		if err := subscriber.Subscribe(ctx, host, upnp.DefaultPort); err != nil {
			fmt.Fprintln(os.Stderr, errors.Format(err))
		}
	}

	source := playerSource{p: p}
	watcher := tail.NewWatcher(source, tailInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			fmt.Println(formatter.Format(event))

		case err := <-errCh:
			if err == context.Canceled {
				return nil
			}
			return err
		}
	}
}
