package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/player"
	"github.com/wiimctl/wiimctl/internal/statesync"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage multiroom speaker groups",
}

var groupJoinCmd = &cobra.Command{
	Use:   "join <master> <slave>",
	Short: "Add a speaker to a group as slave of the master",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupJoin,
}

var groupLeaveCmd = &cobra.Command{
	Use:   "leave <device>",
	Short: "Remove a speaker from its group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupLeave,
}

var groupDissolveCmd = &cobra.Command{
	Use:   "dissolve <master>",
	Short: "Break up the group led by a master",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupDissolve,
}

var groupShowCmd = &cobra.Command{
	Use:   "show <master>",
	Short: "Show the aggregated state of a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupShow,
}

func init() {
	groupCmd.AddCommand(groupJoinCmd, groupLeaveCmd, groupDissolveCmd, groupShowCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupJoin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	masterHost, err := resolveHost(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}
	slaveHost, err := resolveHost(ctx, args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	if err := linkplay.NewClient(slaveHost).JoinGroup(ctx, masterHost); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	fmt.Printf("%s now follows %s\n", slaveHost, masterHost)
	return nil
}

func runGroupLeave(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	host, err := resolveHost(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	if err := linkplay.NewClient(host).LeaveGroup(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	fmt.Printf("%s left its group\n", host)
	return nil
}

func runGroupDissolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	host, err := resolveHost(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	if err := linkplay.NewClient(host).Ungroup(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	fmt.Printf("dissolved group led by %s\n", host)
	return nil
}

// runGroupShow builds a one-shot player topology for the master and its
// slaves, refreshes every member, and prints the aggregated group view.
func runGroupShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	masterHost, err := resolveHost(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	group, err := assembleGroup(ctx, masterHost)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	state, err := group.master.GroupState()
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(groupStateJSON(masterHost, group.slaveHosts, state))
	}

	fmt.Printf("Group: %s + %d slave(s)\n", masterHost, len(group.slaveHosts))
	for _, h := range group.slaveHosts {
		fmt.Printf("  - %s\n", h)
	}
	if state.Title != nil {
		line := *state.Title
		if state.Artist != nil {
			line += " — " + *state.Artist
		}
		fmt.Printf("  Playing: %s\n", line)
	}
	if state.PlayState != nil {
		fmt.Printf("  State: %s\n", *state.PlayState)
	}
	if state.VolumeLevel != nil {
		fmt.Printf("  Volume: %d%%", *state.VolumeLevel)
		if state.IsMuted != nil && *state.IsMuted {
			fmt.Print(" (muted)")
		}
		fmt.Println()
	}
	return nil
}

type assembledGroup struct {
	registry   *player.Registry
	master     *player.Player
	slaveHosts []string
}

// assembleGroup queries the master's slave list and builds refreshed players
// for every group member.
func assembleGroup(ctx context.Context, masterHost string) (*assembledGroup, error) {
	slaves, err := linkplay.NewClient(masterHost).GetSlaveList(ctx)
	if err != nil {
		return nil, fmt.Errorf("query slave list: %w", err)
	}
	if len(slaves) == 0 {
		return nil, errors.WithSuggestion(errors.ErrNotGrouped, "Use 'wiimctl group join' to create a group first")
	}

	registry := player.NewRegistry()
	master := newPlayer(ctx, masterHost, "")
	registry.Add(master)

	var slaveHosts []string
	for _, s := range slaves {
		registry.Add(newPlayer(ctx, s.IP, s.Name))
		slaveHosts = append(slaveHosts, s.IP)
	}

	ops := player.NewGroupOperations(registry)
	for _, h := range slaveHosts {
		ops.Attach(masterHost, h)
	}

	// Refresh the master last so propagation sees the slaves' own state.
	var result errors.PartialResult[int]
	for _, h := range slaveHosts {
		if err := registry.Get(h).Refresh(ctx); err != nil {
			result.AddError(fmt.Errorf("slave %s: %w", h, err))
			continue
		}
		result.Data++
	}
	if err := master.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh master: %w", err)
	}
	if result.HasErrors() {
		fmt.Fprintln(os.Stderr, result.ErrorSummary())
	}

	return &assembledGroup{registry: registry, master: master, slaveHosts: slaveHosts}, nil
}

type groupStateOut struct {
	Master    string   `json:"master"`
	Slaves    []string `json:"slaves"`
	PlayState *string  `json:"play_state"`
	Title     *string  `json:"title"`
	Artist    *string  `json:"artist"`
	Album     *string  `json:"album"`
	Source    *string  `json:"source"`
	Volume    *int     `json:"volume"`
	Muted     *bool    `json:"muted"`
}

func groupStateJSON(master string, slaves []string, state statesync.GroupState) groupStateOut {
	return groupStateOut{
		Master:    master,
		Slaves:    slaves,
		PlayState: state.PlayState,
		Title:     state.Title,
		Artist:    state.Artist,
		Album:     state.Album,
		Source:    state.Source,
		Volume:    state.VolumeLevel,
		Muted:     state.IsMuted,
	}
}
