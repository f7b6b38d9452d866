package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/core"
	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Discover speakers on the network",
	Long:  `Scans the local network for WiiM and LinkPlay speakers via SSDP and lists what it finds.`,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	timeout := time.Duration(cfg.Devices.DiscoveryTimeout) * time.Second
	discovery := linkplay.NewDiscovery(timeout)

	discovered, err := discovery.Discover(ctx)
	if err != nil && len(discovered) == 0 {
		err = errors.WithSuggestion(err, "Check that your speakers are on the same network")
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return err
	}

	devices := make([]core.Device, 0, len(discovered))
	for _, d := range discovered {
		devices = append(devices, describeDevice(ctx, d))
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No speakers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIP\tMODEL\tROLE\tSEEN")
	for _, dev := range devices {
		name := dev.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, dev.IP, dev.Model, dev.Role, humanize.Time(dev.LastSeen))
	}
	return w.Flush()
}

// describeDevice enriches a discovery result with the device's own status
// report. Unreachable devices keep their SSDP-derived fields.
func describeDevice(ctx context.Context, d *linkplay.Device) core.Device {
	dev := core.Device{
		ID:       d.UUID,
		Name:     d.Name,
		IP:       d.IP,
		Model:    d.Model,
		Role:     core.RoleStandalone,
		LastSeen: d.LastSeen,
	}

	client := linkplay.NewClient(d.IP)
	status, err := client.GetDeviceStatus(ctx)
	if err != nil {
		return dev
	}

	if status.DeviceName != "" {
		dev.Name = status.DeviceName
	}
	if status.Project != "" {
		dev.Model = status.Project
	}
	dev.Firmware = status.Firmware

	if status.GroupMode != "" && status.GroupMode != "0" {
		dev.Role = core.RoleSlave
	} else if slaves, err := client.GetSlaveList(ctx); err == nil && len(slaves) > 0 {
		dev.Role = core.RoleMaster
	}

	return dev
}
