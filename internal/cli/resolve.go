package cli

import (
	"context"
	"net"
	"time"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/player"
	"github.com/wiimctl/wiimctl/internal/wizard"
)

// newPlayer builds a player for host, applying the model-specific source
// profile when the device reports one.
func newPlayer(ctx context.Context, host, name string) *player.Player {
	if status, err := linkplay.NewClient(host).GetDeviceStatus(ctx); err == nil {
		if name == "" {
			name = status.DeviceName
		}
		return player.NewPlayer(host, name, player.WithProfile(linkplay.ProfileFor(status.Project)))
	}
	return player.NewPlayer(host, name)
}

// resolveHost turns a device identifier (IP, name, alias, or empty for the
// configured default) into a reachable host, discovering devices on the
// network when needed. With no identifier and no default, an interactive
// picker is shown when more than one device is found.
func resolveHost(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		identifier = cfg.Devices.Default
	}
	if alias, ok := cfg.Devices.Aliases[identifier]; ok {
		identifier = alias
	}

	// Literal IPs skip discovery entirely.
	if net.ParseIP(identifier) != nil {
		return identifier, nil
	}

	timeout := time.Duration(cfg.Devices.DiscoveryTimeout) * time.Second
	discovery := linkplay.NewDiscovery(timeout)
	for alias, target := range cfg.Devices.Aliases {
		discovery.SetAlias(alias, target)
	}

	devices, err := discovery.Discover(ctx)
	if err != nil && len(devices) == 0 {
		return "", errors.WithSuggestion(err, "Check that your speakers are on the same network")
	}
	if len(devices) == 0 {
		return "", errors.ErrDeviceNotFound
	}

	if identifier != "" {
		if dev := discovery.GetDevice(identifier); dev != nil {
			return dev.IP, nil
		}
		return "", errors.ErrDeviceNotFound
	}

	if len(devices) == 1 {
		return devices[0].IP, nil
	}

	selected, err := wizard.PickDevice(devices)
	if err != nil {
		return "", err
	}
	return selected.IP, nil
}
