package wizard

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
)

// PickDevice shows an interactive picker for a list of discovered devices
// and returns the chosen one.
func PickDevice(devices []*linkplay.Device) (*linkplay.Device, error) {
	if len(devices) == 0 {
		return nil, errors.ErrDeviceNotFound
	}
	if len(devices) == 1 {
		return devices[0], nil
	}

	var options []huh.Option[string]
	for _, d := range devices {
		label := d.IP
		if d.Name != "" {
			label = fmt.Sprintf("%s (%s)", d.Name, d.IP)
		} else if d.Model != "" {
			label = fmt.Sprintf("%s (%s)", d.IP, d.Model)
		}
		options = append(options, huh.NewOption(label, d.UUID))
	}

	var selectedUUID string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select speaker").
				Options(options...).
				Value(&selectedUUID),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	for _, d := range devices {
		if d.UUID == selectedUUID {
			return d, nil
		}
	}
	return nil, errors.ErrDeviceNotFound
}
