package linkplay

import (
	"context"
	"encoding/json"
	"fmt"
)

type eqListResponse []string

// GetEQPresets returns the equalizer preset names the device supports.
func (c *Client) GetEQPresets(ctx context.Context) ([]string, error) {
	body, err := c.command(ctx, "EQGetList")
	if err != nil {
		return nil, err
	}

	var presets eqListResponse
	if err := json.Unmarshal(body, &presets); err != nil {
		return nil, fmt.Errorf("parse eq presets: %w", err)
	}
	return presets, nil
}

// SetEQPreset activates an equalizer preset by name.
func (c *Client) SetEQPreset(ctx context.Context, name string) error {
	return c.commandOK(ctx, "EQLoad:"+name)
}

// DisableEQ turns the equalizer off.
func (c *Client) DisableEQ(ctx context.Context) error {
	return c.commandOK(ctx, "EQOff")
}
