package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Devices: DevicesConfig{
			DiscoveryTimeout: 5,
		},
		Poll: PollConfig{
			Interval: 5,
		},
		UPnP: UPnPConfig{
			Enabled:      true,
			CallbackPort: 8089,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Devices.DiscoveryTimeout == 0 {
		c.Devices.DiscoveryTimeout = d.Devices.DiscoveryTimeout
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = d.Poll.Interval
	}
	if c.UPnP.CallbackPort == 0 {
		c.UPnP.CallbackPort = d.UPnP.CallbackPort
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
