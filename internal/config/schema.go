package config

// Config is the root configuration structure.
type Config struct {
	Devices DevicesConfig `toml:"devices"`
	Poll    PollConfig    `toml:"poll"`
	UPnP    UPnPConfig    `toml:"upnp"`
	TUI     TUIConfig     `toml:"tui"`
	Log     LogConfig     `toml:"log"`
}

// DevicesConfig holds device selection settings.
type DevicesConfig struct {
	Default          string            `toml:"default"`
	Aliases          map[string]string `toml:"aliases"`
	DiscoveryTimeout int               `toml:"discovery_timeout"`
}

// PollConfig holds state polling settings.
type PollConfig struct {
	Interval int `toml:"interval"` // seconds between HTTP polls
}

// UPnPConfig holds UPnP eventing settings.
type UPnPConfig struct {
	Enabled      bool `toml:"enabled"`
	CallbackPort int  `toml:"callback_port"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"` // milliseconds
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
