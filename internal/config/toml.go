package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset fields keep the
// lower-precedence value.
type FileConfig struct {
	Server    ServerConfig    `toml:"server"`
	Layout    LayoutConfig    `toml:"layout"`
	Selection SelectionConfig `toml:"selection"`
	Gesture   GestureConfig   `toml:"gesture"`
	Keyboard  KeyboardConfig  `toml:"keyboard"`
	Touch     TouchConfig     `toml:"touch"`
	Journal   JournalConfig   `toml:"journal"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig maps transport settings.
type ServerConfig struct {
	Socket      *string `toml:"socket"`
	WSAddr      *string `toml:"ws-addr"`
	EarlyCancel *bool   `toml:"early-cancel"`
}

// LayoutConfig maps the radial geometry. A non-empty Sector list replaces the
// default sectors.
type LayoutConfig struct {
	CenterX     *float64       `toml:"center-x"`
	CenterY     *float64       `toml:"center-y"`
	AngleOffset *float64       `toml:"angle-offset-deg"`
	Sector      []SectorConfig `toml:"sector"`
}

// SectorConfig is one [[layout.sector]] table.
type SectorConfig struct {
	Label string   `toml:"label"`
	Keys  []string `toml:"keys"`
}

// SelectionConfig maps the tracker radius bands.
type SelectionConfig struct {
	Deadzone        *float64 `toml:"deadzone"`
	Inner           *float64 `toml:"inner"`
	InnerHysteresis *float64 `toml:"inner-hysteresis"`
	AngleHysteresis *float64 `toml:"angle-hysteresis-deg"`
}

// GestureConfig maps swipe thresholds.
type GestureConfig struct {
	MinDistance *float64 `toml:"min-distance"`
	MaxDuration *int64   `toml:"max-duration-ms"`
	MinVelocity *float64 `toml:"min-velocity"`
}

// KeyboardConfig maps the virtual keyboard backend.
type KeyboardConfig struct {
	Enabled  *bool   `toml:"enabled"`
	Path     *string `toml:"path"`
	Cooldown *int64  `toml:"cooldown-ms"`
}

// TouchConfig maps the raw touch backend.
type TouchConfig struct {
	Device  *string `toml:"device"`
	SwapXY  *bool   `toml:"swap-xy"`
	InvertX *bool   `toml:"invert-x"`
	InvertY *bool   `toml:"invert-y"`
}

// JournalConfig maps the usage journal.
type JournalConfig struct {
	Enabled *bool   `toml:"enabled"`
	DBPath  *string `toml:"db"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
