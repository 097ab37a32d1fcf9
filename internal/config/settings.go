package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	SocketPath  string `env:"RADIALKB_SOCKET"`
	WSAddr      string `env:"RADIALKB_WS_ADDR"`
	EarlyCancel bool

	Layout     model.LayoutConfig
	Sectors    []model.Sector
	Tuning     model.SelectionTuning
	Thresholds model.GestureThresholds

	Keyboard KeyboardSettings
	Touch    TouchSettings
	Journal  JournalSettings
	Log      LogSettings
}

// KeyboardSettings configures the virtual keyboard.
type KeyboardSettings struct {
	Enabled  bool `env:"RADIALKB_KEYBOARD_ENABLED"`
	Path     string
	Cooldown time.Duration
}

// TouchSettings configures the raw touch backend. An empty Device disables it.
type TouchSettings struct {
	Device  string `env:"RADIALKB_TOUCH_DEVICE"`
	SwapXY  bool
	InvertX bool
	InvertY bool
}

// JournalSettings configures the usage journal.
type JournalSettings struct {
	Enabled bool `env:"RADIALKB_JOURNAL_ENABLED"`
	DBPath  string
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `env:"RADIALKB_LOG_LEVEL"`
	Format string `env:"RADIALKB_LOG_FORMAT"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		SocketPath: DefaultSocketPath(),
		Layout:     model.DefaultLayoutConfig(),
		Sectors:    layout.DefaultSectors(),
		Tuning:     model.DefaultSelectionTuning(),
		Thresholds: model.DefaultGestureThresholds(),
		Keyboard: KeyboardSettings{
			Enabled:  true,
			Path:     "/dev/uinput",
			Cooldown: 2000 * time.Millisecond,
		},
		Journal: JournalSettings{DBPath: DefaultDBPath()},
		Log:     LogSettings{Level: "info", Format: "console"},
	}
}

// Apply overlays the set fields of a config file.
func (s *Settings) Apply(fc FileConfig) error {
	setString(&s.SocketPath, fc.Server.Socket)
	setString(&s.WSAddr, fc.Server.WSAddr)
	setBool(&s.EarlyCancel, fc.Server.EarlyCancel)

	setFloat(&s.Layout.CenterX, fc.Layout.CenterX)
	setFloat(&s.Layout.CenterY, fc.Layout.CenterY)
	if fc.Layout.AngleOffset != nil {
		s.Layout.AngleOffsetRad = degToRad(*fc.Layout.AngleOffset)
	}
	if len(fc.Layout.Sector) > 0 {
		sectors := make([]model.Sector, 0, len(fc.Layout.Sector))
		for _, sc := range fc.Layout.Sector {
			sector, err := layout.ParseSector(sc.Label, sc.Keys)
			if err != nil {
				return err
			}
			sectors = append(sectors, sector)
		}
		s.Sectors = sectors
		s.Layout.Sectors = len(sectors)
	}

	setFloat(&s.Tuning.DeadzoneRadius, fc.Selection.Deadzone)
	setFloat(&s.Tuning.InnerRadius, fc.Selection.Inner)
	setFloat(&s.Tuning.InnerHysteresis, fc.Selection.InnerHysteresis)
	if fc.Selection.AngleHysteresis != nil {
		s.Tuning.AngleHysteresis = degToRad(*fc.Selection.AngleHysteresis)
	}

	setFloat(&s.Thresholds.MinDistanceNorm, fc.Gesture.MinDistance)
	if fc.Gesture.MaxDuration != nil {
		s.Thresholds.MaxDurationMs = *fc.Gesture.MaxDuration
	}
	setFloat(&s.Thresholds.MinVelocityNormPerMs, fc.Gesture.MinVelocity)

	setBool(&s.Keyboard.Enabled, fc.Keyboard.Enabled)
	setString(&s.Keyboard.Path, fc.Keyboard.Path)
	if fc.Keyboard.Cooldown != nil {
		s.Keyboard.Cooldown = time.Duration(*fc.Keyboard.Cooldown) * time.Millisecond
	}

	setString(&s.Touch.Device, fc.Touch.Device)
	setBool(&s.Touch.SwapXY, fc.Touch.SwapXY)
	setBool(&s.Touch.InvertX, fc.Touch.InvertX)
	setBool(&s.Touch.InvertY, fc.Touch.InvertY)

	setBool(&s.Journal.Enabled, fc.Journal.Enabled)
	setString(&s.Journal.DBPath, fc.Journal.DBPath)

	setString(&s.Log.Level, fc.Log.Level)
	setString(&s.Log.Format, fc.Log.Format)
	return nil
}

// ApplyEnv loads dotenv (when present) and overlays RADIALKB_* variables.
// Variables already set in the environment win over the dotenv file.
func (s *Settings) ApplyEnv(dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Resolve builds validated settings from defaults, the config file and the
// environment, in that order.
func Resolve(fc FileConfig, dotenv string) (Settings, error) {
	s := Defaults()
	if err := s.Apply(fc); err != nil {
		return Settings{}, err
	}
	if err := s.ApplyEnv(dotenv); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the engine cannot run with.
func (s Settings) Validate() error {
	if s.SocketPath == "" {
		return fmt.Errorf("socket path must not be empty")
	}
	if s.Layout.Sectors < 1 {
		return fmt.Errorf("layout must have at least one sector")
	}
	if !unit(s.Layout.CenterX) || !unit(s.Layout.CenterY) {
		return fmt.Errorf("layout center must be within [0,1]")
	}
	if s.Tuning.DeadzoneRadius < 0 {
		return fmt.Errorf("selection.deadzone must be >= 0")
	}
	if s.Tuning.InnerRadius <= s.Tuning.DeadzoneRadius {
		return fmt.Errorf("selection.inner must be > selection.deadzone")
	}
	if s.Tuning.InnerHysteresis < 0 || s.Tuning.AngleHysteresis < 0 {
		return fmt.Errorf("selection hysteresis must be >= 0")
	}
	if s.Thresholds.MinDistanceNorm < 0 || s.Thresholds.MaxDurationMs < 0 || s.Thresholds.MinVelocityNormPerMs < 0 {
		return fmt.Errorf("gesture thresholds must be >= 0")
	}
	if s.Keyboard.Cooldown < 0 {
		return fmt.Errorf("keyboard.cooldown-ms must be >= 0")
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", s.Log.Format)
	}
	return nil
}

// BuildLayout constructs the layout described by the settings.
func (s Settings) BuildLayout() (*layout.Layout, error) {
	return layout.New(s.Layout, s.Sectors)
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

func setBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
