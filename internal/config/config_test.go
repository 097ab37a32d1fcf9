package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/radialkb/internal/model"
)

const sampleConfig = `
[server]
socket = "/tmp/from-file.sock"
early-cancel = true

[layout]
angle-offset-deg = 90

[[layout.sector]]
label = "AB"
keys = ["a", "b"]

[[layout.sector]]
label = "act"
keys = ["@space", "@@", "@backspace"]

[selection]
deadzone = 0.1
inner = 0.3

[keyboard]
cooldown-ms = 500

[journal]
enabled = true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Server.Socket != nil || len(cfg.Layout.Sector) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[server]\nsockett = \"x\"\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "sockett") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestResolveFileThenEnv(t *testing.T) {
	t.Setenv("RADIALKB_SOCKET", "")
	t.Setenv("RADIALKB_LOG_LEVEL", "debug")
	t.Setenv("RADIALKB_KEYBOARD_ENABLED", "false")
	os.Unsetenv("RADIALKB_SOCKET")

	fc, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := Resolve(fc, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.SocketPath != "/tmp/from-file.sock" {
		t.Fatalf("expected file socket, got %q", s.SocketPath)
	}
	if !s.EarlyCancel || !s.Journal.Enabled {
		t.Fatalf("expected file booleans applied: %+v", s)
	}
	if s.Keyboard.Enabled {
		t.Fatalf("expected env to disable keyboard")
	}
	if s.Keyboard.Cooldown != 500*time.Millisecond {
		t.Fatalf("unexpected cooldown %v", s.Keyboard.Cooldown)
	}
	if s.Log.Level != "debug" || s.Log.Format != "console" {
		t.Fatalf("unexpected log settings %+v", s.Log)
	}
	if math.Abs(s.Layout.AngleOffsetRad-math.Pi/2) > 1e-9 {
		t.Fatalf("unexpected angle offset %v", s.Layout.AngleOffsetRad)
	}
	if s.Layout.Sectors != 2 || len(s.Sectors) != 2 {
		t.Fatalf("expected 2 configured sectors, got %d", s.Layout.Sectors)
	}
	keys := s.Sectors[1].Keys
	if keys[0].Action != model.ActionSpace || keys[1].Char != '@' || keys[2].Action != model.ActionBackspace {
		t.Fatalf("unexpected parsed keys %+v", keys)
	}

	lay, err := s.BuildLayout()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if lay.Sectors() != 2 {
		t.Fatalf("expected 2 sectors, got %d", lay.Sectors())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("RADIALKB_SOCKET", "/tmp/from-env.sock")
	t.Setenv("RADIALKB_WS_ADDR", "127.0.0.1:7070")
	path := "/tmp/from-file.sock"
	s, err := Resolve(FileConfig{Server: ServerConfig{Socket: &path}}, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.SocketPath != "/tmp/from-env.sock" || s.WSAddr != "127.0.0.1:7070" {
		t.Fatalf("expected env to win: %+v", s)
	}
}

func TestApplyEnvDotenv(t *testing.T) {
	os.Unsetenv("RADIALKB_TOUCH_DEVICE")
	t.Cleanup(func() { os.Unsetenv("RADIALKB_TOUCH_DEVICE") })
	dotenv := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(dotenv, []byte("RADIALKB_TOUCH_DEVICE=/dev/input/event7\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	s := Defaults()
	if err := s.ApplyEnv(dotenv); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if s.Touch.Device != "/dev/input/event7" {
		t.Fatalf("expected dotenv device, got %q", s.Touch.Device)
	}
	if err := s.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored: %v", err)
	}
}

func TestApplyRejectsBadKey(t *testing.T) {
	s := Defaults()
	err := s.Apply(FileConfig{Layout: LayoutConfig{Sector: []SectorConfig{{Label: "x", Keys: []string{"@launch"}}}}})
	if err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no sectors", func(s *Settings) { s.Layout.Sectors = 0 }},
		{"inner inside deadzone", func(s *Settings) { s.Tuning.InnerRadius = s.Tuning.DeadzoneRadius }},
		{"negative threshold", func(s *Settings) { s.Thresholds.MaxDurationMs = -1 }},
		{"center outside", func(s *Settings) { s.Layout.CenterX = 1.5 }},
		{"bad format", func(s *Settings) { s.Log.Format = "xml" }},
		{"empty socket", func(s *Settings) { s.SocketPath = "" }},
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	for _, tc := range cases {
		s := Defaults()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultSocketPath(); got != "/run/user/1000/radialkb.sock" {
		t.Fatalf("unexpected socket path %q", got)
	}
	if got := DefaultConfigPath(); got != "/cfg/radialkb/config.toml" {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != "/data/radialkb/radialkb.db" {
		t.Fatalf("unexpected db path %q", got)
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := DefaultSocketPath(); !strings.HasPrefix(filepath.Base(got), "radialkb-") {
		t.Fatalf("unexpected fallback socket path %q", got)
	}
}
