package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/radialkb/internal/config"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
	"github.com/verte-zerg/radialkb/internal/stats"
)

var settingLine = regexp.MustCompile(`^# (\[|[a-z-]+ = )`)

func TestDefaultConfigTemplateParsesWhenUncommented(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if settingLine.MatchString(line) {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fc, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	settings, err := config.Resolve(fc, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(settings.Sectors) != 1 || settings.Sectors[0].Label != "abc" {
		t.Fatalf("unexpected sectors: %+v", settings.Sectors)
	}
	if settings.WSAddr != "127.0.0.1:7420" {
		t.Fatalf("unexpected ws addr %q", settings.WSAddr)
	}
	defaults := config.Defaults()
	if settings.Thresholds.MaxDurationMs != defaults.Thresholds.MaxDurationMs {
		t.Fatalf("max duration: expected %d, got %d", defaults.Thresholds.MaxDurationMs, settings.Thresholds.MaxDurationMs)
	}
	if settings.Keyboard.Cooldown != defaults.Keyboard.Cooldown {
		t.Fatalf("cooldown: expected %v, got %v", defaults.Keyboard.Cooldown, settings.Keyboard.Cooldown)
	}
}

func TestApplyFlagsOnlyWhenChanged(t *testing.T) {
	var socket string
	var journal bool
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&socket, "socket", "", "")
	cmd.Flags().BoolVar(&journal, "journal", false, "")

	settings := config.Defaults()
	original := settings.SocketPath
	applyStringFlag(cmd, "socket", &settings.SocketPath, socket)
	applyBoolFlag(cmd, "journal", &settings.Journal.Enabled, journal)
	if settings.SocketPath != original || settings.Journal.Enabled {
		t.Fatalf("unchanged flags must keep resolved values")
	}

	if err := cmd.Flags().Set("socket", "/tmp/kb.sock"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cmd.Flags().Set("journal", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	applyStringFlag(cmd, "socket", &settings.SocketPath, socket)
	applyBoolFlag(cmd, "journal", &settings.Journal.Enabled, journal)
	if settings.SocketPath != "/tmp/kb.sock" || !settings.Journal.Enabled {
		t.Fatalf("changed flags must win: %+v", settings)
	}
}

func TestCtlEvent(t *testing.T) {
	cases := []struct {
		args []string
		want protocol.Event
	}{
		{[]string{"show"}, protocol.UIShow{}},
		{[]string{"HIDE"}, protocol.UIHide{}},
		{[]string{"cancel"}, protocol.ActionRequest{Action: model.ActionCancel}},
		{[]string{"backspace"}, protocol.ActionRequest{Action: model.ActionBackspace}},
		{[]string{"tab"}, protocol.ActionRequest{Action: model.ActionTab}},
		{[]string{"char", "é"}, protocol.CommitChar{Char: 'é'}},
	}
	for _, tc := range cases {
		got, err := ctlEvent(tc.args)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("%v: expected %#v, got %#v", tc.args, tc.want, got)
		}
	}

	for _, args := range [][]string{{"char"}, {"char", "ab"}, {"enter", "x"}, {"jump"}} {
		if _, err := ctlEvent(args); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestStatsConfig(t *testing.T) {
	cfg, err := statsConfig("2026-05-01", 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	if cfg.Since == nil || !cfg.Since.Equal(want) || cfg.Last != 3 || cfg.Top != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg, err := statsConfig("", 0, 0); err != nil || cfg.Since != nil {
		t.Fatalf("empty since: %+v %v", cfg, err)
	}
	if _, err := statsConfig("05/01/2026", 0, 0); err == nil {
		t.Fatalf("expected error for bad date")
	}
	if _, err := statsConfig("", -1, 0); err == nil {
		t.Fatalf("expected error for negative --last")
	}
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, stats.Report{}, layout.Default(), 0, 7); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "No usage recorded.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWriteReportSections(t *testing.T) {
	report := stats.Report{
		Keys: []model.KeyAggregate{{Value: "e", Pick: 4}, {Value: "enter", Swipe: 1}},
		Days: []model.DayAggregate{{Day: "2026-05-01", Commits: 5}},
	}
	var buf bytes.Buffer
	if err := writeReport(&buf, report, layout.Default(), 0, 7); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Per-Key", "Per-Sector", "Daily Commits", "<enter>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderLayout(t *testing.T) {
	out := renderLayout(layout.Default())
	for _, want := range []string{"8 sectors", "ETA", "QZ.,", "<enter>", "e t a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("layout missing %q:\n%s", want, out)
		}
	}
}
