package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{1, 5}, 1); got[1] != 5 {
		t.Fatalf("window 1 should copy, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sessions := []model.SessionInfo{
		{ID: "a", StartedAt: start, EndedAt: start.Add(2 * time.Minute), Commits: 30, Cancels: 10},
	}
	days := []model.DayAggregate{{Day: "2026-03-01", Commits: 30}}
	if err := RenderSummary(&buf, sessions, days); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 1", "Commits: 30", "Cancel rate: 25.00%", "Commits/min: 15.00", "Busiest day: 2026-03-01 (30)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, nil, nil); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if buf.String() != "No usage recorded.\n" {
		t.Fatalf("unexpected empty summary: %q", buf.String())
	}
}

func TestRenderKeyTable(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.KeyAggregate{
		{Value: "backspace", Swipe: 1},
		{Value: "e", Pick: 3},
		{Value: " ", Other: 1},
	}
	if err := RenderKeyTable(&buf, aggs, layout.Default(), 2); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[2], "e ") || !strings.Contains(lines[2], "ETA") || !strings.HasSuffix(lines[2], "60.00%") {
		t.Fatalf("unexpected first row: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "<space>") {
		t.Fatalf("unexpected second row: %q", lines[3])
	}
}

func TestSectorUsage(t *testing.T) {
	aggs := []model.KeyAggregate{
		{Value: "e", Pick: 3},
		{Value: "t", Pick: 1},
		{Value: "enter", Other: 2},
		{Value: "backspace", Swipe: 9},
	}
	counts := SectorUsage(aggs, layout.Default())
	if counts[0] != 4 || counts[7] != 2 {
		t.Fatalf("unexpected sector counts: %v", counts)
	}

	var buf bytes.Buffer
	if err := RenderSectorUsage(&buf, aggs, layout.Default()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), strings.Repeat("#", 20)) {
		t.Fatalf("expected a full bar for the busiest sector:\n%s", buf.String())
	}
}

func TestKeyLabel(t *testing.T) {
	cases := map[string]string{
		" ":         "<space>",
		"backspace": "<backspace>",
		"e":         "e",
		"":          "<none>",
	}
	for in, want := range cases {
		if got := KeyLabel(in); got != want {
			t.Fatalf("KeyLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}
