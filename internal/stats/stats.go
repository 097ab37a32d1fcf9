package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints session and commit totals.
func RenderSummary(w io.Writer, sessions []model.SessionInfo, days []model.DayAggregate) error {
	if len(sessions) == 0 && len(days) == 0 {
		_, err := fmt.Fprintln(w, "No usage recorded.")
		return err
	}
	var commits, cancels int
	var active time.Duration
	for _, s := range sessions {
		commits += s.Commits
		cancels += s.Cancels
		if !s.EndedAt.IsZero() && s.EndedAt.After(s.StartedAt) {
			active += s.EndedAt.Sub(s.StartedAt)
		}
	}
	best := model.DayAggregate{}
	for _, d := range days {
		if d.Commits > best.Commits {
			best = d
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Commits: %d", commits),
		fmt.Sprintf("Cancels: %d", cancels),
		fmt.Sprintf("Cancel rate: %.2f%%", ratio(cancels, commits+cancels)*100),
		fmt.Sprintf("Active time: %s", active.Round(time.Second)),
	}
	if minutes := active.Minutes(); minutes > 0 {
		lines = append(lines, fmt.Sprintf("Commits/min: %.2f", float64(commits)/minutes))
	}
	if best.Day != "" {
		lines = append(lines, fmt.Sprintf("Busiest day: %s (%d)", best.Day, best.Commits))
	}
	return writeLines(w, append(lines, ""))
}

// RenderKeyTable prints per-key counts sorted by total. top limits the rows
// when positive.
func RenderKeyTable(w io.Writer, aggs []model.KeyAggregate, lay *layout.Layout, top int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No key stats found.")
		return err
	}
	sorted := SortByTotal(aggs)
	grand := 0
	for _, agg := range sorted {
		grand += agg.Total()
	}
	if top > 0 && top < len(sorted) {
		sorted = sorted[:top]
	}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		sector := "-"
		if lay != nil {
			if si, _, ok := lay.Locate(agg.Value); ok {
				if s, ok := lay.Sector(si); ok {
					sector = s.Label
				}
			}
		}
		rows = append(rows, []string{
			KeyLabel(agg.Value),
			sector,
			fmt.Sprintf("%d", agg.Pick),
			fmt.Sprintf("%d", agg.Swipe),
			fmt.Sprintf("%d", agg.Other),
			fmt.Sprintf("%d", agg.Total()),
			fmt.Sprintf("%.2f%%", ratio(agg.Total(), grand)*100),
		})
	}
	headers := []string{"Key", "Sector", "Pick", "Swipe", "Other", "Total", "Share"}
	lines := []string{"Per-Key"}
	lines = append(lines, formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true})...)
	return writeLines(w, append(lines, ""))
}

// SectorUsage sums commits per sector of lay. Values the layout does not hold
// are skipped.
func SectorUsage(aggs []model.KeyAggregate, lay *layout.Layout) []int {
	counts := make([]int, lay.Sectors())
	for _, agg := range aggs {
		if si, _, ok := lay.Locate(agg.Value); ok {
			counts[si] += agg.Total()
		}
	}
	return counts
}

// RenderSectorUsage prints commits per sector with a bar.
func RenderSectorUsage(w io.Writer, aggs []model.KeyAggregate, lay *layout.Layout) error {
	counts := SectorUsage(aggs, lay)
	peak, total := 0, 0
	for _, c := range counts {
		peak = max(peak, c)
		total += c
	}
	const barWidth = 20
	rows := make([][]string, 0, len(counts))
	for i, c := range counts {
		s, _ := lay.Sector(i)
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("#", int(math.Round(float64(c)/float64(peak)*barWidth)))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			s.Label,
			fmt.Sprintf("%d", c),
			fmt.Sprintf("%.2f%%", ratio(c, total)*100),
			bar,
		})
	}
	lines := []string{"Per-Sector"}
	lines = append(lines, formatTable([]string{"#", "Label", "Commits", "Share", ""}, rows, map[int]bool{0: true, 2: true, 3: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderDaily prints the daily commit curve smoothed over window days.
func RenderDaily(w io.Writer, days []model.DayAggregate, window int) error {
	if len(days) == 0 {
		return nil
	}
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = float64(d.Commits)
	}
	smoothed := MovingAverage(values, window)
	return writeLines(w, []string{
		"Daily Commits",
		fmt.Sprintf("%s .. %s", days[0].Day, days[len(days)-1].Day),
		"[" + Sparkline(smoothed) + "]",
		fmt.Sprintf("Latest (avg %d): %.1f", max(window, 1), smoothed[len(smoothed)-1]),
		"",
	})
}

// KeyLabel renders a journal value for display.
func KeyLabel(value string) string {
	switch value {
	case " ":
		return "<space>"
	case "":
		return "<none>"
	}
	if _, err := layout.ParseKey("@" + value); err == nil && len([]rune(value)) > 1 {
		return "<" + value + ">"
	}
	return value
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
