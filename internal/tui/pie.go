package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
)

// outerRadius is where the pie meets the pad edge.
const outerRadius = 0.5

type cellKind int

const (
	cellBlank cellKind = iota
	cellHub
	cellRing
	cellRingAlt
	cellSector
	cellSelected
)

type cell struct {
	ch   rune
	kind cellKind
}

var cellStyles = map[cellKind]lipgloss.Style{
	cellBlank:    lipgloss.NewStyle(),
	cellHub:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
	cellRing:     lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0")).Background(lipgloss.Color("#262626")),
	cellRingAlt:  lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0")).Background(lipgloss.Color("#333333")),
	cellSector:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#5A4620")),
	cellSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("#101010")).Background(lipgloss.Color("#C89A3A")).Bold(true),
}

var actionGlyphs = map[model.Action]string{
	model.ActionSpace:     "␣",
	model.ActionBackspace: "⌫",
	model.ActionEnter:     "⏎",
	model.ActionTab:       "⇥",
	model.ActionEscape:    "⎋",
}

// pad is the on-screen rectangle the pie is drawn into.
type pad struct {
	left, top     int
	width, height int
}

// padFor fits a pad of roughly square aspect (cells are about twice as tall
// as wide) into the area left after reserved rows.
func padFor(width, height, reserved int) pad {
	h := max(height-reserved, 5)
	w := 2 * h
	if w > width {
		w = max(width, 10)
		h = max(w/2, 5)
	}
	return pad{left: max((width-w)/2, 0), top: 1, width: w, height: h}
}

// normalize maps a screen cell to surface coordinates, clamped into the pad.
func (p pad) normalize(col, row int) (float64, float64) {
	x := (float64(col-p.left) + 0.5) / float64(p.width)
	y := (float64(row-p.top) + 0.5) / float64(p.height)
	return clamp01(x), clamp01(y)
}

// contains reports whether a screen cell lies on the pad.
func (p pad) contains(col, row int) bool {
	return col >= p.left && col < p.left+p.width && row >= p.top && row < p.top+p.height
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// pieGrid rasterizes the layout and the current selection onto w×h cells.
func pieGrid(lay *layout.Layout, tuning model.SelectionTuning, sel engine.Selection, w, h int) [][]cell {
	grid := make([][]cell, h)
	for row := range grid {
		grid[row] = make([]cell, w)
		for col := range grid[row] {
			x := (float64(col) + 0.5) / float64(w)
			y := (float64(row) + 0.5) / float64(h)
			grid[row][col] = classify(lay, tuning, sel, x, y)
		}
	}

	cfg := lay.Config()
	place(grid, "·", cfg.CenterX, cfg.CenterY)

	groupRadius := (tuning.DeadzoneRadius + tuning.InnerRadius) / 2
	letterRadius := (tuning.InnerRadius + outerRadius) / 2
	for s := 0; s < lay.Sectors(); s++ {
		sector, _ := lay.Sector(s)
		mid := lay.SectorMidAngle(s)
		x, y := pointAt(lay, mid, groupRadius)
		place(grid, sector.Label, x, y)

		count := len(sector.Keys)
		if count == 0 {
			continue
		}
		span := lay.SectorSpan() / float64(count)
		for k, key := range sector.Keys {
			angle := float64(s)*lay.SectorSpan() + (float64(k)+0.5)*span
			x, y := pointAt(lay, angle, letterRadius)
			place(grid, keyGlyph(key), x, y)
		}
	}
	return grid
}

func classify(lay *layout.Layout, tuning model.SelectionTuning, sel engine.Selection, x, y float64) cell {
	r := lay.RadiusForPoint(x, y)
	switch {
	case r > outerRadius:
		return cell{ch: ' ', kind: cellBlank}
	case r < tuning.DeadzoneRadius:
		return cell{ch: ' ', kind: cellHub}
	}
	angle := lay.AngleForPoint(x, y)
	s := lay.SectorForAngle(angle)
	kind := cellRing
	if s%2 == 1 {
		kind = cellRingAlt
	}
	if r < tuning.InnerRadius {
		if s == sel.Sector {
			kind = cellSelected
			if sel.TrackingLetter {
				kind = cellSector
			}
		}
		return cell{ch: ' ', kind: kind}
	}
	k := lay.KeyForAngle(angle, s)
	if k != model.None && k%2 == 1 && kind == cellRing {
		kind = cellRingAlt
	}
	if s == sel.Sector {
		kind = cellSector
		if sel.TrackingLetter && k == sel.Key {
			kind = cellSelected
		}
	}
	return cell{ch: ' ', kind: kind}
}

// pointAt converts an offset angle and radius back to surface coordinates.
func pointAt(lay *layout.Layout, angle, radius float64) (float64, float64) {
	cfg := lay.Config()
	raw := angle - cfg.AngleOffsetRad
	return cfg.CenterX + radius*math.Cos(raw), cfg.CenterY + radius*math.Sin(raw)
}

// place writes label centered on the cell under (x, y), keeping each cell's
// background. A wide rune swallows the cell after it.
func place(grid [][]cell, label string, x, y float64) {
	if len(grid) == 0 || label == "" {
		return
	}
	h, w := len(grid), len(grid[0])
	row := int(y * float64(h))
	col := int(x*float64(w)) - runewidth.StringWidth(label)/2
	if row < 0 || row >= h {
		return
	}
	for _, r := range label {
		rw := max(runewidth.RuneWidth(r), 1)
		if col >= 0 && col+rw <= w {
			grid[row][col].ch = r
			for k := 1; k < rw; k++ {
				grid[row][col+k].ch = 0
			}
		}
		col += rw
	}
}

func keyGlyph(k model.KeyOption) string {
	if k.IsAction() {
		if g, ok := actionGlyphs[k.Action]; ok {
			return g
		}
		return string(k.Action)
	}
	if k.Char == ' ' {
		return actionGlyphs[model.ActionSpace]
	}
	if k.Char == 0 {
		return ""
	}
	return string(k.Char)
}

// renderPie draws the grid, merging runs of equal style.
func renderPie(grid [][]cell, left int) []string {
	lines := make([]string, len(grid))
	indent := strings.Repeat(" ", left)
	for i, row := range grid {
		var b strings.Builder
		b.WriteString(indent)
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && row[j].kind == row[start].kind {
				continue
			}
			run := make([]rune, 0, j-start)
			for _, c := range row[start:j] {
				if c.ch != 0 {
					run = append(run, c.ch)
				}
			}
			b.WriteString(cellStyles[row[start].kind].Render(string(run)))
			start = j
		}
		lines[i] = b.String()
	}
	return lines
}

// describe renders the selection for the status line.
func describe(lay *layout.Layout, sel engine.Selection) string {
	if sel.Empty() {
		return "no selection"
	}
	sector, _ := lay.Sector(sel.Sector)
	if !sel.TrackingLetter {
		return "group " + sector.Label
	}
	key, ok := lay.KeyAt(sel.Sector, sel.Key)
	if !ok {
		return "group " + sector.Label
	}
	return "letter " + keyGlyph(key) + " in " + sector.Label
}
