// Package layout resolves normalized touch points into radial sectors and keys.
package layout

import (
	"fmt"
	"math"

	"github.com/verte-zerg/radialkb/internal/model"
)

const twoPi = 2 * math.Pi

// Layout owns the fixed sector list of a session. It is read-only after New.
type Layout struct {
	cfg     model.LayoutConfig
	sectors []model.Sector
}

// New builds a layout. The sector list is truncated or padded with empty
// sectors to cfg.Sectors.
func New(cfg model.LayoutConfig, sectors []model.Sector) (*Layout, error) {
	if cfg.Sectors <= 0 {
		return nil, fmt.Errorf("sector count must be > 0, got %d", cfg.Sectors)
	}
	out := make([]model.Sector, cfg.Sectors)
	for i := 0; i < cfg.Sectors && i < len(sectors); i++ {
		keys := make([]model.KeyOption, len(sectors[i].Keys))
		copy(keys, sectors[i].Keys)
		out[i] = model.Sector{Label: sectors[i].Label, Keys: keys}
	}
	return &Layout{cfg: cfg, sectors: out}, nil
}

// Default returns the built-in 8-sector layout.
func Default() *Layout {
	l, err := New(model.DefaultLayoutConfig(), DefaultSectors())
	if err != nil {
		panic(err)
	}
	return l
}

// Config returns the geometry the layout was built with.
func (l *Layout) Config() model.LayoutConfig {
	return l.cfg
}

// Sectors returns the number of sectors.
func (l *Layout) Sectors() int {
	return l.cfg.Sectors
}

// Sector returns the sector at index i.
func (l *Layout) Sector(i int) (model.Sector, bool) {
	if i < 0 || i >= len(l.sectors) {
		return model.Sector{}, false
	}
	return l.sectors[i], true
}

// SectorSpan is the angular width of one sector.
func (l *Layout) SectorSpan() float64 {
	return twoPi / float64(l.cfg.Sectors)
}

// AngleForPoint returns the offset angle of (x, y) around the center in [0, 2π).
// Screen space: y grows downward.
func (l *Layout) AngleForPoint(x, y float64) float64 {
	angle := math.Atan2(y-l.cfg.CenterY, x-l.cfg.CenterX) + l.cfg.AngleOffsetRad
	return NormalizeAngle(angle)
}

// RadiusForPoint returns the distance of (x, y) from the center.
func (l *Layout) RadiusForPoint(x, y float64) float64 {
	return math.Hypot(x-l.cfg.CenterX, y-l.cfg.CenterY)
}

// SectorForPoint resolves a point straight to a sector without hysteresis.
func (l *Layout) SectorForPoint(x, y float64) int {
	return l.SectorForAngle(l.AngleForPoint(x, y))
}

// SectorForAngle maps an angle to a sector index in [0, Sectors-1].
func (l *Layout) SectorForAngle(angle float64) int {
	angle = NormalizeAngle(angle)
	return clampIndex(int(math.Floor(angle/l.SectorSpan())), l.cfg.Sectors)
}

// SectorForAngleWithHysteresis keeps previous unless the angle sits at least
// margin away from both of previous's boundaries.
func (l *Layout) SectorForAngleWithHysteresis(angle float64, previous int, margin float64) int {
	angle = NormalizeAngle(angle)
	raw := l.SectorForAngle(angle)
	if previous < 0 || previous >= l.cfg.Sectors || raw == previous {
		return raw
	}
	span := l.SectorSpan()
	start := float64(previous) * span
	end := start + span
	if AngularDistance(angle, start) >= margin && AngularDistance(angle, end) >= margin {
		return raw
	}
	return previous
}

// KeyCount returns the number of keys in a sector, 0 for an invalid index.
func (l *Layout) KeyCount(sector int) int {
	s, ok := l.Sector(sector)
	if !ok {
		return 0
	}
	return len(s.Keys)
}

// KeyAt returns the key at (sector, key).
func (l *Layout) KeyAt(sector, key int) (model.KeyOption, bool) {
	s, ok := l.Sector(sector)
	if !ok || key < 0 || key >= len(s.Keys) {
		return model.KeyOption{}, false
	}
	return s.Keys[key], true
}

// DefaultKey returns the first key of a sector.
func (l *Layout) DefaultKey(sector int) (model.KeyOption, bool) {
	return l.KeyAt(sector, 0)
}

// KeyForAngle resolves the key inside sector by splitting the sector span
// evenly. Returns model.None for empty or invalid sectors.
func (l *Layout) KeyForAngle(angle float64, sector int) int {
	count := l.KeyCount(sector)
	if count == 0 {
		return model.None
	}
	rel := l.relativeAngle(angle, sector)
	keySpan := l.SectorSpan() / float64(count)
	return clampIndex(int(math.Floor(rel/keySpan)), count)
}

// KeyForAngleWithHysteresis applies the sector hysteresis rule to keys, using
// the sector-relative angle.
func (l *Layout) KeyForAngleWithHysteresis(angle float64, sector, previous int, margin float64) int {
	count := l.KeyCount(sector)
	if count == 0 {
		return model.None
	}
	raw := l.KeyForAngle(angle, sector)
	if previous < 0 || previous >= count || raw == previous {
		return raw
	}
	rel := l.relativeAngle(angle, sector)
	keySpan := l.SectorSpan() / float64(count)
	start := float64(previous) * keySpan
	end := start + keySpan
	if AngularDistance(rel, start) >= margin && AngularDistance(rel, end) >= margin {
		return raw
	}
	return previous
}

// SectorMidAngle returns the center angle of a sector, without the offset.
func (l *Layout) SectorMidAngle(sector int) float64 {
	return (float64(sector) + 0.5) * l.SectorSpan()
}

// relativeAngle returns the angle from the sector start, clamped into the
// sector span. Angles outside the sector snap to the nearer edge.
func (l *Layout) relativeAngle(angle float64, sector int) float64 {
	span := l.SectorSpan()
	rel := NormalizeAngle(NormalizeAngle(angle) - float64(sector)*span)
	if rel < span {
		return rel
	}
	if rel-span < twoPi-rel {
		return math.Nextafter(span, 0)
	}
	return 0
}

// NormalizeAngle folds an angle into [0, 2π).
func NormalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle >= twoPi {
		angle = 0
	}
	return angle
}

// AngularDistance returns the shortest distance between two angles.
func AngularDistance(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	return math.Min(d, twoPi-d)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
