package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/radialkb/internal/model"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestSectorForPoint(t *testing.T) {
	l := Default()
	require.Equal(t, 0, l.SectorForPoint(1.0, 0.5))
	require.Equal(t, 6, l.SectorForPoint(0.5, 0.0))
	require.Equal(t, 4, l.SectorForPoint(0.0, 0.5))
	require.Equal(t, 2, l.SectorForPoint(0.5, 1.0))
}

func TestAngleOffsetRotatesSectors(t *testing.T) {
	cfg := model.DefaultLayoutConfig()
	cfg.AngleOffsetRad = math.Pi / 2
	l, err := New(cfg, DefaultSectors())
	require.NoError(t, err)
	require.Equal(t, 2, l.SectorForPoint(1.0, 0.5))
	require.InDelta(t, math.Pi/2, l.AngleForPoint(1.0, 0.5), 1e-9)
}

func TestSectorForAngleInRangeAndMonotonic(t *testing.T) {
	l := Default()
	prev := -1
	for a := 0.0; a < 2*math.Pi; a += 0.001 {
		s := l.SectorForAngle(a)
		require.GreaterOrEqual(t, s, 0)
		require.Less(t, s, l.Sectors())
		require.GreaterOrEqual(t, s, prev, "angle %f", a)
		prev = s
	}
	for a := -20.0; a < 20.0; a += 0.37 {
		s := l.SectorForAngle(a)
		require.GreaterOrEqual(t, s, 0)
		require.Less(t, s, l.Sectors())
	}
	require.Equal(t, 7, l.SectorForAngle(-0.01))
	require.Equal(t, 0, l.SectorForAngle(2*math.Pi))
}

func TestRadiusForPoint(t *testing.T) {
	l := Default()
	require.InDelta(t, 0.0, l.RadiusForPoint(0.5, 0.5), 1e-12)
	require.InDelta(t, 0.5, l.RadiusForPoint(0.5, 0.0), 1e-12)
	require.InDelta(t, math.Hypot(0.5, 0.5), l.RadiusForPoint(1, 1), 1e-12)
}

func TestSectorHysteresis(t *testing.T) {
	l := Default()
	margin := deg(3)

	require.Equal(t, 0, l.SectorForAngleWithHysteresis(deg(46), 0, margin), "inside margin keeps previous")
	require.Equal(t, 1, l.SectorForAngleWithHysteresis(deg(49), 0, margin), "beyond margin switches")
	require.Equal(t, 0, l.SectorForAngleWithHysteresis(deg(359), 0, margin), "wraparound boundary")
	require.Equal(t, 7, l.SectorForAngleWithHysteresis(deg(355), 0, margin))
	require.Equal(t, 4, l.SectorForAngleWithHysteresis(deg(200), 0, margin), "far jump")
	require.Equal(t, 1, l.SectorForAngleWithHysteresis(deg(46), model.None, margin), "no previous")
}

func TestKeyForAngle(t *testing.T) {
	l := Default()
	require.Equal(t, 0, l.KeyForAngle(deg(5), 0))
	require.Equal(t, 1, l.KeyForAngle(deg(20), 0))
	require.Equal(t, 2, l.KeyForAngle(deg(40), 0))
	require.Equal(t, 2, l.KeyForAngle(deg(50), 0), "past the sector end snaps to last key")
	require.Equal(t, 0, l.KeyForAngle(deg(350), 0), "before the sector start snaps to first key")

	key, ok := l.KeyAt(0, 1)
	require.True(t, ok)
	require.Equal(t, 't', key.Char)
}

func TestKeyHysteresis(t *testing.T) {
	l := Default()
	margin := deg(3)
	require.Equal(t, 0, l.KeyForAngleWithHysteresis(deg(16), 0, 0, margin))
	require.Equal(t, 1, l.KeyForAngleWithHysteresis(deg(19), 0, 0, margin))
	require.Equal(t, 1, l.KeyForAngleWithHysteresis(deg(16), 0, model.None, margin))
}

func TestEmptySectorHasNoKey(t *testing.T) {
	cfg := model.DefaultLayoutConfig()
	cfg.Sectors = 3
	l, err := New(cfg, DefaultSectors()[:2])
	require.NoError(t, err)
	require.Equal(t, 0, l.KeyCount(2))
	require.Equal(t, model.None, l.KeyForAngle(deg(300), 2))
	require.Equal(t, model.None, l.KeyForAngleWithHysteresis(deg(300), 2, 0, deg(3)))
	_, ok := l.DefaultKey(2)
	require.False(t, ok)
}

func TestNewRejectsZeroSectors(t *testing.T) {
	_, err := New(model.LayoutConfig{}, nil)
	require.Error(t, err)
}

func TestAngularDistance(t *testing.T) {
	require.InDelta(t, deg(2), AngularDistance(deg(359), deg(1)), 1e-9)
	require.InDelta(t, math.Pi, AngularDistance(0, math.Pi), 1e-9)
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("@enter")
	require.NoError(t, err)
	require.Equal(t, model.ActionEnter, key.Action)

	key, err = ParseKey("x")
	require.NoError(t, err)
	require.Equal(t, 'x', key.Char)

	key, err = ParseKey("@@")
	require.NoError(t, err)
	require.Equal(t, '@', key.Char)

	key, err = ParseKey("")
	require.NoError(t, err)
	require.True(t, key.IsEmpty())

	_, err = ParseKey("@warp")
	require.Error(t, err)
	_, err = ParseKey("ab")
	require.Error(t, err)
}

func TestLocateAndAlphabet(t *testing.T) {
	l := Default()
	s, k, ok := l.Locate("h")
	require.True(t, ok)
	require.Equal(t, 2, s)
	require.Equal(t, 1, k)

	s, k, ok = l.Locate("enter")
	require.True(t, ok)
	require.Equal(t, 7, s)
	require.Equal(t, 5, k)

	alphabet := l.Alphabet()
	require.Len(t, alphabet, 29)
	require.Equal(t, 'e', alphabet[0])
}
