package engine

import (
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// Selection is the current highlight. Key is model.None unless
// TrackingLetter is set.
type Selection struct {
	Sector         int
	Key            int
	TrackingLetter bool
}

// NoSelection is the cleared highlight.
func NoSelection() Selection {
	return Selection{Sector: model.None, Key: model.None}
}

// Stage names the selection granularity on the wire.
func (s Selection) Stage() string {
	if s.TrackingLetter {
		return protocol.StageLetter
	}
	return protocol.StageGroup
}

// Empty reports whether no sector is selected.
func (s Selection) Empty() bool {
	return s.Sector == model.None
}

// Change is a selection-changed notification.
type Change struct {
	Prev   Selection
	Next   Selection
	Reason string
}

// SectorChanged reports whether the change moved to another sector.
func (c Change) SectorChanged() bool {
	return c.Prev.Sector != c.Next.Sector
}

// Tracker turns points into a stable selection using the radius bands and
// angular hysteresis. It only owns selection; router state lives in Router.
type Tracker struct {
	layout *layout.Layout
	tuning model.SelectionTuning
	sel    Selection
}

// NewTracker returns a tracker with nothing selected.
func NewTracker(l *layout.Layout, tuning model.SelectionTuning) *Tracker {
	return &Tracker{layout: l, tuning: tuning, sel: NoSelection()}
}

// Selection returns the current highlight.
func (t *Tracker) Selection() Selection {
	return t.sel
}

// Update recomputes the selection for a point. It reports a change only when
// the selection differs from before.
func (t *Tracker) Update(x, y float64) (Change, bool) {
	prev := t.sel
	angle := t.layout.AngleForPoint(x, y)
	radius := t.layout.RadiusForPoint(x, y)

	next := prev
	switch {
	case !next.TrackingLetter && radius >= t.tuning.InnerRadius:
		next.TrackingLetter = true
	case next.TrackingLetter && radius < t.tuning.InnerRadius-t.tuning.InnerHysteresis:
		next.TrackingLetter = false
	}

	if radius < t.tuning.DeadzoneRadius {
		return t.set(prev, NoSelection(), "deadzone")
	}

	reason := "key"
	sector := t.layout.SectorForAngleWithHysteresis(angle, prev.Sector, t.tuning.AngleHysteresis)
	if sector != next.Sector {
		next.Sector = sector
		next.Key = model.None
		reason = "sector"
	}
	if !next.TrackingLetter {
		next.Key = model.None
		if prev.TrackingLetter {
			reason = "group"
		}
	} else {
		next.Key = t.layout.KeyForAngleWithHysteresis(angle, next.Sector, next.Key, t.tuning.AngleHysteresis)
	}
	return t.set(prev, next, reason)
}

// Clear drops the selection. Clearing an already cleared tracker reports no
// change.
func (t *Tracker) Clear(reason string) (Change, bool) {
	return t.set(t.sel, NoSelection(), reason)
}

func (t *Tracker) set(prev, next Selection, reason string) (Change, bool) {
	t.sel = next
	if prev == next {
		return Change{}, false
	}
	return Change{Prev: prev, Next: next, Reason: reason}, true
}
