// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// None marks an unset sector or key index.
const None = -1

// TouchSample is one normalized touch point.
type TouchSample struct {
	X           float64
	Y           float64
	TimestampMs int64
}

// GestureThresholds configures swipe classification in normalized units.
type GestureThresholds struct {
	MinDistanceNorm      float64
	MaxDurationMs        int64
	MinVelocityNormPerMs float64
}

// DefaultGestureThresholds returns the stock swipe thresholds.
func DefaultGestureThresholds() GestureThresholds {
	return GestureThresholds{
		MinDistanceNorm:      0.15,
		MaxDurationMs:        220,
		MinVelocityNormPerMs: 0.001,
	}
}

// LayoutConfig holds the fixed radial geometry.
type LayoutConfig struct {
	Sectors        int
	CenterX        float64
	CenterY        float64
	AngleOffsetRad float64
}

// DefaultLayoutConfig returns an 8-sector layout centered on the surface.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Sectors: 8, CenterX: 0.5, CenterY: 0.5}
}

// SelectionTuning holds the radius bands and angular margin used by the tracker.
type SelectionTuning struct {
	DeadzoneRadius  float64
	InnerRadius     float64
	InnerHysteresis float64
	AngleHysteresis float64
}

// DefaultSelectionTuning returns the stock radius bands (3 degree angular margin).
func DefaultSelectionTuning() SelectionTuning {
	return SelectionTuning{
		DeadzoneRadius:  0.12,
		InnerRadius:     0.28,
		InnerHysteresis: 0.03,
		AngleHysteresis: 3.0 * math.Pi / 180.0,
	}
}

// Action names a non-character keystroke.
type Action string

// Known actions.
const (
	ActionNone      Action = ""
	ActionSpace     Action = "space"
	ActionBackspace Action = "backspace"
	ActionEnter     Action = "enter"
	ActionTab       Action = "tab"
	ActionEscape    Action = "escape"
	ActionCancel    Action = "cancel"
)

// KeyOption is a selectable key: a literal character or a named action.
type KeyOption struct {
	Label  string
	Char   rune
	Action Action
}

// CharKey builds a literal character key.
func CharKey(ch rune) KeyOption {
	return KeyOption{Label: string(ch), Char: ch}
}

// ActionKey builds a named action key.
func ActionKey(action Action) KeyOption {
	return KeyOption{Label: string(action), Action: action}
}

// IsAction reports whether the key carries a named action.
func (k KeyOption) IsAction() bool {
	return k.Action != ActionNone
}

// IsEmpty reports whether the key carries no payload.
func (k KeyOption) IsEmpty() bool {
	return k.Action == ActionNone && k.Char == 0
}

// Sector is one pie slice with its keys in angular order.
type Sector struct {
	Label string
	Keys  []KeyOption
}

// SwipeDir is the result of swipe classification.
type SwipeDir int

// Swipe directions.
const (
	SwipeNone SwipeDir = iota
	SwipeLeft
	SwipeRight
	SwipeUp
	SwipeDown
)

func (d SwipeDir) String() string {
	switch d {
	case SwipeLeft:
		return "left"
	case SwipeRight:
		return "right"
	case SwipeUp:
		return "up"
	case SwipeDown:
		return "down"
	default:
		return "none"
	}
}

// Origin records how a commit was produced.
type Origin string

// Commit origins.
const (
	OriginPick       Origin = "pick"
	OriginSwipe      Origin = "swipe"
	OriginCommitChar Origin = "commit_char"
	OriginAction     Origin = "action"
)

// UsageEvent is one journaled commit, reduced to a counter increment.
type UsageEvent struct {
	SessionID string
	At        time.Time
	Value     string
	Origin    Origin
}

// SessionInfo describes a daemon or preview session.
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Transport string
	Commits   int
	Cancels   int
}

// StatsConfig defines filters for usage reporting.
type StatsConfig struct {
	Since *time.Time
	Last  int
	Top   int
}

// KeyAggregate aggregates commit counts for one key value.
type KeyAggregate struct {
	Value string
	Pick  int
	Swipe int
	Other int
}

// Total returns the sum of all origins.
func (k KeyAggregate) Total() int {
	return k.Pick + k.Swipe + k.Other
}

// DayAggregate holds total commits for one calendar day.
type DayAggregate struct {
	Day     string
	Commits int
}
