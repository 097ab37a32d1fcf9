package engine

import (
	"math"

	"github.com/verte-zerg/radialkb/internal/model"
)

// State is the router's position in the touch lifecycle.
type State int

// Router states.
const (
	StateIdle State = iota
	StateHovering
	StateCommitChar
	StateSwipeCapture
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateCommitChar:
		return "commit_char"
	case StateSwipeCapture:
		return "swipe_capture"
	default:
		return "unknown"
	}
}

// gestureCtx is per-touch scratch, dropped whenever the router goes idle.
type gestureCtx struct {
	start    model.TouchSample
	last     model.TouchSample
	distance float64
	samples  int
}

func (g *gestureCtx) begin(s model.TouchSample) {
	*g = gestureCtx{start: s, last: s, samples: 1}
}

func (g *gestureCtx) add(s model.TouchSample) {
	if g.samples > 0 {
		dx, dy := s.X-g.last.X, s.Y-g.last.Y
		g.distance += math.Hypot(dx, dy)
	} else {
		g.start = s
	}
	g.last = s
	g.samples++
}

// transitionTo moves to next, logging the reason. Same-state transitions are
// dropped.
func (r *Router) transitionTo(next State, reason string) {
	if next == r.state {
		return
	}
	prev := r.state
	r.state = next
	r.log.Debugw("state transition", "from", prev.String(), "to", next.String(), "reason", reason)
	if next == StateIdle {
		r.ctx = gestureCtx{}
	}
}
