// Package gesture classifies a single touch's net motion as a swipe.
package gesture

import (
	"math"

	"github.com/verte-zerg/radialkb/internal/model"
)

// Classifier tracks one touch from down to up. The zero value is unusable;
// use New.
type Classifier struct {
	thresholds model.GestureThresholds
	start      model.TouchSample
	active     bool
}

// New returns an idle classifier.
func New(thresholds model.GestureThresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Thresholds returns the configured thresholds.
func (c *Classifier) Thresholds() model.GestureThresholds {
	return c.thresholds
}

// Active reports whether a touch is being tracked.
func (c *Classifier) Active() bool {
	return c.active
}

// Start returns the recorded touch-down sample.
func (c *Classifier) Start() model.TouchSample {
	return c.start
}

// Down records the start sample. A second Down restarts the gesture.
func (c *Classifier) Down(sample model.TouchSample) {
	c.start = sample
	c.active = true
}

// Move classifies the motion so far without the duration cap, so a fast
// flick is recognised before release.
func (c *Classifier) Move(sample model.TouchSample) model.SwipeDir {
	if !c.active {
		return model.SwipeNone
	}
	return c.classify(sample, false)
}

// Up classifies the completed touch and returns to idle.
func (c *Classifier) Up(sample model.TouchSample) model.SwipeDir {
	if !c.active {
		return model.SwipeNone
	}
	c.active = false
	return c.classify(sample, true)
}

// Reset drops any tracked touch.
func (c *Classifier) Reset() {
	c.active = false
	c.start = model.TouchSample{}
}

func (c *Classifier) classify(end model.TouchSample, release bool) model.SwipeDir {
	return Classify(c.start, end, c.thresholds, release)
}

// Classify applies the swipe rules to a start/end pair. The duration cap is
// only enforced when release is true.
func Classify(start, end model.TouchSample, th model.GestureThresholds, release bool) model.SwipeDir {
	dx := end.X - start.X
	dy := end.Y - start.Y
	distance := math.Hypot(dx, dy)
	durationMs := end.TimestampMs - start.TimestampMs
	if durationMs <= 0 {
		return model.SwipeNone
	}
	if release && durationMs > th.MaxDurationMs {
		return model.SwipeNone
	}
	velocity := distance / float64(durationMs)
	if distance < th.MinDistanceNorm || velocity < th.MinVelocityNormPerMs {
		return model.SwipeNone
	}
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return model.SwipeRight
		}
		return model.SwipeLeft
	}
	if dy > 0 {
		return model.SwipeDown
	}
	if dy < 0 {
		return model.SwipeUp
	}
	return model.SwipeNone
}
