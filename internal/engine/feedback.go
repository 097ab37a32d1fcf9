package engine

import "go.uber.org/zap"

// Feedback receives haptic cues. Implementations must not block.
type Feedback interface {
	Selection()
	Commit()
	Cancel()
}

// LogFeedback writes cues to a debug log. It stands in for a haptics device.
type LogFeedback struct {
	Log *zap.SugaredLogger
}

func (f LogFeedback) Selection() { f.cue("selection") }
func (f LogFeedback) Commit()    { f.cue("commit") }
func (f LogFeedback) Cancel()    { f.cue("cancel") }

func (f LogFeedback) cue(kind string) {
	if f.Log == nil {
		return
	}
	f.Log.Debugw("feedback", "cue", kind)
}
