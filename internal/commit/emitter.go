package commit

import (
	"sync"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/model"
)

// LogEmitter logs emissions instead of typing them. Used when the keyboard
// backend is disabled.
type LogEmitter struct {
	Log *zap.SugaredLogger
}

func (e LogEmitter) EmitText(text string) {
	if e.Log != nil {
		e.Log.Infow("emit text (dry run)", "text", text)
	}
}

func (e LogEmitter) EmitAction(action model.Action) {
	if e.Log != nil {
		e.Log.Infow("emit action (dry run)", "action", action)
	}
}

// Recorder keeps emissions in memory. The preview uses it to echo typed text.
type Recorder struct {
	mu  sync.Mutex
	out []Emission
}

func (r *Recorder) EmitText(text string) {
	r.mu.Lock()
	r.out = append(r.out, Emission{Text: text})
	r.mu.Unlock()
}

func (r *Recorder) EmitAction(action model.Action) {
	r.mu.Lock()
	r.out = append(r.out, Emission{Action: action})
	r.mu.Unlock()
}

// Emissions returns a copy of everything recorded so far.
func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.out))
	copy(out, r.out)
	return out
}

// Reset forgets recorded emissions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.out = nil
	r.mu.Unlock()
}
