// Package commit turns resolved keys into emitted text or named actions.
package commit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
)

// Emitter is the key-emission capability. Device failures stay inside the
// emitter; callers never see them.
type Emitter interface {
	EmitText(text string)
	EmitAction(action model.Action)
}

// Journal records commits for usage statistics.
type Journal interface {
	Record(ctx context.Context, ev model.UsageEvent) error
}

// Request is one key to commit.
type Request struct {
	Key    model.KeyOption
	Origin model.Origin
	// Sector and Index locate the key for logging; model.None when the key did
	// not come from the layout.
	Sector int
	Index  int
}

// Emission describes what was sent to the emitter.
type Emission struct {
	Text   string
	Action model.Action
	Origin model.Origin
}

// Value renders the emission the way the journal stores it.
func (e Emission) Value() string {
	if e.Action != model.ActionNone {
		return string(e.Action)
	}
	return e.Text
}

// Dispatcher maps keys to emitter calls.
type Dispatcher struct {
	emitter   Emitter
	journal   Journal
	log       *zap.SugaredLogger
	sessionID string
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithJournal offers every emission to j.
func WithJournal(j Journal, sessionID string) Option {
	return func(d *Dispatcher) {
		d.journal = j
		d.sessionID = sessionID
	}
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher returns a dispatcher writing to emitter.
func NewDispatcher(emitter Emitter, log *zap.SugaredLogger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Dispatcher{emitter: emitter, log: log, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Commit emits req.Key. It returns false when nothing was emitted: an empty
// key or an action the emitter cannot produce.
func (d *Dispatcher) Commit(ctx context.Context, req Request) (Emission, bool) {
	key := req.Key
	em := Emission{Origin: req.Origin}
	switch {
	case key.IsAction():
		if !layout.KnownAction(key.Action) {
			d.log.Warnw("dropping unknown action", "action", key.Action, "origin", req.Origin)
			return Emission{}, false
		}
		em.Action = key.Action
		d.emitter.EmitAction(key.Action)
	case key.Char != 0:
		em.Text = string(key.Char)
		d.emitter.EmitText(em.Text)
	default:
		d.log.Infow("key has no payload", "sector", req.Sector, "key", req.Index, "label", key.Label)
		return Emission{}, false
	}

	d.log.Infow("commit",
		"sector", req.Sector,
		"key", req.Index,
		"label", key.Label,
		"value", em.Value(),
		"origin", req.Origin,
	)
	d.record(ctx, em)
	return em, true
}

// CommitChar emits an out-of-band character, mapping control characters to
// their named actions.
func (d *Dispatcher) CommitChar(ctx context.Context, ch rune) (Emission, bool) {
	return d.Commit(ctx, Request{
		Key:    KeyForChar(ch),
		Origin: model.OriginCommitChar,
		Sector: model.None,
		Index:  model.None,
	})
}

func (d *Dispatcher) record(ctx context.Context, em Emission) {
	if d.journal == nil {
		return
	}
	ev := model.UsageEvent{
		SessionID: d.sessionID,
		At:        d.now(),
		Value:     em.Value(),
		Origin:    em.Origin,
	}
	if err := d.journal.Record(ctx, ev); err != nil {
		d.log.Warnw("journal record failed", "error", err)
	}
}

// KeyForChar builds the key for a raw character.
func KeyForChar(ch rune) model.KeyOption {
	switch ch {
	case '\n', '\r':
		return model.ActionKey(model.ActionEnter)
	case '\b', 0x7f:
		return model.ActionKey(model.ActionBackspace)
	case ' ':
		return model.ActionKey(model.ActionSpace)
	case '\t':
		return model.ActionKey(model.ActionTab)
	case 0x1b:
		return model.ActionKey(model.ActionEscape)
	case 0:
		return model.KeyOption{}
	default:
		return model.CharKey(ch)
	}
}
