// Package engine sequences touch and control events into selections and
// commits.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/commit"
	"github.com/verte-zerg/radialkb/internal/gesture"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// Committer emits resolved keys. *commit.Dispatcher implements it.
type Committer interface {
	Commit(ctx context.Context, req commit.Request) (commit.Emission, bool)
	CommitChar(ctx context.Context, ch rune) (commit.Emission, bool)
}

// Options configures a Router. Layout and Committer are required.
type Options struct {
	Layout     *layout.Layout
	Tuning     model.SelectionTuning
	Thresholds model.GestureThresholds
	// EarlyCancel cancels on a downward flick before release.
	EarlyCancel bool
	Committer   Committer
	Feedback    Feedback
	Logger      *zap.SugaredLogger
	// Now supplies timestamps for events that carry none.
	Now func() time.Time
}

// Result is everything one event produced.
type Result struct {
	Reply     protocol.Reply
	Changes   []Change
	Commits   []commit.Emission
	Cancelled bool
}

// Router owns all mutable session state. It is not safe for concurrent use;
// callers serialize events through a single goroutine.
type Router struct {
	layout      *layout.Layout
	tracker     *Tracker
	classifier  *gesture.Classifier
	committer   Committer
	feedback    Feedback
	log         *zap.SugaredLogger
	now         func() time.Time
	earlyCancel bool

	state      State
	ctx        gestureCtx
	skipCommit bool

	res *Result
}

// NewRouter builds an idle router.
func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	fb := opts.Feedback
	if fb == nil {
		fb = LogFeedback{Log: log}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Router{
		layout:      opts.Layout,
		tracker:     NewTracker(opts.Layout, opts.Tuning),
		classifier:  gesture.New(opts.Thresholds),
		committer:   opts.Committer,
		feedback:    fb,
		log:         log,
		now:         now,
		earlyCancel: opts.EarlyCancel,
		state:       StateIdle,
	}
}

// State returns the current router state.
func (r *Router) State() State {
	return r.state
}

// Selection returns the current highlight.
func (r *Router) Selection() Selection {
	return r.tracker.Selection()
}

// Layout returns the layout the router resolves against.
func (r *Router) Layout() *layout.Layout {
	return r.layout
}

// Handle processes one event to completion.
func (r *Router) Handle(ctx context.Context, ev protocol.Event) Result {
	res := Result{Reply: protocol.Ack()}
	r.res = &res
	defer func() { r.res = nil }()

	switch e := ev.(type) {
	case protocol.TouchDown:
		r.touchDown(r.sample(e.Point))
		res.Reply = r.selectionReply()
	case protocol.TouchMove:
		r.touchMove(r.sample(e.Point))
		res.Reply = r.selectionReply()
	case protocol.TouchUp:
		r.touchUp(ctx, r.sample(e.Point))
	case protocol.CommitChar:
		r.commitChar(ctx, e.Char)
	case protocol.ActionRequest:
		r.action(ctx, e.Action)
	case protocol.UIShow:
		r.clearSelection("ui_show")
	case protocol.UIHide:
		r.clearSelection("ui_hide")
	case protocol.Unknown:
		r.log.Debugw("ignoring unknown request", "type", e.Name)
	}
	return res
}

func (r *Router) sample(p protocol.Point) model.TouchSample {
	ts := p.TimestampMs
	if ts <= 0 {
		ts = r.now().UnixMilli()
	}
	return model.TouchSample{X: p.X, Y: p.Y, TimestampMs: ts}
}

func (r *Router) selectionReply() protocol.Reply {
	sel := r.tracker.Selection()
	return protocol.Reply{
		Type:           protocol.ReplySelection,
		Sector:         sel.Sector,
		Letter:         sel.Key,
		Stage:          sel.Stage(),
		ClearSelection: sel.Empty(),
	}
}

func (r *Router) touchDown(s model.TouchSample) {
	r.skipCommit = false
	r.classifier.Down(s)
	r.ctx.begin(s)
	r.transitionTo(StateHovering, "touch_down")
	r.updateSelection(s)
}

func (r *Router) touchMove(s model.TouchSample) {
	if r.state == StateSwipeCapture {
		return
	}
	if r.state == StateIdle {
		r.transitionTo(StateHovering, "touch_move")
	}
	r.ctx.add(s)
	if r.earlyCancel && r.classifier.Move(s) == model.SwipeDown {
		r.cancel("early_swipe_down")
		r.transitionTo(StateSwipeCapture, "early_swipe_down")
		return
	}
	r.updateSelection(s)
}

func (r *Router) touchUp(ctx context.Context, s model.TouchSample) {
	swipe := r.classifier.Up(s)
	if r.skipCommit {
		r.skipCommit = false
		r.clearSelection("commit_char")
		return
	}
	if r.state == StateSwipeCapture {
		r.clearSelection("swipe_capture_end")
		return
	}
	r.ctx.add(s)
	r.log.Debugw("touch up", "swipe", swipe.String(), "path", r.ctx.distance, "samples", r.ctx.samples)

	switch swipe {
	case model.SwipeLeft:
		r.commitSwipe(ctx, model.ActionBackspace, "swipe_left")
		return
	case model.SwipeRight:
		r.commitSwipe(ctx, model.ActionSpace, "swipe_right")
		return
	case model.SwipeDown:
		r.cancel("swipe_down")
		return
	}

	r.updateSelection(s)
	sel := r.tracker.Selection()
	if sel.Empty() {
		r.clearSelection("touch_up_no_selection")
		return
	}
	index := 0
	if sel.TrackingLetter && sel.Key >= 0 && sel.Key < r.layout.KeyCount(sel.Sector) {
		index = sel.Key
	}
	key, ok := r.layout.KeyAt(sel.Sector, index)
	if !ok || key.IsEmpty() {
		r.log.Infow("no key to commit", "sector", sel.Sector, "key", index)
		r.clearSelection("commit_none")
		return
	}
	r.commit(ctx, commit.Request{Key: key, Origin: model.OriginPick, Sector: sel.Sector, Index: index}, "touch_up_commit")
}

func (r *Router) commitChar(ctx context.Context, ch rune) {
	if ch == 0 {
		r.log.Infow("commit_char without a character")
		return
	}
	r.transitionTo(StateCommitChar, "commit_char")
	if em, ok := r.committer.CommitChar(ctx, ch); ok {
		r.res.Commits = append(r.res.Commits, em)
		r.feedback.Commit()
	}
	r.clearSelection("commit_done")
	r.skipCommit = true
}

func (r *Router) action(ctx context.Context, action model.Action) {
	switch {
	case action == model.ActionCancel:
		r.cancel("cancel_action")
	case layout.KnownAction(action):
		r.commit(ctx, commit.Request{
			Key:    model.ActionKey(action),
			Origin: model.OriginAction,
			Sector: model.None,
			Index:  model.None,
		}, "action_"+string(action))
	default:
		r.log.Warnw("ignoring unknown action", "action", action)
	}
}

func (r *Router) commitSwipe(ctx context.Context, action model.Action, reason string) {
	r.commit(ctx, commit.Request{
		Key:    model.ActionKey(action),
		Origin: model.OriginSwipe,
		Sector: model.None,
		Index:  model.None,
	}, reason)
}

// commit runs CommitChar -> Idle around one dispatch. Idle never keeps a
// highlight, so the next gesture starts from an empty selection.
func (r *Router) commit(ctx context.Context, req commit.Request, reason string) {
	r.transitionTo(StateCommitChar, reason)
	if em, ok := r.committer.Commit(ctx, req); ok {
		r.res.Commits = append(r.res.Commits, em)
		r.feedback.Commit()
	}
	r.clearSelection("commit_done")
}

func (r *Router) cancel(reason string) {
	r.feedback.Cancel()
	r.res.Cancelled = true
	r.clearSelection(reason)
}

func (r *Router) updateSelection(s model.TouchSample) {
	ch, changed := r.tracker.Update(s.X, s.Y)
	if !changed {
		return
	}
	if ch.SectorChanged() && !ch.Next.Empty() {
		r.feedback.Selection()
	}
	r.notify(ch)
}

// clearSelection drops the highlight and returns to Idle.
func (r *Router) clearSelection(reason string) {
	if ch, changed := r.tracker.Clear(reason); changed {
		r.notify(ch)
	}
	r.transitionTo(StateIdle, reason)
}

func (r *Router) notify(ch Change) {
	r.log.Debugw("selection changed",
		"sector", ch.Next.Sector,
		"key", ch.Next.Key,
		"stage", ch.Next.Stage(),
		"reason", ch.Reason,
	)
	if r.res != nil {
		r.res.Changes = append(r.res.Changes, ch)
	}
}
