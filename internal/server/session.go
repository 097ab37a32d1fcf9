// Package server funnels every input source into one router goroutine and
// exposes it over a unix socket and an optional websocket bridge.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// ErrClosed is returned by Submit once the session has stopped.
var ErrClosed = errors.New("session closed")

// SessionJournal persists session rows. *store.Store implements it.
type SessionJournal interface {
	StartSession(ctx context.Context, info model.SessionInfo) error
	EndSession(ctx context.Context, info model.SessionInfo) error
}

// Handler processes one event. *engine.Router implements it.
type Handler interface {
	Handle(ctx context.Context, ev protocol.Event) engine.Result
}

// Push is a selection reply broadcast to watchers.
type Push struct {
	Source string
	Reply  protocol.Reply
}

type request struct {
	source string
	ev     protocol.Event
	done   chan engine.Result
}

// Session serializes events from every source onto one goroutine.
type Session struct {
	ID        string
	handler   Handler
	log       *zap.SugaredLogger
	journal   SessionJournal
	transport string
	now       func() time.Time
	reqs      chan request
	stopped   chan struct{}

	mu       sync.Mutex
	watchers map[chan Push]struct{}

	info model.SessionInfo
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionJournal records the session start and end.
func WithSessionJournal(j SessionJournal) SessionOption {
	return func(s *Session) { s.journal = j }
}

// WithTransport labels the session row.
func WithTransport(name string) SessionOption {
	return func(s *Session) { s.transport = name }
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.ID = id }
}

// NewSession wraps handler. Call Run before Submit.
func NewSession(handler Handler, log *zap.SugaredLogger, opts ...SessionOption) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Session{
		ID:        uuid.NewString(),
		handler:   handler,
		log:       log,
		transport: "unix",
		now:       time.Now,
		reqs:      make(chan request),
		stopped:   make(chan struct{}),
		watchers:  map[chan Push]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run owns the handler until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.info = model.SessionInfo{ID: s.ID, StartedAt: s.now(), Transport: s.transport}
	if s.journal != nil {
		if err := s.journal.StartSession(ctx, s.info); err != nil {
			s.log.Warnw("session journal start failed", "error", err)
		}
	}
	s.log.Infow("session started", "session", s.ID)
	for {
		select {
		case <-ctx.Done():
			s.finish()
			return nil
		case req := <-s.reqs:
			res := s.handler.Handle(ctx, req.ev)
			s.info.Commits += len(res.Commits)
			if res.Cancelled {
				s.info.Cancels++
			}
			if res.Reply.Type == protocol.ReplySelection {
				s.publish(Push{Source: req.source, Reply: res.Reply})
			}
			req.done <- res
		}
	}
}

// Submit hands ev to the session goroutine and waits for the result.
func (s *Session) Submit(ctx context.Context, source string, ev protocol.Event) (engine.Result, error) {
	req := request{source: source, ev: ev, done: make(chan engine.Result, 1)}
	select {
	case s.reqs <- req:
	case <-s.stopped:
		return engine.Result{}, ErrClosed
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	return <-req.done, nil
}

// Watch subscribes to selection replies. Slow watchers miss pushes rather
// than stall the session.
func (s *Session) Watch() (<-chan Push, func()) {
	ch := make(chan Push, 16)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}
}

func (s *Session) publish(p Push) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- p:
		default:
		}
	}
}

func (s *Session) finish() {
	s.info.EndedAt = s.now()
	s.log.Infow("session ended", "session", s.ID, "commits", s.info.Commits, "cancels", s.info.Cancels)
	if s.journal == nil {
		return
	}
	// The run context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.journal.EndSession(ctx, s.info); err != nil {
		s.log.Warnw("session journal end failed", "error", err)
	}
}
