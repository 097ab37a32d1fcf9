package server

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/radialkb/internal/protocol"
	"github.com/verte-zerg/radialkb/internal/touch"
)

// TouchSource is the source name used for raw touch events.
const TouchSource = "touch"

// Daemon runs the session together with its transports. Unix is required;
// WS and Touch are optional.
type Daemon struct {
	Session *Session
	Unix    *UnixServer
	WS      *WSBridge
	Touch   touch.Source
	Log     *zap.SugaredLogger
}

// Run blocks until ctx is done or a transport fails. A failing touch backend
// is logged and does not stop the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Session.Run(ctx) })
	g.Go(func() error { return d.Unix.Serve(ctx) })
	if d.WS != nil {
		g.Go(func() error { return d.WS.Serve(ctx) })
	}
	if d.Touch != nil {
		g.Go(func() error {
			err := d.Touch.Run(ctx, func(ev protocol.Event) {
				if _, err := d.Session.Submit(ctx, TouchSource, ev); err != nil && !errors.Is(err, context.Canceled) {
					log.Debugw("touch event dropped", "error", err)
				}
			})
			if err != nil {
				log.Warnw("touch backend stopped", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
