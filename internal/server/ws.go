package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/protocol"
)

// WSPath is the websocket endpoint.
const WSPath = "/ws"

// WSBridge speaks the line protocol over websocket text frames, one request
// per frame, for browser overlays. Selection replies caused by other sources
// are pushed to every client.
type WSBridge struct {
	addr     string
	session  *Session
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
	ln       net.Listener
	srv      *http.Server
}

// ListenWS binds addr. Only loopback addresses are accepted.
func ListenWS(addr string, session *Session, log *zap.SugaredLogger) (*WSBridge, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("websocket addr: %w", err)
	}
	if !isLoopback(host) {
		return nil, fmt.Errorf("websocket addr %s is not loopback", addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	b := &WSBridge{
		addr:    ln.Addr().String(),
		session: session,
		log:     log,
		ln:      ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     localOrigin,
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(WSPath, b.serveWS)
	b.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return b, nil
}

// Addr returns the bound address.
func (b *WSBridge) Addr() string {
	return b.addr
}

// Close releases a bridge that will not be served.
func (b *WSBridge) Close() error {
	return b.ln.Close()
}

// Serve runs until ctx is done.
func (b *WSBridge) Serve(ctx context.Context) error {
	b.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.srv.Serve(b.ln)
	}()
	b.log.Infow("websocket bridge listening", "addr", b.addr)
	select {
	case err := <-errCh:
		return fmt.Errorf("websocket bridge: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.srv.Shutdown(shutdownCtx); err != nil {
		// Hijacked websocket connections are not tracked by Shutdown.
		_ = b.srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket bridge: %w", err)
	}
	return nil
}

func (b *WSBridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Debugw("websocket upgrade failed", "error", err)
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer conn.Close()

	id := uuid.NewString()
	log := b.log.With("conn", id, "transport", "ws")
	log.Debugw("client connected")

	var writeMu sync.Mutex
	write := func(msg []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	pushes, unwatch := b.session.Watch()
	defer unwatch()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-pushes:
				if p.Source == id {
					continue
				}
				if err := write(protocol.EncodeReply(p.Reply)); err != nil {
					cancel()
					return
				}
			}
		}
	}()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetReadLimit(MaxLineBytes)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugw("client read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		reply, err := ServeLine(ctx, b.session, id, data)
		if err != nil && !errors.Is(err, protocol.ErrInvalidJSON) {
			return
		}
		if err := write(reply); err != nil {
			return
		}
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// localOrigin admits non-browser clients and pages served from loopback.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return isLoopback(u.Hostname()) || u.Scheme == "file"
}
