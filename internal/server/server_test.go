package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/radialkb/internal/commit"
	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

type memSessions struct {
	mu      sync.Mutex
	started []model.SessionInfo
	ended   []model.SessionInfo
}

func (m *memSessions) StartSession(_ context.Context, info model.SessionInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, info)
	return nil
}

func (m *memSessions) EndSession(_ context.Context, info model.SessionInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = append(m.ended, info)
	return nil
}

func newRouter(rec *commit.Recorder) *engine.Router {
	return engine.NewRouter(engine.Options{
		Layout:     layout.Default(),
		Tuning:     model.DefaultSelectionTuning(),
		Thresholds: model.DefaultGestureThresholds(),
		Committer:  commit.NewDispatcher(rec, nil),
	})
}

func startSession(t *testing.T, opts ...SessionOption) (*Session, *commit.Recorder, context.CancelFunc, chan error) {
	t.Helper()
	rec := &commit.Recorder{}
	s := NewSession(newRouter(rec), nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return s, rec, cancel, done
}

func TestSessionCountsAndJournal(t *testing.T) {
	j := &memSessions{}
	s, _, cancel, done := startSession(t, WithSessionJournal(j), WithSessionID("s-1"))
	ctx := context.Background()

	_, err := s.Submit(ctx, "test", protocol.ActionRequest{Action: model.ActionEnter})
	require.NoError(t, err)
	_, err = s.Submit(ctx, "test", protocol.ActionRequest{Action: model.ActionCancel})
	require.NoError(t, err)

	cancel()
	require.NoError(t, <-done)
	_, err = s.Submit(ctx, "test", protocol.UIShow{})
	require.ErrorIs(t, err, ErrClosed)

	require.Len(t, j.started, 1)
	require.Len(t, j.ended, 1)
	require.Equal(t, "s-1", j.ended[0].ID)
	require.Equal(t, 1, j.ended[0].Commits)
	require.Equal(t, 1, j.ended[0].Cancels)
}

func TestWatchersSeeSelections(t *testing.T) {
	s, _, cancel, done := startSession(t)
	defer func() {
		cancel()
		<-done
	}()
	pushes, unwatch := s.Watch()
	defer unwatch()

	_, err := s.Submit(context.Background(), TouchSource, protocol.TouchDown{Point: protocol.Point{X: 0.9, Y: 0.5, TimestampMs: 10}})
	require.NoError(t, err)
	select {
	case p := <-pushes:
		require.Equal(t, TouchSource, p.Source)
		require.Equal(t, 0, p.Reply.Sector)
	case <-time.After(time.Second):
		t.Fatal("no push")
	}
}

func TestUnixServerRoundTrip(t *testing.T) {
	s, rec, cancel, done := startSession(t)
	path := filepath.Join(t.TempDir(), "kb.sock")
	srv, err := ListenUnix(path, s, nil)
	require.NoError(t, err)
	serveCtx, stopServe := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(serveCtx) }()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)
	roundTrip := func(line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		reply, err := r.ReadString('\n')
		require.NoError(t, err)
		return reply
	}

	require.Equal(t, `{"error":"invalid_json"}`+"\n", roundTrip(`{"type":`))
	require.Equal(t,
		`{"ack":true,"type":"selection","sector":-1,"letter":-1,"stage":"group","clearSelection":true}`+"\n",
		roundTrip(`{"type":"touch_down","x":0.5,"y":0.5,"t":1000}`))
	require.Equal(t,
		`{"ack":true,"type":"selection","sector":0,"letter":0,"stage":"letter","clearSelection":false}`+"\n",
		roundTrip(`{"type":"touch_move","x":0.9,"y":0.5,"t":1100}`))
	require.Equal(t, `{"ack":true,"type":"ack"}`+"\n", roundTrip(`{"type":"touch_up","x":0.9,"y":0.5,"t":1500}`))
	require.Equal(t, `{"ack":true,"type":"ack"}`+"\n", roundTrip(`{"type":"mystery"}`))
	require.Equal(t, []commit.Emission{{Text: "e"}}, rec.Emissions())

	stopServe()
	require.NoError(t, <-serveDone)
	_, err = os.Lstat(path)
	require.True(t, os.IsNotExist(err), "socket removed on shutdown")
	cancel()
	require.NoError(t, <-done)
}

func TestWebsocketBridgeRoundTrip(t *testing.T) {
	s, _, cancel, done := startSession(t)
	defer func() {
		cancel()
		<-done
	}()
	bridge, err := ListenWS("127.0.0.1:0", s, nil)
	require.NoError(t, err)
	ctx, stop := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- bridge.Serve(ctx) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+bridge.Addr()+WSPath, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ui_show"}`)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"ack":true,"type":"ack"}`, string(msg))

	// A touch from another source is pushed to the overlay.
	_, err = s.Submit(context.Background(), TouchSource, protocol.TouchDown{Point: protocol.Point{X: 0.9, Y: 0.5, TimestampMs: 10}})
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	reply, err := protocol.DecodeReply(msg)
	require.NoError(t, err)
	require.Equal(t, 0, reply.Sector)

	_ = conn.Close()
	stop()
	require.NoError(t, <-serveDone)
}

func TestListenRemovesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, ln.Close())
	_, err = os.Lstat(path)
	require.NoError(t, err)

	s, _, cancel, done := startSession(t)
	defer func() {
		cancel()
		<-done
	}()
	srv, err := ListenUnix(path, s, nil)
	require.NoError(t, err)
	require.NoError(t, srv.ln.Close())
}

func TestListenRefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, err := ListenUnix(path, nil, nil)
	require.Error(t, err)
}

func TestListenRefusesLiveDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	_, err = ListenUnix(path, nil, nil)
	require.ErrorContains(t, err, "another daemon")
}

func TestLoopbackOnlyWebsocket(t *testing.T) {
	_, err := ListenWS("0.0.0.0:0", nil, nil)
	require.Error(t, err)
	require.True(t, isLoopback("127.0.0.1"))
	require.True(t, isLoopback("::1"))
	require.False(t, isLoopback("192.168.1.5"))
}

func TestUnixServerAnswersOversizedLineAndKeepsConnection(t *testing.T) {
	s, _, cancel, done := startSession(t)
	defer func() {
		cancel()
		<-done
	}()
	path := filepath.Join(t.TempDir(), "kb.sock")
	srv, err := ListenUnix(path, s, nil)
	require.NoError(t, err)
	serveCtx, stopServe := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(serveCtx) }()
	defer func() {
		stopServe()
		<-serveDone
	}()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	r := bufio.NewReader(conn)

	huge := `{"type":"ui_show","pad":"` + strings.Repeat("x", MaxLineBytes+10) + `"}` + "\n"
	go func() { _, _ = conn.Write([]byte(huge + `{"type":"ui_show"}` + "\n")) }()

	reply, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, `{"error":"invalid_json"}`+"\n", reply)
	reply, err = r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, `{"ack":true,"type":"ack"}`+"\n", reply)
}

func TestReadLineLimits(t *testing.T) {
	exact := strings.Repeat("a", MaxLineBytes)
	input := exact + "\n" + exact + "b\n  tail  "
	r := bufio.NewReaderSize(strings.NewReader(input), 4096)

	line, err := readLine(r)
	require.NoError(t, err)
	require.False(t, line.tooLong)
	require.Len(t, line.data, MaxLineBytes)

	line, err = readLine(r)
	require.NoError(t, err)
	require.True(t, line.tooLong)

	line, err = readLine(r)
	require.NoError(t, err)
	require.Equal(t, "tail", string(line.data))

	_, err = readLine(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestCloseReleasesUnservedListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.sock")
	srv, err := ListenUnix(path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Close())
	_, err = os.Lstat(path)
	require.True(t, os.IsNotExist(err), "socket removed by Close")

	bridge, err := ListenWS("127.0.0.1:0", nil, nil)
	require.NoError(t, err)
	addr := bridge.Addr()
	require.NoError(t, bridge.Close())
	again, err := net.Listen("tcp", addr)
	require.NoError(t, err, "port released by Close")
	require.NoError(t, again.Close())
}
