package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/protocol"
)

// MaxLineBytes caps one request line.
const MaxLineBytes = 64 * 1024

// UnixServer accepts line-protocol clients on a unix socket.
type UnixServer struct {
	path    string
	ln      net.Listener
	session *Session
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// ListenUnix binds path, removing a stale socket left by a dead daemon.
// A live daemon on path is an error.
func ListenUnix(path string, session *Session, log *zap.SugaredLogger) (*UnixServer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := removeStale(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return &UnixServer{path: path, ln: ln, session: session, log: log}, nil
}

func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat socket: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("another daemon is listening on %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// Addr returns the socket path.
func (s *UnixServer) Addr() string {
	return s.path
}

// Close releases a server that will not be served and removes its socket.
func (s *UnixServer) Close() error {
	err := s.ln.Close()
	if rerr := os.Remove(s.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
		err = rerr
	}
	return err
}

// Serve accepts connections until ctx is done, then closes them and removes
// the socket file.
func (s *UnixServer) Serve(ctx context.Context) error {
	var (
		mu    sync.Mutex
		conns = map[net.Conn]struct{}{}
	)
	stop := context.AfterFunc(ctx, func() {
		_ = s.ln.Close()
		mu.Lock()
		for c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
	})
	defer stop()
	defer func() {
		s.wg.Wait()
		// Best-effort cleanup.
		_ = os.Remove(s.path)
	}()

	s.log.Infow("listening", "socket", s.path)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		mu.Lock()
		if ctx.Err() != nil {
			mu.Unlock()
			_ = conn.Close()
			continue
		}
		conns[conn] = struct{}{}
		mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
		}()
	}
}

func (s *UnixServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	id := uuid.NewString()
	log := s.log.With("conn", id)
	log.Debugw("client connected")

	r := bufio.NewReaderSize(conn, 4096)
	w := bufio.NewWriter(conn)
	for {
		line, err := readLine(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debugw("client read failed", "error", err)
			}
			break
		}
		var reply []byte
		if line.tooLong {
			log.Warnw("bad request", "error", "line exceeds limit", "limit", MaxLineBytes)
			reply = protocol.EncodeError(protocol.ErrInvalidJSON)
		} else {
			if len(line.data) == 0 {
				continue
			}
			reply, err = ServeLine(ctx, s.session, id, line.data)
			if err != nil {
				if !errors.Is(err, protocol.ErrInvalidJSON) {
					log.Debugw("stopping client", "error", err)
					return
				}
				log.Warnw("bad request", "error", err)
			}
		}
		if _, err := w.Write(append(reply, '\n')); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
	log.Debugw("client disconnected")
}

type requestLine struct {
	data    []byte
	tooLong bool
}

// readLine returns the next trimmed line. A line over MaxLineBytes is read to
// its end and dropped, so the client can keep talking after it.
func readLine(r *bufio.Reader) (requestLine, error) {
	var line requestLine
	for {
		chunk, err := r.ReadSlice('\n')
		if !line.tooLong {
			if len(line.data)+len(bytes.TrimRight(chunk, "\r\n")) > MaxLineBytes {
				line.tooLong = true
				line.data = nil
			} else {
				line.data = append(line.data, chunk...)
			}
		}
		switch {
		case err == nil:
			line.data = bytes.TrimSpace(line.data)
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && (len(line.data) > 0 || line.tooLong):
			line.data = bytes.TrimSpace(line.data)
			return line, nil
		default:
			return requestLine{}, err
		}
	}
}

// ServeLine answers one request line. Invalid JSON yields the error reply and
// a wrapped protocol.ErrInvalidJSON; any other error means the session is gone.
func ServeLine(ctx context.Context, session *Session, source string, line []byte) ([]byte, error) {
	ev, err := protocol.Decode(line)
	if err != nil {
		return protocol.EncodeError(err), err
	}
	res, err := session.Submit(ctx, source, ev)
	if err != nil {
		return nil, err
	}
	return protocol.EncodeReply(res.Reply), nil
}
