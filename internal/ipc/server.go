package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/migmoroni/vaudio/internal/logger"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
)

const (
	unixSocketPerm = 0600

	defaultMaxMessageSize = 4 << 20
)

// ServerOptions control Serve behavior.
type ServerOptions struct {
	// Workers bounds the handlers running at once across all connections.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int
	// WriteTimeout bounds writing one response.
	WriteTimeout time.Duration
	// MaxMessageSize bounds one request line. Defaults to 4 MiB.
	MaxMessageSize int
	Ready          chan<- struct{}
}

func (o *ServerOptions) withDefaults() ServerOptions {
	var out ServerOptions
	if o != nil {
		out = *o
	}
	if out.Workers <= 0 {
		out.Workers = runtime.GOMAXPROCS(0)
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = defaultMaxMessageSize
	}
	return out
}

// Serve starts a Unix-domain socket server that reads newline-delimited
// request envelopes and answers each one through handler. It blocks until
// ctx is cancelled.
func Serve(ctx context.Context, socketPath string, handler Handler, opts *ServerOptions) error {
	if handler == nil {
		return fmt.Errorf("ipc: handler is required")
	}

	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("ipc: prepare socket: %w", err)
	}
	dir := filepath.Dir(socketPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ipc: create socket dir: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("ipc: listen error: %w", err)
	}
	if err := os.Chmod(socketPath, unixSocketPerm); err != nil {
		_ = listener.Close()
		return fmt.Errorf("ipc: chmod socket: %w", err)
	}
	return serveListener(ctx, listener, handler, opts)
}

func serveListener(ctx context.Context, listener net.Listener, handler Handler, opts *ServerOptions) error {
	o := opts.withDefaults()
	srv := &server{
		handler: handler,
		opts:    o,
		sem:     semaphore.NewWeighted(int64(o.Workers)),
	}

	var wg sync.WaitGroup
	connCtx, connCancel := context.WithCancel(ctx)
	defer func() {
		connCancel()
		listener.Close()
		wg.Wait()
	}()

	// 监听 context 取消，主动关闭 listener
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	if o.Ready != nil {
		select {
		case o.Ready <- struct{}{}:
		default:
		}
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("ipc: accept error: %w", err)
			}
		}
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			srv.serveConn(connCtx, c)
		}(conn)
	}
}

type server struct {
	handler Handler
	opts    ServerOptions
	sem     *semaphore.Weighted
}

// connState is the per-connection bookkeeping shared by its request
// goroutines.
type connState struct {
	conn net.Conn
	// abandoned is cancelled when responses can no longer be delivered.
	abandoned    context.Context
	writeMu      sync.Mutex
	enc          *json.Encoder
	writeTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func (s *server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	abandoned, abandon := context.WithCancel(ctx)
	defer abandon()
	// unblock the reader when the server shuts down
	go func() {
		<-abandoned.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	st := &connState{
		conn:         conn,
		abandoned:    abandoned,
		enc:          json.NewEncoder(conn),
		writeTimeout: s.opts.WriteTimeout,
		inFlight:     make(map[string]struct{}),
	}

	var wg sync.WaitGroup
	reader := bufio.NewReaderSize(conn, 64<<10)
	for {
		line, err := readLine(reader, s.opts.MaxMessageSize)
		if len(line) > 0 {
			s.accept(ctx, st, &wg, line)
		}
		if err != nil {
			// the peer is gone: queued requests are abandoned, running
			// handlers finish and their responses are dropped
			switch {
			case errors.Is(err, errMessageTooLarge):
				st.write(NewErrorResponse("", apperrors.Newf(apperrors.KindMalformedRequest, "request exceeds %d bytes", s.opts.MaxMessageSize)))
			case !errors.Is(err, io.EOF) && abandoned.Err() == nil:
				logger.Debug("ipc: connection read failed", "error", err)
			}
			abandon()
			wg.Wait()
			return
		}
	}
}

// accept registers the request token and dispatches it on its own
// goroutine.
func (s *server) accept(ctx context.Context, st *connState, wg *sync.WaitGroup, line []byte) {
	raw := bytes.TrimSpace(line)
	if len(raw) == 0 {
		return
	}
	token := EnvelopeToken(raw)
	if token != "" && !st.claim(token) {
		// the pending request keeps its token; the duplicate gets none
		st.write(NewErrorResponse("", apperrors.Newf(apperrors.KindMalformedRequest, "token %q is already in flight", token)))
		return
	}

	msg := make([]byte, len(raw))
	copy(msg, raw)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer st.release(token)

		if err := s.sem.Acquire(st.abandoned, 1); err != nil {
			logger.Debug("ipc: request abandoned before dispatch", "token", token)
			return
		}
		if st.abandoned.Err() != nil {
			s.sem.Release(1)
			logger.Debug("ipc: request abandoned before dispatch", "token", token)
			return
		}
		// handlers are not assumed cancel-safe and run to completion
		resp := s.handler.Handle(context.WithoutCancel(ctx), msg)
		s.sem.Release(1)

		if st.abandoned.Err() != nil {
			logger.Debug("ipc: response dropped, connection gone", "token", resp.Token)
			return
		}
		st.write(resp)
	}()
}

func (st *connState) claim(token string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, busy := st.inFlight[token]; busy {
		return false
	}
	st.inFlight[token] = struct{}{}
	return true
}

func (st *connState) release(token string) {
	if token == "" {
		return
	}
	st.mu.Lock()
	delete(st.inFlight, token)
	st.mu.Unlock()
}

func (st *connState) write(resp Response) {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()
	if st.writeTimeout > 0 {
		_ = st.conn.SetWriteDeadline(time.Now().Add(st.writeTimeout))
	}
	if err := st.enc.Encode(resp); err != nil {
		logger.Debug("ipc: write response failed", "token", resp.Token, "error", err)
	}
}

var errMessageTooLarge = errors.New("ipc: message too large")

// readLine reads one newline-terminated message of at most limit bytes.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		buf = append(buf, chunk...)
		if len(buf) > limit {
			return nil, errMessageTooLarge
		}
		if err != nil {
			return buf, err
		}
		if !isPrefix {
			return buf, nil
		}
	}
}
