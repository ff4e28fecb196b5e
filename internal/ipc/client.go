package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/migmoroni/vaudio/internal/logger"
)

// ErrClientClosed is returned for calls on a closed client or calls pending
// when the connection dropped.
var ErrClientClosed = errors.New("ipc: client closed")

// Client is the UI-side end of the bridge. It keeps one connection open and
// correlates responses to calls by token, so calls may run concurrently.
type Client struct {
	conn net.Conn
	// timeout applies to calls whose context has no deadline
	timeout time.Duration

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
	err     error
	done    chan struct{}
}

// ClientOptions control Dial.
type ClientOptions struct {
	// CallTimeout applies to calls whose context carries no deadline.
	// Defaults to 5s; negative disables it.
	CallTimeout time.Duration
}

// Dial connects to the bridge listening on socketPath.
func Dial(ctx context.Context, socketPath string, opts *ClientOptions) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("ipc: connect failed: %w", err)
	}
	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts *ClientOptions) *Client {
	timeout := 5 * time.Second
	if opts != nil && opts.CallTimeout != 0 {
		timeout = opts.CallTimeout
	}
	c := &Client{
		conn:    conn,
		timeout: timeout,
		enc:     json.NewEncoder(conn),
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Call sends req and waits for the response carrying its token. A request
// without a token gets a fresh one.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	if req.Token == "" {
		req.Token = NewToken()
	}
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		return Response{}, err
	}
	if _, busy := c.pending[req.Token]; busy {
		c.mu.Unlock()
		return Response{}, fmt.Errorf("ipc: token %q is already in flight", req.Token)
	}
	c.pending[req.Token] = ch
	c.mu.Unlock()

	if err := c.send(req); err != nil {
		c.forget(req.Token)
		return Response{}, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		// a late response for this token is dropped by readLoop
		c.forget(req.Token)
		return Response{}, ctx.Err()
	case <-c.done:
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		return Response{}, err
	}
}

// Invoke calls command with args and decodes the result into result.
func (c *Client) Invoke(ctx context.Context, command string, args any, result any) error {
	req, err := NewRequest(command, args)
	if err != nil {
		return err
	}
	resp, err := c.Call(ctx, *req)
	if err != nil {
		return err
	}
	return resp.ParseResult(result)
}

// Close closes the connection and fails pending calls.
func (c *Client) Close() error {
	c.shutdown(ErrClientClosed)
	return c.conn.Close()
}

func (c *Client) send(req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.enc.Encode(req); err != nil {
		return fmt.Errorf("ipc: send request: %w", err)
	}
	return nil
}

func (c *Client) forget(token string) {
	c.mu.Lock()
	delete(c.pending, token)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	dec := json.NewDecoder(c.conn)
	for {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrClientClosed, err))
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.Token]
		if ok {
			delete(c.pending, resp.Token)
		}
		c.mu.Unlock()
		if !ok {
			logger.Debug("ipc: dropping response with unknown token", "token", resp.Token)
			continue
		}
		ch <- resp
	}
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	c.pending = make(map[string]chan Response)
	close(c.done)
}
