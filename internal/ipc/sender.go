package ipc

import (
	"context"
	"fmt"
	"time"
)

// Sender delivers one request to the bridge and returns its response.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// UnixSender dials the unix socket each time Send is invoked.
type UnixSender struct {
	Socket  string
	Timeout time.Duration
}

// NewUnixSender returns a Sender that communicates over a unix socket.
func NewUnixSender(socket string, timeout time.Duration) *UnixSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UnixSender{Socket: socket, Timeout: timeout}
}

func (s *UnixSender) Send(ctx context.Context, req Request) (Response, error) {
	if s == nil || s.Socket == "" {
		return Response{}, fmt.Errorf("ipc: invalid unix sender")
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	client, err := Dial(ctx, s.Socket, &ClientOptions{CallTimeout: s.Timeout})
	if err != nil {
		return Response{}, err
	}
	defer client.Close()

	return client.Call(ctx, req)
}

// FakeSender allows CLI tests to inject deterministic responses.
type FakeSender struct {
	Response Response
	Err      error
	Requests []Request
}

func (f *FakeSender) Send(ctx context.Context, req Request) (Response, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return Response{}, f.Err
	}
	resp := f.Response
	resp.Token = req.Token
	return resp, nil
}
