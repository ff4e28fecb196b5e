package ipc

import "context"

// Handler turns one raw request envelope into its response. The server
// calls it concurrently.
type Handler interface {
	Handle(ctx context.Context, raw []byte) Response
}

// HandlerFunc is a helper wrapper that lets a function satisfy Handler.
type HandlerFunc func(ctx context.Context, raw []byte) Response

// Handle calls the wrapped function.
func (f HandlerFunc) Handle(ctx context.Context, raw []byte) Response {
	return f(ctx, raw)
}
