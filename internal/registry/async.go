package registry

import (
	"context"
	"sync"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
)

// Awaiter is a deferred handler result. When a handler returns one, the
// dispatcher waits for it before answering.
type Awaiter interface {
	Await(ctx context.Context) (any, error)
}

// Async is the Awaiter returned by Go.
type Async struct {
	once    sync.Once
	pending chan struct{}
	data    any
	err     error
}

// Go runs fn on its own goroutine and returns its pending result. A panic
// in fn completes the result with a HandlerError.
func Go(fn func() (any, error)) *Async {
	res := &Async{pending: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				res.complete(nil, apperrors.Newf(apperrors.KindHandlerError, "handler panicked: %v", r))
			}
		}()
		data, err := fn()
		res.complete(data, err)
	}()
	return res
}

// Await blocks until the result is ready or ctx is done.
func (res *Async) Await(ctx context.Context) (any, error) {
	select {
	case <-res.pending:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (res *Async) complete(data any, err error) {
	res.once.Do(func() {
		res.data = data
		res.err = err
		close(res.pending)
	})
}
