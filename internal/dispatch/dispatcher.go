// Package dispatch turns invocation envelopes into handler calls and back.
//
// Every request yields exactly one response carrying the request's token.
// No handler runs unless its command resolved and its arguments decoded,
// and no per-request failure escapes as a panic.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/logger"
	"github.com/migmoroni/vaudio/internal/registry"
)

const tracerName = "github.com/migmoroni/vaudio/internal/dispatch"

// Dispatcher holds no per-request state; it is safe for concurrent use.
type Dispatcher struct {
	registry *registry.Registry
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracer overrides the tracer used for invocation spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// New creates a dispatcher over a built registry.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle implements ipc.Handler.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) ipc.Response {
	return d.Dispatch(ctx, raw)
}

// Dispatch runs the full pipeline for one raw envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) ipc.Response {
	req, err := parseEnvelope(raw)
	if err != nil {
		logger.Debug("dispatch: malformed request", "token", req.Token, "error", err)
		return ipc.NewErrorResponse(req.Token, err)
	}
	return d.DispatchRequest(ctx, req)
}

// DispatchRequest runs the pipeline for an already parsed request.
func (d *Dispatcher) DispatchRequest(ctx context.Context, req ipc.Request) ipc.Response {
	if err := validateRequest(req); err != nil {
		return ipc.NewErrorResponse(req.Token, err)
	}

	ctx, span := d.tracer.Start(ctx, "bridge.invoke "+req.Command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bridge.command", req.Command),
			attribute.String("bridge.token", req.Token),
		),
	)
	defer span.End()

	log := logger.With("command", req.Command, "token", req.Token)
	start := time.Now()
	resp := d.run(ctx, log, req)
	if resp.OK {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(attribute.String("bridge.error_kind", resp.Error.Kind))
		span.SetStatus(codes.Error, resp.Error.Message)
	}
	log.Debug("dispatch: request done", "ok", resp.OK, "duration", time.Since(start))
	return resp
}

func (d *Dispatcher) run(ctx context.Context, log *slog.Logger, req ipc.Request) ipc.Response {
	h, err := d.registry.Resolve(req.Command)
	if err != nil {
		return ipc.NewErrorResponse(req.Token, err)
	}

	args := h.NewArgs()
	if err := bindArgs(h.Params(), args, req.Args); err != nil {
		return ipc.NewErrorResponse(req.Token, err)
	}

	result, err := invoke(ctx, h, args)
	if err != nil {
		log.Warn("dispatch: handler failed", "kind", apperrors.KindOf(err), "error", err)
		return ipc.NewErrorResponse(req.Token, err)
	}

	resp, err := ipc.NewResponse(req.Token, result)
	if err != nil {
		return ipc.NewErrorResponse(req.Token, apperrors.Wrap(apperrors.KindInternal, "result is not serializable", err))
	}
	return resp
}

// invoke calls the handler, awaiting deferred results and converting panics
// into handler errors.
func invoke(ctx context.Context, h registry.Handler, args any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch: handler panicked", "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = apperrors.Newf(apperrors.KindHandlerError, "handler panicked: %v", r)
		}
	}()

	result, err = h.Call(ctx, args)
	if err != nil {
		return nil, err
	}
	if a, ok := result.(registry.Awaiter); ok {
		return a.Await(ctx)
	}
	return result, nil
}

// parseEnvelope decodes a raw envelope. On failure the returned request
// still carries whatever token could be recovered.
func parseEnvelope(raw []byte) (ipc.Request, error) {
	recovered := ipc.Request{Token: ipc.EnvelopeToken(raw)}
	if !gjson.ValidBytes(raw) {
		return recovered, apperrors.New(apperrors.KindMalformedRequest, "envelope is not valid JSON")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return recovered, apperrors.New(apperrors.KindMalformedRequest, "envelope is not a JSON object")
	}
	if key := ipc.RepeatedKey(raw); key != "" {
		return recovered, apperrors.Newf(apperrors.KindMalformedRequest, "envelope repeats key %q", key)
	}

	var req ipc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return recovered, apperrors.Wrap(apperrors.KindMalformedRequest, fmt.Sprintf("envelope does not decode: %v", err), err)
	}
	if req.Token != recovered.Token {
		// the transport correlated this envelope under a different token
		return ipc.Request{}, apperrors.New(apperrors.KindMalformedRequest, "envelope token is ambiguous")
	}
	if err := validateRequest(req); err != nil {
		return recovered, err
	}
	return req, nil
}

func validateRequest(req ipc.Request) error {
	if req.Token == "" {
		return apperrors.New(apperrors.KindMalformedRequest, "envelope has no token")
	}
	if req.Command == "" {
		return apperrors.New(apperrors.KindMalformedRequest, "envelope has no command")
	}
	return nil
}
