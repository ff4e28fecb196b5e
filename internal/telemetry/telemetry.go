// Package telemetry wires OpenTelemetry tracing for the bridge.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/migmoroni/vaudio/internal/version"
)

const (
	EndpointEnv = "VAUDIO_OTEL_ENDPOINT"
	EnabledEnv  = "VAUDIO_OTEL_ENABLED"
)

// Setup initialises tracing for serviceName.
//
// Tracing is opt-in: when VAUDIO_OTEL_ENDPOINT is empty or
// VAUDIO_OTEL_ENABLED is "false", Setup returns a no-op shutdown function
// and leaves the global provider alone.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(EnabledEnv), "false") {
		return noop, nil
	}
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Tag),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
