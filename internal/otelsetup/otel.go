// Package otelsetup wires OpenTelemetry tracing around dispatch, grounded
// on the observability package's InitOTLP: an HTTP OTLP trace exporter,
// batched, registered as the global tracer provider. Metric export is
// dropped (see DESIGN.md) since nothing in chanlog emits OTel metrics —
// Prometheus (internal/metrics) already covers that surface.
package otelsetup

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/user/chanlog/internal/config"
)

// Shutdown flushes and stops the registered tracer provider.
type Shutdown func(context.Context) error

// noopShutdown is returned when tracing is disabled (no endpoint configured).
func noopShutdown(context.Context) error { return nil }

// Init configures the global tracer provider from cfg. If cfg.Endpoint is
// empty, tracing is a no-op and Tracer() returns a provider that discards
// every span.
func Init(ctx context.Context, cfg config.OTLPConfig) (Shutdown, error) {
	if cfg.Endpoint == "" {
		return noopShutdown, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "chanlog"
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("build otlp trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

// Tracer returns the dispatch-core tracer. Safe to call whether or not
// Init has run; with no provider registered it yields a no-op tracer.
func Tracer() oteltrace.Tracer {
	return otel.Tracer("github.com/user/chanlog")
}
