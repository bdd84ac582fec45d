package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Span is the tracing contract adapters and the orchestrator depend on,
// rather than importing go.opentelemetry.io/otel/trace directly.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
	SetStatusError(description string)
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, "unsupported"))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) SetStatusError(description string) {
	s.span.SetStatus(codes.Error, description)
}

// tracerName is the single instrumentation-library name every service
// registers spans under; per-span names (e.g. "stage1.retrieval")
// distinguish operations instead of per-component tracer names.
const tracerName = "github.com/delimatsuo/headhunter-sub008"

// StartSpan begins a span named name under ctx. Safe to call even when
// no TracerProvider has been configured — otel's default no-op
// provider makes every call here a zero-cost no-op in that case, so
// call sites never need to branch on whether tracing is enabled.
func StartSpan(ctx context.Context, name string) (context.Context, Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// TracingConfig configures InitTracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// InitTracing wires an OTLP/HTTP exporter into the global
// TracerProvider and returns a shutdown func to flush on exit. Disabled
// configs are a no-op: every call site can unconditionally defer the
// returned func.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return noop, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)))
	if err != nil {
		return noop, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
