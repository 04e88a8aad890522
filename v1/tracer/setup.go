package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Aleph-Alpha/admcodec"

// Tracer creates spans around store operations. The zero value and a nil
// *Tracer are valid and create no spans.
type Tracer struct {
	tracer   *sdktrace.TracerProvider
	delegate trace.Tracer
}

// NewClient creates a Tracer from cfg and installs its provider and the W3C
// trace context propagator globally.
//
// Example:
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "field-sync", EnableExport: true, Endpoint: "localhost:4318", Insecure: true})
//	defer t.Shutdown(ctx)
func NewClient(cfg Config) (*Tracer, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(newResource(cfg)),
	}
	if cfg.EnableExport {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(context.Background(), exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("tracer: create exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return NewFromProvider(tp), nil
}

// NewFromProvider wraps an existing provider without touching global state.
func NewFromProvider(tp *sdktrace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp, delegate: tp.Tracer(instrumentationName)}
}

// StartSpan starts a span named name as a child of the span in ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs map[string]interface{}) (context.Context, Span) {
	if t == nil || t.delegate == nil {
		return ctx, noopSpan{}
	}
	ctx, span := t.delegate.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))
	return ctx, &otelSpan{span: span}
}

// RecordErrorOnSpan marks span as failed with err. A nil err is ignored.
func (t *Tracer) RecordErrorOnSpan(span Span, err error) {
	if span != nil {
		span.RecordError(err)
	}
}

// SetAttributes adds attrs to span.
func (t *Tracer) SetAttributes(span Span, attrs map[string]interface{}) {
	if span != nil {
		span.SetAttributes(attrs)
	}
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}

// Span is the part of an OpenTelemetry span the store uses.
type Span interface {
	End()
	SetAttributes(attrs map[string]interface{})
	RecordError(err error)
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttributes(attrs map[string]interface{}) {
	s.span.SetAttributes(toAttributes(attrs)...)
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

type noopSpan struct{}

func (noopSpan) End() {}
func (noopSpan) SetAttributes(map[string]interface{}) {}
func (noopSpan) RecordError(error) {}

func toAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int32:
			out = append(out, attribute.Int(k, int(val)))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case uint64:
			out = append(out, attribute.String(k, fmt.Sprintf("%016x", val)))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return out
}
