package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trailware/instrumented-values-go/instrumented"
)

// TracingCollector implements instrumented.TracingCollector using the
// OpenTelemetry trace API. It creates one span per drain and propagates trace
// context into the sink invocation.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a tracing collector on top of the given tracer.
// The tracer should come from your OpenTelemetry TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan creates a new span with the given name and attributes and returns
// a context carrying it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, instrumented.SpanContext) {
	startOptions := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		startOptions = append(startOptions, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, startOptions...)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan completes a span with the given status and final attributes.
func (t *TracingCollector) FinishSpan(spanCtx instrumented.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	for key, value := range attrs {
		otelSpanCtx.span.SetAttributes(attribute.String(key, value))
	}

	otelSpanCtx.setSpanStatus(status)
	otelSpanCtx.span.End()
}

var _ instrumented.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements instrumented.SpanContext by wrapping an
// OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus sets the span status from a generic status string.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus maps the drain status strings to OpenTelemetry status codes.
// Unknown strings are kept as a span attribute instead.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case instrumented.StatusSuccess, "ok", "completed":
		s.span.SetStatus(codes.Ok, "")
	case instrumented.StatusError, "failed", "failure":
		s.span.SetStatus(codes.Error, "sink delivery failed")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

var _ instrumented.SpanContext = (*OTelSpanContext)(nil)
