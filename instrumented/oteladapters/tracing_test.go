package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/trailware/instrumented-values-go/instrumented"
	"github.com/trailware/instrumented-values-go/instrumented/oteladapters"
)

func newTestTracer(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func Test_TracingCollector_SpanLifecycle(t *testing.T) {
	collector, exporter := newTestTracer(t)

	ctx, spanCtx := collector.StartSpan(context.Background(), "instrumented.drain", map[string]string{
		"record_count": "4",
	})
	require.NotNil(t, ctx)
	require.NotNil(t, spanCtx)

	collector.FinishSpan(spanCtx, instrumented.StatusSuccess, map[string]string{
		"duration_ms": "1.50",
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "instrumented.drain", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)

	attrs := make(map[string]string, len(span.Attributes))
	for _, attr := range span.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsString()
	}

	assert.Equal(t, "4", attrs["record_count"])
	assert.Equal(t, "1.50", attrs["duration_ms"])
}

func Test_TracingCollector_ErrorStatus(t *testing.T) {
	collector, exporter := newTestTracer(t)

	_, spanCtx := collector.StartSpan(context.Background(), "instrumented.drain", nil)
	collector.FinishSpan(spanCtx, instrumented.StatusError, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	collector, exporter := newTestTracer(t)

	_, spanCtx := collector.StartSpan(context.Background(), "instrumented.drain", nil)
	collector.FinishSpan(spanCtx, "weird", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	found := false
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "status" && attr.Value.AsString() == "weird" {
			found = true
		}
	}
	assert.True(t, found, "unknown status should be recorded as a span attribute")
}

func Test_TracingCollector_ContextPropagation(t *testing.T) {
	collector, _ := newTestTracer(t)

	ctx, spanCtx := collector.StartSpan(context.Background(), "instrumented.drain", nil)
	defer collector.FinishSpan(spanCtx, instrumented.StatusSuccess, nil)

	assert.True(t, trace.SpanContextFromContext(ctx).IsValid(),
		"the returned context should carry the active span")
}

func Test_TracingCollector_ForeignSpanContextIsIgnored(t *testing.T) {
	collector, exporter := newTestTracer(t)

	collector.FinishSpan(foreignSpanContext{}, instrumented.StatusSuccess, nil)

	assert.Empty(t, exporter.GetSpans())
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string) {}

func (foreignSpanContext) AddAttribute(_, _ string) {}
