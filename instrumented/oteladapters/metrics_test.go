package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/trailware/instrumented-values-go/instrumented"
	"github.com/trailware/instrumented-values-go/instrumented/oteladapters"
)

func newTestCollector(t *testing.T) (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")

	return oteladapters.NewMetricsCollector(meter), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, metricEntry := range scopeMetrics.Metrics {
			if metricEntry.Name == name {
				return metricEntry
			}
		}
	}

	t.Fatalf("metric %q not found", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_UsesHistogramInSeconds(t *testing.T) {
	collector, reader := newTestCollector(t)

	collector.RecordDuration(instrumented.DrainDurationMetric, 150*time.Millisecond, map[string]string{
		"operation": "drain",
		"status":    "success",
	})

	metricEntry := findMetric(t, collectMetrics(t, reader), instrumented.DrainDurationMetric)

	histogram, ok := metricEntry.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "drain"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter_Accumulates(t *testing.T) {
	collector, reader := newTestCollector(t)

	labels := map[string]string{"caller": "double", "operation": "map"}
	collector.IncrementCounter(instrumented.StageCallsMetric, labels)
	collector.IncrementCounter(instrumented.StageCallsMetric, labels)
	collector.IncrementCounter(instrumented.StageCallsMetric, labels)

	metricEntry := findMetric(t, collectMetrics(t, reader), instrumented.StageCallsMetric)

	sum, ok := metricEntry.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_UsesGauge(t *testing.T) {
	collector, reader := newTestCollector(t)

	collector.RecordValue(instrumented.DrainRecordCountMetric, 4, nil)

	metricEntry := findMetric(t, collectMetrics(t, reader), instrumented.DrainRecordCountMetric)

	gauge, ok := metricEntry.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 4.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_ContextualMethods(t *testing.T) {
	collector, reader := newTestCollector(t)

	ctx := context.Background()
	collector.RecordDurationContext(ctx, instrumented.DrainDurationMetric, time.Second, nil)
	collector.IncrementCounterContext(ctx, instrumented.DrainCallsMetric, nil)
	collector.RecordValueContext(ctx, instrumented.DrainRecordCountMetric, 1, nil)

	resourceMetrics := collectMetrics(t, reader)
	findMetric(t, resourceMetrics, instrumented.DrainDurationMetric)
	findMetric(t, resourceMetrics, instrumented.DrainCallsMetric)
	findMetric(t, resourceMetrics, instrumented.DrainRecordCountMetric)
}

func Test_MetricsCollector_ReusesInstruments(t *testing.T) {
	collector, reader := newTestCollector(t)

	collector.IncrementCounter(instrumented.DrainCallsMetric, nil)
	collector.IncrementCounter(instrumented.DrainCallsMetric, nil)

	metricEntry := findMetric(t, collectMetrics(t, reader), instrumented.DrainCallsMetric)

	sum, ok := metricEntry.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "repeated use must not create duplicate instruments")
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}
