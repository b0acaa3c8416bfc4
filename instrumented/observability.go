package instrumented

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	// StageCallsMetric tracks total composition calls (map/flatMap) per stage.
	StageCallsMetric = "instrumented_stage_calls_total"

	// DrainDurationMetric tracks sink delivery duration (OpenTelemetry-compatible).
	DrainDurationMetric = "instrumented_drain_duration_seconds"

	// DrainCallsMetric tracks total drain calls.
	DrainCallsMetric = "instrumented_drain_calls_total"

	// DrainRecordCountMetric tracks the number of event records handed to the sink per drain.
	DrainRecordCountMetric = "instrumented_drain_record_count"

	logMsgDrainStart     = "draining instrumented value"
	logMsgDrainCompleted = "drain completed"
	logMsgDrainFailed    = "sink delivery failed"

	// LogAttrCaller is the log/metric label carrying a stage's caller name.
	LogAttrCaller = "caller"

	// LogAttrOperation is the log/metric label carrying the operation kind.
	LogAttrOperation = "operation"

	logAttrError       = "error"
	logAttrRecordCount = "record_count"
	logAttrDurationMS  = "duration_ms"

	// StatusSuccess and StatusError are the span statuses reported for drains.
	StatusSuccess = "success"
	StatusError   = "error"

	operationMap     = "map"
	operationFlatMap = "flat_map"
	operationDrain   = "drain"

	drainSpanName = "instrumented.drain"
)

// Logger interface for operational logging from composition and drain
// operations.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting pipeline performance and
// operational metrics (stage counts, drain durations, record counts).
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware
// methods for better tracing integration. This interface is optional - the
// wrapper will use context-aware methods when available, falling back to the
// base MetricsCollector interface otherwise.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and
// updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information
// from drain operations. It is dependency-free, allowing integration with any
// tracing backend (OpenTelemetry, Jaeger, Zipkin, etc.) by implementing this
// interface.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// ContextualLogger interface for context-aware logging with automatic trace
// correlation. It follows the same dependency-free pattern as
// MetricsCollector and TracingCollector.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// observers bundles the optional collaborators carried through a chain.
// The zero value is fully functional and records nothing.
type observers struct {
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

func buildStageLabels(caller, operation string) map[string]string {
	return map[string]string{
		LogAttrCaller:    caller,
		LogAttrOperation: operation,
	}
}

// recordStage counts one composition call.
func (o observers) recordStage(caller, operation string) {
	if o.metricsCollector == nil {
		return
	}

	o.metricsCollector.IncrementCounter(StageCallsMetric, buildStageLabels(caller, operation))
}

// startDrainSpan opens a tracing span around the sink invocation.
func (o observers) startDrainSpan(ctx context.Context, recordCount int) (context.Context, SpanContext) {
	if o.tracingCollector == nil {
		return ctx, nil
	}

	return o.tracingCollector.StartSpan(ctx, drainSpanName, map[string]string{
		logAttrRecordCount: strconv.Itoa(recordCount),
	})
}

// finishDrainSpan closes the drain span with the outcome status.
func (o observers) finishDrainSpan(span SpanContext, status string, duration time.Duration) {
	if o.tracingCollector == nil || span == nil {
		return
	}

	o.tracingCollector.FinishSpan(span, status, map[string]string{
		logAttrDurationMS: formatDurationMS(duration),
	})
}

func (o observers) logDrainStart(ctx context.Context, recordCount int) {
	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, logMsgDrainStart, logAttrRecordCount, recordCount)
		return
	}

	if o.logger != nil {
		o.logger.Debug(logMsgDrainStart, logAttrRecordCount, recordCount)
	}
}

func (o observers) logDrainCompleted(ctx context.Context, recordCount int, duration time.Duration) {
	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, logMsgDrainCompleted,
			logAttrRecordCount, recordCount,
			logAttrDurationMS, formatDurationMS(duration))
		return
	}

	if o.logger != nil {
		o.logger.Info(logMsgDrainCompleted,
			logAttrRecordCount, recordCount,
			logAttrDurationMS, formatDurationMS(duration))
	}
}

func (o observers) logDrainFailed(ctx context.Context, err error) {
	if o.contextualLogger != nil {
		o.contextualLogger.ErrorContext(ctx, logMsgDrainFailed, logAttrError, err.Error())
		return
	}

	if o.logger != nil {
		o.logger.Error(logMsgDrainFailed, logAttrError, err.Error())
	}
}

// recordDrainMetrics records duration, call count and record count for one
// drain, using context-aware methods when the collector supports them.
func (o observers) recordDrainMetrics(ctx context.Context, status string, recordCount int, duration time.Duration) {
	if o.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		LogAttrOperation: operationDrain,
		"status":         status,
	}

	if contextual, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, DrainDurationMetric, duration, labels)
		contextual.IncrementCounterContext(ctx, DrainCallsMetric, labels)
		contextual.RecordValueContext(ctx, DrainRecordCountMetric, float64(recordCount), labels)

		return
	}

	o.metricsCollector.RecordDuration(DrainDurationMetric, duration, labels)
	o.metricsCollector.IncrementCounter(DrainCallsMetric, labels)
	o.metricsCollector.RecordValue(DrainRecordCountMetric, float64(recordCount), labels)
}

// ToMilliseconds converts a duration to fractional milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// formatDurationMS formats duration in milliseconds for span attributes.
func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(duration))
}
