package oteladapters_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/trailware/instrumented-values-go/instrumented/oteladapters"
)

// capturingHandler records slog output for assertions.
type capturingHandler struct {
	records *[]slog.Record
}

func (h capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h capturingHandler) Handle(_ context.Context, record slog.Record) error {
	*h.records = append(*h.records, record)
	return nil
}

func (h capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h capturingHandler) WithGroup(_ string) slog.Handler { return h }

func Test_SlogBridgeLogger_Construction(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("pipeline")

	assert.NotNil(t, logger)
}

func Test_SlogBridgeLoggerWithHandler_AllLevels(t *testing.T) {
	var captured []slog.Record
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(capturingHandler{records: &captured})

	ctx := context.Background()
	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message", "record_count", 4)
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message", "error", "boom")

	require.Len(t, captured, 4)
	assert.Equal(t, slog.LevelDebug, captured[0].Level)
	assert.Equal(t, "info message", captured[1].Message)
	assert.Equal(t, slog.LevelWarn, captured[2].Level)
	assert.Equal(t, slog.LevelError, captured[3].Level)
}

func Test_SlogBridgeLoggerWithHandler_CarriesAttributes(t *testing.T) {
	var captured []slog.Record
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(capturingHandler{records: &captured})

	logger.InfoContext(context.Background(), "drain completed", "record_count", 4, "duration_ms", "1.50")

	require.Len(t, captured, 1)

	attrs := make(map[string]string)
	captured[0].Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.String()
		return true
	})

	assert.Equal(t, "4", attrs["record_count"])
	assert.Equal(t, "1.50", attrs["duration_ms"])
}

func Test_OTelLogger_AllLevels(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug message", "caller", "anonymous")
		logger.InfoContext(ctx, "info message", "record_count", 4)
		logger.WarnContext(ctx, "warn message")
		logger.ErrorContext(ctx, "error message", "error", "boom")
	})
}

func Test_OTelLogger_HandlesIrregularArgs(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "odd trailing arg", "key1", "value1", "dangling")
		logger.InfoContext(ctx, "non-string key", 42, "value")
		logger.InfoContext(ctx, "no args at all")
	})
}
