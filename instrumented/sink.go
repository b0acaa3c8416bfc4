package instrumented

import (
	"context"
)

const logMsgRecordDrained = "pipeline stage recorded"

// Sink consumes the full ordered event log of a drained chain. It is invoked
// exactly once per Run call and is responsible for all downstream delivery
// (logging, metrics emission, persistence). Delivery failure handling belongs
// entirely to the sink and its caller.
type Sink func(records EventRecords) error

// AsyncSink is the context-aware variant consumed by RunAsync. It is invoked
// exactly once per drain with the full ordered event log.
type AsyncSink func(ctx context.Context, records EventRecords) error

// NewLoggingSink returns a Sink that writes one structured info line per
// event record to the given logger. It replaces the process-wide console
// convenience some telemetry setups rely on with an injectable collaborator.
func NewLoggingSink(logger Logger) Sink {
	return func(records EventRecords) error {
		for i, record := range records {
			logger.Info(logMsgRecordDrained, recordLogArgs(i, record)...)
		}

		return nil
	}
}

// NewContextualLoggingSink is the context-aware variant of NewLoggingSink,
// for use with RunAsync and trace-correlated loggers.
func NewContextualLoggingSink(logger ContextualLogger) AsyncSink {
	return func(ctx context.Context, records EventRecords) error {
		for i, record := range records {
			logger.InfoContext(ctx, logMsgRecordDrained, recordLogArgs(i, record)...)
		}

		return nil
	}
}

func recordLogArgs(position int, record EventRecord) []any {
	args := []any{
		"position", position,
		LogAttrCaller, record.Caller,
		"input", string(record.Input),
		"value", string(record.Value),
	}

	if len(record.Fields) > 0 {
		args = append(args, "fields", record.Fields)
	}

	return args
}
