package testdoubles

import (
	"context"
	"sync"
)

// SpyLogRecord represents one recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy captures logging calls for testing. It implements both the
// Logger and the ContextualLogger interface of the instrumented package.
type LoggerSpy struct {
	records []SpyLogRecord
	mu      sync.Mutex
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug records a debug level call.
func (s *LoggerSpy) Debug(msg string, args ...any) {
	s.record("debug", msg, args)
}

// Info records an info level call.
func (s *LoggerSpy) Info(msg string, args ...any) {
	s.record("info", msg, args)
}

// Warn records a warn level call.
func (s *LoggerSpy) Warn(msg string, args ...any) {
	s.record("warn", msg, args)
}

// Error records an error level call.
func (s *LoggerSpy) Error(msg string, args ...any) {
	s.record("error", msg, args)
}

// DebugContext records a debug level call, discarding the context.
func (s *LoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.record("debug", msg, args)
}

// InfoContext records an info level call, discarding the context.
func (s *LoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.record("info", msg, args)
}

// WarnContext records a warn level call, discarding the context.
func (s *LoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.record("warn", msg, args)
}

// ErrorContext records an error level call, discarding the context.
func (s *LoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.record("error", msg, args)
}

// Records returns a copy of all recorded log calls in order.
func (s *LoggerSpy) Records() []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyLogRecord(nil), s.records...)
}

// RecordsWithLevel returns all recorded calls of the given level.
func (s *LoggerSpy) RecordsWithLevel(level string) []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []SpyLogRecord
	for _, record := range s.records {
		if record.Level == level {
			matching = append(matching, record)
		}
	}

	return matching
}

// Reset discards all recorded calls.
func (s *LoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

func (s *LoggerSpy) record(level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{
		Level:   level,
		Message: msg,
		Args:    append([]any(nil), args...),
	})
}
