package testdoubles

import (
	"context"
	"sync"

	"github.com/trailware/instrumented-values-go/instrumented"
)

// SpySpanContext implements instrumented.SpanContext for testing.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

// SetStatus records the span status.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute records a span attribute.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

// Status returns the recorded status.
func (c *SpySpanContext) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Attributes returns a copy of the recorded attributes.
func (c *SpySpanContext) Attributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return copyLabels(c.attributes)
}

// SpySpanRecord represents one recorded span lifecycle.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

// TracingCollectorSpy captures span lifecycles for testing drain
// instrumentation. It implements the TracingCollector interface of the
// instrumented package.
type TracingCollectorSpy struct {
	spanRecords []SpySpanRecord
	active      map[instrumented.SpanContext]int
	mu          sync.Mutex
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{active: make(map[instrumented.SpanContext]int)}
}

// StartSpan records a span start and returns a spy span context.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, instrumented.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpySpanContext{}
	s.spanRecords = append(s.spanRecords, SpySpanRecord{
		Name:            name,
		StartAttributes: copyLabels(attrs),
	})
	s.active[spanCtx] = len(s.spanRecords) - 1

	return ctx, spanCtx
}

// FinishSpan records a span end with its final status and attributes.
func (s *TracingCollectorSpy) FinishSpan(spanCtx instrumented.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, known := s.active[spanCtx]
	if !known {
		return
	}

	s.spanRecords[index].Status = status
	s.spanRecords[index].EndAttributes = copyLabels(attrs)
	s.spanRecords[index].Finished = true

	delete(s.active, spanCtx)
}

// SpanRecords returns a copy of all recorded spans in start order.
func (s *TracingCollectorSpy) SpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpySpanRecord(nil), s.spanRecords...)
}

var _ instrumented.TracingCollector = (*TracingCollectorSpy)(nil)
