package instrumented

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyStageName is returned when a named composition call is given an
	// empty stage name. Use the unnamed operators for anonymous stages.
	ErrEmptyStageName = errors.New("empty stage name supplied")

	// ErrNilTransform is returned when a composition call is given a nil
	// transformation function.
	ErrNilTransform = errors.New("nil transformation function supplied")

	// ErrNilInnerValue is returned when a flatMap transformation returns a
	// nil wrapper.
	ErrNilInnerValue = errors.New("flatMap transformation returned a nil wrapper")

	// ErrNilSink is returned when a drain operation is given a nil sink.
	ErrNilSink = errors.New("nil sink supplied")
)

// Value threads a payload through a chain of transformation stages while
// recording an ordered, append-only audit trail of EventRecords.
//
// A Value is immutable once created: composition never mutates the receiver,
// it always allocates a successor wrapper carrying a copy of the log with the
// new record appended. Instances must be created with the Of factory, never
// directly.
type Value[V any] struct {
	current   V
	records   EventRecords
	observers observers
}

// Of is the factory for Value. It builds a one-record log whose value
// snapshot is a deep copy of value; the construction record carries no caller
// and no input snapshot. An optional free-form payload and the observability
// collaborators are supplied via options.
//
// Returns an error only when value cannot be snapshotted (ErrSnapshotFailed)
// or an option fails.
func Of[V any](value V, opts ...Option) (*Value[V], error) {
	var cfg config
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	snapshot, err := takeSnapshot(value)
	if err != nil {
		return nil, err
	}

	record := EventRecord{
		Value:      snapshot,
		Fields:     cfg.payload,
		RecordedAt: time.Now(),
	}

	return &Value[V]{
		current:   value,
		records:   EventRecords{record},
		observers: cfg.observers,
	}, nil
}

// Current returns the live current value. For composite payloads this is the
// live reference, not a snapshot; mutating it does not affect recorded
// snapshots.
func (w *Value[V]) Current() V {
	return w.current
}

// Events returns an independent copy of the accumulated event log, in
// composition order.
func (w *Value[V]) Events() EventRecords {
	return cloneRecords(w.records)
}

// Map applies transform to the current value and returns a successor wrapper
// whose current value is the transform's return value and whose log carries
// one appended record attributed to CallerAnonymous. The receiver wrapper is
// left unmodified.
//
// The input snapshot is captured before transform is invoked, so any in-place
// mutation the transform performs on a shared payload is excluded from the
// recorded input. The successor always adopts the transform's return value;
// transforms that only mutate in place and return nothing meaningful are a
// caller error.
func Map[V, A any](w *Value[V], transform func(V) A) (*Value[A], error) {
	return mapStage(w, CallerAnonymous, transform)
}

// MapNamed is Map with an explicit stage name recorded as the caller.
func MapNamed[V, A any](w *Value[V], name string, transform func(V) A) (*Value[A], error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}

	return mapStage(w, name, transform)
}

func mapStage[V, A any](w *Value[V], name string, transform func(V) A) (*Value[A], error) {
	if transform == nil {
		return nil, ErrNilTransform
	}

	inputSnapshot, err := takeSnapshot(w.current)
	if err != nil {
		return nil, err
	}

	result := transform(w.current)

	valueSnapshot, err := takeSnapshot(result)
	if err != nil {
		return nil, err
	}

	records := cloneRecords(w.records)
	records = append(records, EventRecord{
		Caller:     name,
		Input:      inputSnapshot,
		Value:      valueSnapshot,
		RecordedAt: time.Now(),
	})

	w.observers.recordStage(name, operationMap)

	return &Value[A]{
		current:   result,
		records:   records,
		observers: w.observers,
	}, nil
}

// FlatMap applies a transform that itself returns a wrapper, used when the
// stage wants to contribute its own event record(s). The resulting log is the
// receiver's log with the inner wrapper's full log appended - never a wrapper
// nested inside a wrapper.
//
// The last merged record is rewritten to describe this call site: its caller
// becomes CallerAnonymous (or the name given to FlatMapNamed), its input the
// snapshot of the receiver's current value at call time, and its value the
// snapshot of the inner wrapper's final value. Free-form fields contributed
// by the inner wrapper's own construction are preserved.
func FlatMap[V, A any](w *Value[V], transform func(V) (*Value[A], error)) (*Value[A], error) {
	return flatMapStage(w, CallerAnonymous, transform)
}

// FlatMapNamed is FlatMap with an explicit stage name recorded as the caller.
func FlatMapNamed[V, A any](w *Value[V], name string, transform func(V) (*Value[A], error)) (*Value[A], error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}

	return flatMapStage(w, name, transform)
}

func flatMapStage[V, A any](w *Value[V], name string, transform func(V) (*Value[A], error)) (*Value[A], error) {
	if transform == nil {
		return nil, ErrNilTransform
	}

	inputSnapshot, err := takeSnapshot(w.current)
	if err != nil {
		return nil, err
	}

	inner, err := transform(w.current)
	if err != nil {
		return nil, err
	}

	if inner == nil {
		return nil, ErrNilInnerValue
	}

	valueSnapshot, err := takeSnapshot(inner.current)
	if err != nil {
		return nil, err
	}

	records := cloneRecords(w.records)
	records = append(records, cloneRecords(inner.records)...)

	// The trailing merged record describes this call site.
	last := &records[len(records)-1]
	last.Caller = name
	last.Input = inputSnapshot
	last.Value = valueSnapshot

	w.observers.recordStage(name, operationFlatMap)

	return &Value[A]{
		current:   inner.current,
		records:   records,
		observers: w.observers, // the outer chain's collaborators win
	}, nil
}

// Run is the terminal drain. It invokes sink exactly once with an independent
// copy of the full ordered event log, then returns the current value. A sink
// failure propagates unhandled; the wrapper provides no retry or fallback.
// The wrapper itself is not mutated by draining.
func (w *Value[V]) Run(sink Sink) (V, error) {
	var zero V

	if sink == nil {
		return zero, ErrNilSink
	}

	return w.drain(context.Background(), func(_ context.Context, records EventRecords) error {
		return sink(records)
	})
}

// RunAsync is the context-aware terminal drain. It invokes sink exactly once
// with an independent copy of the full ordered event log and blocks until the
// sink completes, then returns the current value. The log was assembled
// synchronously during composition, so its order is unaffected by whatever
// the sink does with the context.
func (w *Value[V]) RunAsync(ctx context.Context, sink AsyncSink) (V, error) {
	var zero V

	if sink == nil {
		return zero, ErrNilSink
	}

	return w.drain(ctx, sink)
}

func (w *Value[V]) drain(ctx context.Context, deliver AsyncSink) (V, error) {
	records := cloneRecords(w.records)

	w.observers.logDrainStart(ctx, len(records))
	drainStart := time.Now()
	ctx, span := w.observers.startDrainSpan(ctx, len(records))

	if err := deliver(ctx, records); err != nil {
		duration := time.Since(drainStart)
		w.observers.recordDrainMetrics(ctx, StatusError, len(records), duration)
		w.observers.finishDrainSpan(span, StatusError, duration)
		w.observers.logDrainFailed(ctx, err)

		var zero V

		return zero, err
	}

	duration := time.Since(drainStart)
	w.observers.recordDrainMetrics(ctx, StatusSuccess, len(records), duration)
	w.observers.finishDrainSpan(span, StatusSuccess, duration)
	w.observers.logDrainCompleted(ctx, len(records), duration)

	return w.current, nil
}
