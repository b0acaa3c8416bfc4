package instrumented

import (
	"encoding/json"
	"time"
)

// CallerAnonymous is the sentinel caller name recorded for stages composed
// without an explicit name.
const CallerAnonymous = "anonymous"

// Fields is a free-form payload merged into an EventRecord at construction
// time, e.g. Fields{"randomNumber": 0.42}.
type Fields map[string]any

// EventRecords is an alias type for a slice of EventRecord, the full ordered
// audit trail handed to a Sink on drain.
type EventRecords = []EventRecord

// EventRecord describes one pipeline stage in the audit trail.
//
// It is built on scalars and serialized snapshots to be completely agnostic
// of the payload types threaded through the pipeline.
//
// While its properties are exported, records should only be created by the
// wrapper itself; sinks receive them read-only and must not modify the
// snapshot bytes.
type EventRecord struct {
	Caller     string          // stage name, or CallerAnonymous
	Input      json.RawMessage // snapshot of the value before the stage; nil on the construction record
	Value      json.RawMessage // snapshot of the value after the stage
	Fields     Fields          // optional caller-supplied payload
	RecordedAt time.Time
}

// InputEquals reports whether the record's input snapshot serializes the
// given value. Convenience for sinks and tests.
func (r EventRecord) InputEquals(value any) bool {
	snap, err := takeSnapshot(value)
	if err != nil {
		return false
	}

	return string(snap) == string(r.Input)
}

// ValueEquals reports whether the record's value snapshot serializes the
// given value.
func (r EventRecord) ValueEquals(value any) bool {
	snap, err := takeSnapshot(value)
	if err != nil {
		return false
	}

	return string(snap) == string(r.Value)
}

// UnmarshalValue decodes the record's value snapshot into dest.
func (r EventRecord) UnmarshalValue(dest any) error {
	return restoreSnapshot(r.Value, dest)
}

// UnmarshalInput decodes the record's input snapshot into dest.
func (r EventRecord) UnmarshalInput(dest any) error {
	return restoreSnapshot(r.Input, dest)
}

// clone returns an independent copy of the record so that a successor
// wrapper's log can be rewritten without touching the predecessor's.
func (r EventRecord) clone() EventRecord {
	cloned := EventRecord{
		Caller:     r.Caller,
		RecordedAt: r.RecordedAt,
	}

	if r.Input != nil {
		cloned.Input = append(json.RawMessage(nil), r.Input...)
	}

	if r.Value != nil {
		cloned.Value = append(json.RawMessage(nil), r.Value...)
	}

	if r.Fields != nil {
		cloned.Fields = make(Fields, len(r.Fields))
		for key, val := range r.Fields {
			cloned.Fields[key] = val
		}
	}

	return cloned
}

// cloneRecords copies a full log. Used on every composition and drain so that
// no two wrappers (or a wrapper and a sink) ever share a backing array.
func cloneRecords(records EventRecords) EventRecords {
	cloned := make(EventRecords, len(records))
	for i, record := range records {
		cloned[i] = record.clone()
	}

	return cloned
}
