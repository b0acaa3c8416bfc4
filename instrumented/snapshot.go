package instrumented

import (
	"encoding/json"
	"errors"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrSnapshotFailed is returned when a value cannot be deep-copied into a
	// snapshot, typically because it contains non-serializable references
	// (functions, channels, cycles). This is the one recognized internal
	// failure mode of the wrapper.
	ErrSnapshotFailed = errors.New("taking value snapshot failed")

	// ErrRestoreSnapshotFailed is returned when a recorded snapshot cannot be
	// decoded back into the requested destination type.
	ErrRestoreSnapshotFailed = errors.New("restoring value snapshot failed")

	errCyclicValue = errors.New("value contains a reference cycle")
)

// takeSnapshot produces an immutable, independent deep copy of value at the
// moment of the call. Snapshots are serialized with jsoniter so that later
// in-place mutation of the live value cannot reach them.
//
// jsoniter's encoder does not track visited pointers, so a cyclic value is
// rejected up front; without this check the encoder would recurse until the
// stack is exhausted, which is fatal and not recoverable.
func takeSnapshot(value any) (json.RawMessage, error) {
	if containsCycle(reflect.ValueOf(value), make(map[uintptr]struct{})) {
		return nil, errors.Join(ErrSnapshotFailed, errCyclicValue)
	}

	data, err := jsoniter.ConfigFastest.Marshal(value)
	if err != nil {
		return nil, errors.Join(ErrSnapshotFailed, err)
	}

	return data, nil
}

// containsCycle walks the serializable parts of a value, tracking the
// pointers on the current path. A pointer revisited while still on the path
// is a cycle; mere sharing (the same pointer reached on two separate paths)
// is not, the encoder just serializes it twice.
func containsCycle(v reflect.Value, onPath map[uintptr]struct{}) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return false
		}

		ptr := v.Pointer()
		if _, active := onPath[ptr]; active {
			return true
		}

		onPath[ptr] = struct{}{}
		defer delete(onPath, ptr)

		switch v.Kind() {
		case reflect.Pointer:
			return containsCycle(v.Elem(), onPath)
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if containsCycle(iter.Key(), onPath) || containsCycle(iter.Value(), onPath) {
					return true
				}
			}
		default:
			for i := 0; i < v.Len(); i++ {
				if containsCycle(v.Index(i), onPath) {
					return true
				}
			}
		}

	case reflect.Interface:
		if !v.IsNil() {
			return containsCycle(v.Elem(), onPath)
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if containsCycle(v.Index(i), onPath) {
				return true
			}
		}

	case reflect.Struct:
		structType := v.Type()
		for i := 0; i < structType.NumField(); i++ {
			field := structType.Field(i)
			if !field.IsExported() || field.Tag.Get("json") == "-" {
				continue
			}

			if containsCycle(v.Field(i), onPath) {
				return true
			}
		}

	default:
		// Scalars, funcs and chans hold no references to follow; funcs and
		// chans are rejected by the encoder itself.
	}

	return false
}

// restoreSnapshot decodes a snapshot into dest.
func restoreSnapshot(snapshot json.RawMessage, dest any) error {
	if err := jsoniter.ConfigFastest.Unmarshal(snapshot, dest); err != nil {
		return errors.Join(ErrRestoreSnapshotFailed, err)
	}

	return nil
}
