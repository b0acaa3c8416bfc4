package instrumented

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EventRecord_Clone_IsIndependent(t *testing.T) {
	original := EventRecord{
		Caller:     "stage",
		Input:      []byte(`{"a":1}`),
		Value:      []byte(`{"a":2}`),
		Fields:     Fields{"key": "value"},
		RecordedAt: time.Now(),
	}

	cloned := original.clone()

	cloned.Input[2] = 'x'
	cloned.Value[2] = 'x'
	cloned.Fields["key"] = "changed"
	cloned.Caller = "other"

	assert.Equal(t, "stage", original.Caller)
	assert.Equal(t, `{"a":1}`, string(original.Input))
	assert.Equal(t, `{"a":2}`, string(original.Value))
	assert.Equal(t, "value", original.Fields["key"])
}

func Test_EventRecord_Clone_PreservesNilMembers(t *testing.T) {
	original := EventRecord{Value: []byte(`1`)}

	cloned := original.clone()

	assert.Nil(t, cloned.Input)
	assert.Nil(t, cloned.Fields)
}

func Test_CloneRecords_CopiesBackingArray(t *testing.T) {
	records := EventRecords{
		{Caller: "first", Value: []byte(`1`)},
		{Caller: "second", Value: []byte(`2`)},
	}

	cloned := cloneRecords(records)
	cloned[0].Caller = "tampered"

	assert.Equal(t, "first", records[0].Caller)
}

func Test_Snapshot_RoundTrip(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	snapshot, err := takeSnapshot(payload{Name: "Ada", Age: 40})
	require.NoError(t, err)

	var restored payload
	require.NoError(t, restoreSnapshot(snapshot, &restored))

	assert.Equal(t, payload{Name: "Ada", Age: 40}, restored)
}

func Test_Snapshot_NonSerializableValues(t *testing.T) {
	type node struct {
		Next *node `json:"next"`
	}

	selfReferential := &node{}
	selfReferential.Next = selfReferential

	indirectCycle := &node{Next: &node{}}
	indirectCycle.Next.Next = indirectCycle

	cyclicMap := map[string]any{}
	cyclicMap["self"] = cyclicMap

	cyclicSlice := make([]any, 1)
	cyclicSlice[0] = cyclicSlice

	tests := []struct {
		name  string
		value any
	}{
		{name: "channel", value: make(chan int)},
		{name: "function", value: func() {}},
		{name: "map with channel value", value: map[string]any{"ch": make(chan int)}},
		{name: "self-referential struct", value: selfReferential},
		{name: "indirect struct cycle", value: indirectCycle},
		{name: "cyclic map", value: cyclicMap},
		{name: "cyclic slice", value: cyclicSlice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := takeSnapshot(tt.value)
			assert.ErrorIs(t, err, ErrSnapshotFailed)
		})
	}
}

func Test_Snapshot_SharedReferencesAreNotCycles(t *testing.T) {
	type leaf struct {
		Label string `json:"label"`
	}

	shared := &leaf{Label: "shared"}
	value := []*leaf{shared, shared}

	snapshot, err := takeSnapshot(value)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"shared"},{"label":"shared"}]`, string(snapshot))
}

func Test_RestoreSnapshot_InvalidJSON(t *testing.T) {
	var dest int
	err := restoreSnapshot([]byte(`{invalid`), &dest)

	assert.ErrorIs(t, err, ErrRestoreSnapshotFailed)
}

func Test_EventRecord_SnapshotComparisons(t *testing.T) {
	record := EventRecord{
		Input: []byte(`5`),
		Value: []byte(`10`),
	}

	assert.True(t, record.InputEquals(5))
	assert.True(t, record.ValueEquals(10))
	assert.False(t, record.ValueEquals(11))
	assert.False(t, record.InputEquals(make(chan int)))
}
