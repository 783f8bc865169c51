package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertFact_SenderReceiverMarker(t *testing.T) {
	fact := map[string]any{"sender_receiver": "both"}

	changed := ConvertFact(fact)

	require.True(t, changed)
	assert.Equal(t, "both", fact["sender_receiver"], "marker stays on the fact")
	assert.Equal(t, "MULTIPLE_PERSPECTIVES_AGGREGATION", fact["type"])
	assert.Equal(t, []any{
		map[string]any{"type": "FIELD", "field": "sender_entity_id", "model": "txn_event", "datatype": "text"},
		map[string]any{"type": "FIELD", "field": "receiver_entity_id", "model": "txn_event", "datatype": "text"},
	}, fact["perspectives"])
}

func TestConvertFact_SenderOnly(t *testing.T) {
	fact := map[string]any{"sender_receiver": "  SENDER "}

	require.True(t, ConvertFact(fact))
	assert.Equal(t, []any{
		map[string]any{"type": "FIELD", "field": "sender_entity_id", "model": "txn_event", "datatype": "text"},
	}, fact["perspectives"])
}

func TestConvertFact_DedupesAgainstExistingEntries(t *testing.T) {
	fact := map[string]any{
		"sender_receiver": "sender",
		"perspectives": []any{
			map[string]any{"field": "Sender_Entity_Id", "model": "legacy", "weight": 3},
		},
	}

	require.True(t, ConvertFact(fact))

	perspectives, ok := fact["perspectives"].([]any)
	require.True(t, ok)
	require.Len(t, perspectives, 1)
	// First-seen entry wins; it is canonicalized but keeps its field casing.
	assert.Equal(t, map[string]any{
		"type":     "FIELD",
		"field":    "Sender_Entity_Id",
		"model":    "txn_event",
		"datatype": "text",
	}, perspectives[0])
}

func TestConvertFact_Idempotent(t *testing.T) {
	fact := map[string]any{
		"sender_receiver": "Both",
		"perspectives":    []any{map[string]any{"field": "amount"}},
	}

	require.True(t, ConvertFact(fact))
	first, ok := fact["perspectives"].([]any)
	require.True(t, ok)
	require.Len(t, first, 3)

	require.True(t, ConvertFact(fact))

	assert.Equal(t, first, fact["perspectives"])
	assert.Equal(t, "MULTIPLE_PERSPECTIVES_AGGREGATION", fact["type"])
}

func TestConvertFact_DropsMalformedEntries(t *testing.T) {
	fact := map[string]any{
		"sender_receiver": "r",
		"perspectives": []any{
			"not an object",
			map[string]any{"model": "txn_event"},
			map[string]any{"field": 7},
			map[string]any{"field": ""},
			map[string]any{"field": "amount"},
		},
	}

	require.True(t, ConvertFact(fact))
	assert.Equal(t, []any{
		map[string]any{"type": "FIELD", "field": "amount", "model": "txn_event", "datatype": "text"},
		map[string]any{"type": "FIELD", "field": "receiver_entity_id", "model": "txn_event", "datatype": "text"},
	}, fact["perspectives"])
}

func TestConvertFact_RetagAloneCountsAsChange(t *testing.T) {
	fact := map[string]any{
		"sender_receiver": "sender",
		"perspectives":    []any{map[string]any{"field": "SENDER_ENTITY_ID"}},
	}

	require.True(t, ConvertFact(fact))

	perspectives, ok := fact["perspectives"].([]any)
	require.True(t, ok)
	assert.Len(t, perspectives, 1)
	assert.Equal(t, "MULTIPLE_PERSPECTIVES_AGGREGATION", fact["type"])
}

func TestConvertFact_ReplacesNonListPerspectives(t *testing.T) {
	fact := map[string]any{
		"sender_receiver": "s",
		"perspectives":    "bogus",
	}

	require.True(t, ConvertFact(fact))
	assert.Equal(t, []any{
		map[string]any{"type": "FIELD", "field": "sender_entity_id", "model": "txn_event", "datatype": "text"},
	}, fact["perspectives"])
}

func TestConvertFact_NoChange(t *testing.T) {
	tests := []struct {
		name string
		fact any
	}{
		{name: "nil fact", fact: nil},
		{name: "fact not an object", fact: "sender"},
		{name: "missing marker", fact: map[string]any{"perspectives": []any{}}},
		{name: "unknown marker", fact: map[string]any{"sender_receiver": "recipient"}},
		{name: "non-string marker", fact: map[string]any{"sender_receiver": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ConvertFact(tt.fact))
		})
	}
}

func TestConvertFact_UnknownMarkerLeavesFactUntouched(t *testing.T) {
	fact := map[string]any{"sender_receiver": "recipient", "perspectives": "keep"}

	assert.False(t, ConvertFact(fact))
	assert.Equal(t, map[string]any{"sender_receiver": "recipient", "perspectives": "keep"}, fact)
}

func TestConvertDocument_RewritesFactsInPlace(t *testing.T) {
	doc := map[string]any{
		"name": "velocity check",
		"specification": map[string]any{
			"facts": []any{
				map[string]any{"sender_receiver": "s"},
				map[string]any{"note": "untouched"},
			},
		},
	}

	require.True(t, ConvertDocument(doc))

	facts := doc["specification"].(map[string]any)["facts"].([]any)
	converted := facts[0].(map[string]any)
	assert.Equal(t, "MULTIPLE_PERSPECTIVES_AGGREGATION", converted["type"])
	assert.Equal(t, map[string]any{"note": "untouched"}, facts[1])
	assert.Equal(t, "velocity check", doc["name"])
}

func TestConvertDocument_NoOpCases(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{name: "nil document", doc: nil},
		{name: "missing specification", doc: map[string]any{"name": "x"}},
		{name: "specification not an object", doc: map[string]any{"specification": "flat"}},
		{name: "facts not a list", doc: map[string]any{"specification": map[string]any{"facts": map[string]any{}}}},
		{
			name: "no fact converts",
			doc: map[string]any{
				"specification": map[string]any{
					"facts": []any{map[string]any{"sender_receiver": "unknown"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ConvertDocument(tt.doc))
		})
	}
}
