// Package parsers normalizes raw rule content into structured documents.
package parsers

import (
	"encoding/json"
	"io"
	"strings"
)

// ParseContent turns a raw content value into a structured document. Content
// that is already structured is returned as-is; string-like content gets a
// strict JSON parse, then one lenient repair pass that treats single quotes
// as double quotes. Absent, non-object, or unparseable content reports false.
// ParseContent never panics; callers skip the record when it reports false.
func ParseContent(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case string:
		return parseJSONObject(v)
	case []byte:
		return parseJSONObject(string(v))
	case json.RawMessage:
		return parseJSONObject(string(v))
	default:
		return nil, false
	}
}

// parseJSONObject decodes a JSON object, retrying once with single quotes
// rewritten to double quotes. The repair pass corrupts values containing
// legitimate apostrophes, so it runs only after the strict parse fails.
func parseJSONObject(s string) (map[string]any, bool) {
	if doc, ok := decodeObject(s); ok {
		return doc, true
	}
	return decodeObject(strings.ReplaceAll(s, "'", `"`))
}

// decodeObject decodes one JSON object with numbers kept as json.Number, so
// ids and thresholds above 2^53 survive the round trip back to the database.
func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return doc, true
}
