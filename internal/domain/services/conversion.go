package services

import (
	"strings"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
)

// ConvertFact rewrites the legacy sender_receiver marker on a single fact
// into normalized perspective entries and retags the fact's type. It reports
// whether the fact was updated. Facts that are not objects, or whose marker
// does not normalize, are left untouched. Recognizing a marker always counts
// as an update, even when the merge adds no new fields, because the
// classification is still retagged.
func ConvertFact(fact any) bool {
	obj, ok := fact.(map[string]any)
	if !ok {
		return false
	}

	marker, ok := entities.NormalizeMarker(obj["sender_receiver"])
	if !ok {
		return false
	}

	additions := make([]entities.Perspective, 0, 2)
	for _, field := range marker.Fields() {
		additions = append(additions, entities.NewFieldPerspective(field))
	}

	// The marker itself stays on the fact; downstream consumers still read it.
	existing, _ := obj["perspectives"].([]any)
	obj["perspectives"] = mergePerspectives(existing, additions)
	obj["type"] = entities.FactTypeMultiPerspective

	return true
}

// mergePerspectives folds new perspective entries into an existing list. An
// entry is kept the first time its trimmed, lowercased field name is seen,
// existing entries first, and every kept entry is emitted in canonical shape
// with its field name verbatim. Existing entries that are not objects or
// lack a usable field name are dropped.
func mergePerspectives(existing []any, additions []entities.Perspective) []any {
	seen := make(map[string]struct{}, len(existing)+len(additions))
	merged := make([]any, 0, len(existing)+len(additions))

	keep := func(field string) {
		key := strings.ToLower(strings.TrimSpace(field))
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, entities.NewFieldPerspective(field).Document())
	}

	for _, raw := range existing {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		field, ok := entry["field"].(string)
		if !ok || field == "" {
			continue
		}
		keep(field)
	}
	for _, p := range additions {
		keep(p.Field)
	}

	return merged
}

// ConvertDocument applies ConvertFact to every entry of the document's
// specification.facts sequence, mutating the document in place. It reports
// whether any fact changed; documents without a facts sequence never do.
func ConvertDocument(doc map[string]any) bool {
	spec, ok := doc["specification"].(map[string]any)
	if !ok {
		return false
	}
	facts, ok := spec["facts"].([]any)
	if !ok {
		return false
	}

	changed := false
	for _, fact := range facts {
		if ConvertFact(fact) {
			changed = true
		}
	}
	return changed
}
