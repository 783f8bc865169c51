package entities

import "strings"

// Marker is the canonical form of a legacy sender_receiver value.
type Marker string

const (
	MarkerSender         Marker = "sender"
	MarkerReceiver       Marker = "receiver"
	MarkerSenderReceiver Marker = "sender_receiver"
)

// FactTypeMultiPerspective is assigned to the type field of every
// converted fact.
const FactTypeMultiPerspective = "MULTIPLE_PERSPECTIVES_AGGREGATION"

// Entity-identifying field names a marker expands to.
const (
	FieldSenderEntityID   = "sender_entity_id"
	FieldReceiverEntityID = "receiver_entity_id"
)

// Canonical perspective attributes.
const (
	PerspectiveTypeField = "FIELD"
	PerspectiveModel     = "txn_event"
	PerspectiveDatatype  = "text"
)

// NormalizeMarker maps a raw marker value to its canonical token. Matching
// is case-insensitive and ignores surrounding whitespace; common spelling
// variants and the single-letter shorthands are accepted. Non-string values
// and unknown spellings report false.
func NormalizeMarker(value any) (Marker, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sender", "s":
		return MarkerSender, true
	case "receiver", "r":
		return MarkerReceiver, true
	case "sender_receiver", "senderreceiver", "both", "sender_and_receiver":
		return MarkerSenderReceiver, true
	default:
		return "", false
	}
}

// Fields returns the entity-identifying field names the marker expands to,
// sender first.
func (m Marker) Fields() []string {
	switch m {
	case MarkerSender:
		return []string{FieldSenderEntityID}
	case MarkerReceiver:
		return []string{FieldReceiverEntityID}
	case MarkerSenderReceiver:
		return []string{FieldSenderEntityID, FieldReceiverEntityID}
	default:
		return nil
	}
}

// Perspective is the normalized reference to an entity-identifying field
// that supersedes the legacy marker on a fact.
type Perspective struct {
	Type     string `json:"type"`
	Field    string `json:"field"`
	Model    string `json:"model"`
	Datatype string `json:"datatype"`
}

// NewFieldPerspective builds the canonical perspective object for a field.
// The field name is kept verbatim; only the surrounding shape is fixed.
func NewFieldPerspective(field string) Perspective {
	return Perspective{
		Type:     PerspectiveTypeField,
		Field:    field,
		Model:    PerspectiveModel,
		Datatype: PerspectiveDatatype,
	}
}

// Document returns the perspective as a plain JSON-shaped object suitable
// for embedding in a parsed content document.
func (p Perspective) Document() map[string]any {
	return map[string]any{
		"type":     p.Type,
		"field":    p.Field,
		"model":    p.Model,
		"datatype": p.Datatype,
	}
}
