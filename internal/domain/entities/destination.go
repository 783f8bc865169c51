package entities

// DestinationKind tags which table a destructive write targets.
type DestinationKind string

const (
	// DestinationRule targets the rule row itself, addressed by (id, org_id).
	DestinationRule DestinationKind = "rule"
	// DestinationValidation targets a specific rule_validation row.
	DestinationValidation DestinationKind = "validation"
)

// Destination identifies the exact row a write goes to. It is resolved once
// per staged rule, consumed by both the backup step and the write step, and
// reconstructed from backup filenames during restore.
type Destination struct {
	Kind         DestinationKind
	RuleID       int64
	OrgID        int64
	ValidationID int64 // set only when Kind is DestinationValidation
}

// RuleDestination addresses the rule row for (ruleID, orgID).
func RuleDestination(ruleID, orgID int64) Destination {
	return Destination{Kind: DestinationRule, RuleID: ruleID, OrgID: orgID}
}

// ValidationDestination addresses one validation copy of a rule.
func ValidationDestination(ruleID, orgID, validationID int64) Destination {
	return Destination{
		Kind:         DestinationValidation,
		RuleID:       ruleID,
		OrgID:        orgID,
		ValidationID: validationID,
	}
}
