// Package entities contains core domain data structures.
package entities

import "time"

// StatusValidation is the rule status that routes writes to the rule's
// latest validation copy instead of the rule row itself.
const StatusValidation = "VALIDATION"

// Rule represents a row of the rule table: a persisted record whose
// content encodes a specification with nested facts.
type Rule struct {
	ID      int64
	OrgID   int64
	Content []byte
}

// RuleValidation represents a row of the rule_validation table, the
// versioned holder of rule content used while a rule is under review.
// A zero CreatedAt stands in for SQL NULL and sorts after real timestamps
// under the newest-first ordering.
type RuleValidation struct {
	ID          int64
	RuleID      int64
	RuleContent []byte
	CreatedAt   time.Time
}

// StagedRule is one converted rule inside a staged snapshot, awaiting apply.
// Content holds whatever JSON value the snapshot carries: operators may hand
// edit staged files between fetch and apply, so the shape of each entry is
// validated during apply instead of failing the whole snapshot read.
type StagedRule struct {
	ID      int64 `json:"id"`
	OrgID   int64 `json:"org_id"`
	Content any   `json:"content"`
}
