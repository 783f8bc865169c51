package ports

import (
	"context"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
)

// CandidateFilter narrows the candidate rule selection.
type CandidateFilter struct {
	// OrgID restricts candidates to a single org when set.
	OrgID *int64
}

// RuleStore is the database session held by one command invocation. A store
// is opened once at startup and released with Close on every exit path.
type RuleStore interface {
	// LoadCandidates returns the rules whose content still carries the
	// legacy sender_receiver marker, ordered by ascending rule id.
	LoadCandidates(ctx context.Context, filter CandidateFilter) ([]entities.Rule, error)

	// Begin opens the transaction an apply or restore batch runs inside.
	// The batch is all-or-nothing: one commit, or a rollback that discards
	// every write of the run.
	Begin(ctx context.Context) (RuleTx, error)

	// Close releases the underlying connections.
	Close()
}

// RuleTx is a single transactional batch of reads and writes. Update methods
// report the number of rows affected so callers can detect writes that
// matched nothing.
type RuleTx interface {
	// RuleStatus looks up a rule's status by id and org. found is false
	// when no such rule exists.
	RuleStatus(ctx context.Context, ruleID, orgID int64) (status string, found bool, err error)

	// RuleContent fetches a rule's current content for backup.
	RuleContent(ctx context.Context, ruleID, orgID int64) (content []byte, found bool, err error)

	// LatestValidation returns the rule's most recent validation copy,
	// preferring later creation times, with rows missing one sorted last
	// and higher ids breaking ties. It returns nil when the rule has no
	// validation rows.
	LatestValidation(ctx context.Context, ruleID int64) (*entities.RuleValidation, error)

	// UpdateRuleContent overwrites the content of a rule row.
	UpdateRuleContent(ctx context.Context, ruleID, orgID int64, content []byte) (int64, error)

	// UpdateValidationContent overwrites the rule content of a validation row.
	UpdateValidationContent(ctx context.Context, validationID int64, content []byte) (int64, error)

	Commit(ctx context.Context) error

	// Rollback discards the batch. Rolling back after a successful commit
	// is harmless, so callers can defer it unconditionally.
	Rollback(ctx context.Context) error
}
