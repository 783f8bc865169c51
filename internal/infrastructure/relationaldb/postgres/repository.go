// Package postgres implements the rule store port on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
	"github.com/fraudmesh/ruleshift/internal/domain/ports"
)

const (
	// markerPattern matches rule content that still carries the legacy
	// sender_receiver field anywhere in its JSON text.
	markerPattern = `%"sender_receiver"%`

	// scenarioName limits the migration to custom scenario rules.
	scenarioName = "custom_scenario"
)

// Repository provides access to the rule tables of one environment.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to the database behind dsn and verifies the
// connection, so configuration mistakes surface before any work starts.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// LoadCandidates selects the asynchronous custom scenario rules whose content
// still contains the legacy marker, ordered by ascending id.
func (r *Repository) LoadCandidates(ctx context.Context, filter ports.CandidateFilter) ([]entities.Rule, error) {
	query := `
		SELECT rule.id, rule.org_id, rule.content
		FROM rule
		JOIN scenario ON scenario.id = rule.scenario_id
		WHERE rule.content::text ILIKE $1
		  AND rule.is_synchronous = $2
		  AND scenario.name = $3`
	args := []any{markerPattern, false, scenarioName}

	if filter.OrgID != nil {
		query += " AND rule.org_id = $4"
		args = append(args, *filter.OrgID)
	}
	query += " ORDER BY rule.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidate rules: %w", err)
	}
	defer rows.Close()

	var rules []entities.Rule
	for rows.Next() {
		var rule entities.Rule
		if err := rows.Scan(&rule.ID, &rule.OrgID, &rule.Content); err != nil {
			return nil, fmt.Errorf("scanning candidate rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candidate rules: %w", err)
	}
	return rules, nil
}

// Begin opens the transaction an apply or restore batch runs inside.
func (r *Repository) Begin(ctx context.Context) (ports.RuleTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements ports.RuleTx on a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// RuleStatus looks up a rule's status by id and org.
func (t *Tx) RuleStatus(ctx context.Context, ruleID, orgID int64) (string, bool, error) {
	var status *string
	err := t.tx.QueryRow(ctx,
		`SELECT status FROM rule WHERE id = $1 AND org_id = $2`,
		ruleID, orgID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying rule status: %w", err)
	}
	if status == nil {
		return "", true, nil
	}
	return *status, true, nil
}

// RuleContent fetches a rule's current content.
func (t *Tx) RuleContent(ctx context.Context, ruleID, orgID int64) ([]byte, bool, error) {
	var content []byte
	err := t.tx.QueryRow(ctx,
		`SELECT content FROM rule WHERE id = $1 AND org_id = $2`,
		ruleID, orgID,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying rule content: %w", err)
	}
	return content, true, nil
}

// LatestValidation returns the rule's most recent validation copy, or nil
// when the rule has none.
func (t *Tx) LatestValidation(ctx context.Context, ruleID int64) (*entities.RuleValidation, error) {
	var (
		validation entities.RuleValidation
		createdAt  *time.Time
	)
	err := t.tx.QueryRow(ctx, `
		SELECT id, rule_id, rule_content, created_at
		FROM rule_validation
		WHERE rule_id = $1
		ORDER BY created_at DESC NULLS LAST, id DESC
		LIMIT 1`,
		ruleID,
	).Scan(&validation.ID, &validation.RuleID, &validation.RuleContent, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest validation: %w", err)
	}
	if createdAt != nil {
		validation.CreatedAt = *createdAt
	}
	return &validation, nil
}

// UpdateRuleContent overwrites the content of a rule row.
func (t *Tx) UpdateRuleContent(ctx context.Context, ruleID, orgID int64, content []byte) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE rule SET content = $1 WHERE id = $2 AND org_id = $3`,
		content, ruleID, orgID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating rule content: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateValidationContent overwrites the rule content of a validation row.
func (t *Tx) UpdateValidationContent(ctx context.Context, validationID int64, content []byte) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE rule_validation SET rule_content = $1 WHERE id = $2`,
		content, validationID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating validation content: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Commit finishes the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback abandons the transaction. pgx reports rollback of a finished
// transaction as pgx.ErrTxClosed, which deferred callers ignore.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
