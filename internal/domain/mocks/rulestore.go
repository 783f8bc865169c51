// Package mocks provides hand-written mock implementations of the domain
// ports for use in tests.
package mocks

import (
	"context"
	"sort"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
	"github.com/fraudmesh/ruleshift/internal/domain/ports"
)

// RuleKey addresses one rule row by id and org.
type RuleKey struct {
	RuleID int64
	OrgID  int64
}

// RuleRow is the mock store's copy of a rule table row.
type RuleRow struct {
	Status  string
	Content []byte
}

// RuleStore is a mock implementation of ports.RuleStore backed by in-memory
// maps. Writes are staged on the transaction and only reach the maps when it
// commits, so tests can assert rollback behavior.
type RuleStore struct {
	Candidates  []entities.Rule
	Rules       map[RuleKey]*RuleRow
	Validations map[int64]*entities.RuleValidation

	LoadErr   error
	BeginErr  error
	StatusErr error
	UpdateErr error
	CommitErr error

	LoadCallCount  int
	BeginCallCount int
	CommitCount    int
	RollbackCount  int
	Closed         bool
}

// NewRuleStore creates an empty mock rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{
		Rules:       make(map[RuleKey]*RuleRow),
		Validations: make(map[int64]*entities.RuleValidation),
	}
}

// SeedRule stores a rule row so transactional lookups and updates can find it.
func (m *RuleStore) SeedRule(ruleID, orgID int64, status string, content []byte) {
	m.Rules[RuleKey{RuleID: ruleID, OrgID: orgID}] = &RuleRow{Status: status, Content: content}
}

// SeedCandidate stores a rule row and registers it as a candidate returned by
// LoadCandidates.
func (m *RuleStore) SeedCandidate(ruleID, orgID int64, status string, content []byte) {
	m.SeedRule(ruleID, orgID, status, content)
	m.Candidates = append(m.Candidates, entities.Rule{ID: ruleID, OrgID: orgID, Content: content})
}

// SeedValidation stores one validation copy of a rule.
func (m *RuleStore) SeedValidation(v entities.RuleValidation) {
	copied := v
	m.Validations[v.ID] = &copied
}

// LoadCandidates returns the seeded candidates, filtered and ordered the way
// the real store queries them.
func (m *RuleStore) LoadCandidates(_ context.Context, filter ports.CandidateFilter) ([]entities.Rule, error) {
	m.LoadCallCount++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}

	out := make([]entities.Rule, 0, len(m.Candidates))
	for _, rule := range m.Candidates {
		if filter.OrgID != nil && rule.OrgID != *filter.OrgID {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Begin opens a staged transaction against the mock store.
func (m *RuleStore) Begin(_ context.Context) (ports.RuleTx, error) {
	m.BeginCallCount++
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return &RuleTx{store: m}, nil
}

// Close marks the store as closed.
func (m *RuleStore) Close() {
	m.Closed = true
}

// RuleTx is a mock transaction that stages writes until Commit.
type RuleTx struct {
	store   *RuleStore
	pending []func()
	done    bool
}

// RuleStatus reports the seeded status of a rule row.
func (t *RuleTx) RuleStatus(_ context.Context, ruleID, orgID int64) (string, bool, error) {
	if t.store.StatusErr != nil {
		return "", false, t.store.StatusErr
	}
	row, ok := t.store.Rules[RuleKey{RuleID: ruleID, OrgID: orgID}]
	if !ok {
		return "", false, nil
	}
	return row.Status, true, nil
}

// RuleContent reports the committed content of a rule row.
func (t *RuleTx) RuleContent(_ context.Context, ruleID, orgID int64) ([]byte, bool, error) {
	row, ok := t.store.Rules[RuleKey{RuleID: ruleID, OrgID: orgID}]
	if !ok {
		return nil, false, nil
	}
	return row.Content, true, nil
}

// LatestValidation picks the seeded validation the real query would return:
// latest creation time first, rows without one last, higher id as tie-break.
func (t *RuleTx) LatestValidation(_ context.Context, ruleID int64) (*entities.RuleValidation, error) {
	var rows []*entities.RuleValidation
	for _, v := range t.store.Validations {
		if v.RuleID == ruleID {
			rows = append(rows, v)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CreatedAt.IsZero() != b.CreatedAt.IsZero() {
			return !a.CreatedAt.IsZero()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	latest := *rows[0]
	return &latest, nil
}

// UpdateRuleContent stages a content overwrite for a rule row.
func (t *RuleTx) UpdateRuleContent(_ context.Context, ruleID, orgID int64, content []byte) (int64, error) {
	if t.store.UpdateErr != nil {
		return 0, t.store.UpdateErr
	}
	row, ok := t.store.Rules[RuleKey{RuleID: ruleID, OrgID: orgID}]
	if !ok {
		return 0, nil
	}

	staged := append([]byte(nil), content...)
	t.pending = append(t.pending, func() { row.Content = staged })
	return 1, nil
}

// UpdateValidationContent stages a content overwrite for a validation row.
func (t *RuleTx) UpdateValidationContent(_ context.Context, validationID int64, content []byte) (int64, error) {
	if t.store.UpdateErr != nil {
		return 0, t.store.UpdateErr
	}
	row, ok := t.store.Validations[validationID]
	if !ok {
		return 0, nil
	}

	staged := append([]byte(nil), content...)
	t.pending = append(t.pending, func() { row.RuleContent = staged })
	return 1, nil
}

// Commit applies the staged writes to the store.
func (t *RuleTx) Commit(_ context.Context) error {
	if t.store.CommitErr != nil {
		return t.store.CommitErr
	}
	for _, apply := range t.pending {
		apply()
	}
	t.pending = nil
	t.done = true
	t.store.CommitCount++
	return nil
}

// Rollback discards the staged writes. Rolling back a committed transaction
// is a no-op, matching the deferred-rollback idiom of the real store.
func (t *RuleTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.pending = nil
	t.done = true
	t.store.RollbackCount++
	return nil
}
