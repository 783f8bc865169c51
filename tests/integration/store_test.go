package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudmesh/ruleshift/internal/domain/ports"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/relationaldb/postgres"
)

const markerContent = `{"specification": {"facts": [{"name": "amount", "sender_receiver": "both"}]}}`

func newTestRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	repo, err := postgres.NewRepository(context.Background(), testDSN)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestRepository_LoadCandidates(t *testing.T) {
	cleanupTables(t)
	repo := newTestRepository(t)

	custom := insertScenario(t, "custom_scenario")
	other := insertScenario(t, "velocity_scenario")

	wanted1 := insertRule(t, custom, 1, "ACTIVE", false, markerContent)
	wanted2 := insertRule(t, custom, 2, "ACTIVE", false, markerContent)
	insertRule(t, custom, 1, "ACTIVE", true, markerContent)                               // synchronous
	insertRule(t, other, 1, "ACTIVE", false, markerContent)                               // wrong scenario
	insertRule(t, custom, 1, "ACTIVE", false, `{"specification": {"facts": [{"a": 1}]}}`) // no marker

	rules, err := repo.LoadCandidates(context.Background(), ports.CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, wanted1, rules[0].ID, "ordered by ascending id")
	assert.Equal(t, wanted2, rules[1].ID)
	assert.JSONEq(t, markerContent, string(rules[0].Content))

	org := int64(2)
	rules, err = repo.LoadCandidates(context.Background(), ports.CandidateFilter{OrgID: &org})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, wanted2, rules[0].ID)
}

func TestRepository_RuleStatus(t *testing.T) {
	cleanupTables(t)
	repo := newTestRepository(t)

	custom := insertScenario(t, "custom_scenario")
	active := insertRule(t, custom, 1, "ACTIVE", false, `{}`)
	noStatus := insertRule(t, custom, 1, "", false, `{}`)

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(context.Background()) }()

	status, found, err := tx.RuleStatus(context.Background(), active, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ACTIVE", status)

	status, found, err = tx.RuleStatus(context.Background(), noStatus, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, status, "NULL status reads as empty")

	_, found, err = tx.RuleStatus(context.Background(), active, 99)
	require.NoError(t, err)
	assert.False(t, found, "org mismatch means not found")
}

func TestRepository_LatestValidation(t *testing.T) {
	cleanupTables(t)
	repo := newTestRepository(t)

	custom := insertScenario(t, "custom_scenario")
	ruleID := insertRule(t, custom, 1, "VALIDATION", false, `{}`)
	insertValidation(t, ruleID, `{"rev": 1}`, timePtr(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)))
	newest := insertValidation(t, ruleID, `{"rev": 2}`, timePtr(time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)))
	insertValidation(t, ruleID, `{"rev": 3}`, nil)

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(context.Background()) }()

	validation, err := tx.LatestValidation(context.Background(), ruleID)
	require.NoError(t, err)
	require.NotNil(t, validation)
	assert.Equal(t, newest, validation.ID, "rows without a creation time sort last")
	assert.JSONEq(t, `{"rev": 2}`, string(validation.RuleContent))
	assert.False(t, validation.CreatedAt.IsZero())

	// Equal creation times fall back to the higher id.
	tieRule := insertRule(t, custom, 1, "VALIDATION", false, `{}`)
	stamp := timePtr(time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC))
	insertValidation(t, tieRule, `{"tie": "older"}`, stamp)
	tieWinner := insertValidation(t, tieRule, `{"tie": "newer"}`, stamp)

	validation, err = tx.LatestValidation(context.Background(), tieRule)
	require.NoError(t, err)
	require.NotNil(t, validation)
	assert.Equal(t, tieWinner, validation.ID)

	// Only a NULL creation time left still yields the row.
	nullRule := insertRule(t, custom, 1, "VALIDATION", false, `{}`)
	nullOnly := insertValidation(t, nullRule, `{"rev": 9}`, nil)

	validation, err = tx.LatestValidation(context.Background(), nullRule)
	require.NoError(t, err)
	require.NotNil(t, validation)
	assert.Equal(t, nullOnly, validation.ID)
	assert.True(t, validation.CreatedAt.IsZero())

	// No validation rows at all.
	bare := insertRule(t, custom, 1, "VALIDATION", false, `{}`)
	validation, err = tx.LatestValidation(context.Background(), bare)
	require.NoError(t, err)
	assert.Nil(t, validation)
}

func TestRepository_UpdateRowsAffected(t *testing.T) {
	cleanupTables(t)
	repo := newTestRepository(t)

	custom := insertScenario(t, "custom_scenario")
	ruleID := insertRule(t, custom, 1, "ACTIVE", false, `{"v": 1}`)
	validationID := insertValidation(t, ruleID, `{"v": 1}`, nil)

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.UpdateRuleContent(context.Background(), ruleID, 1, []byte(`{"v": 2}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = tx.UpdateRuleContent(context.Background(), ruleID, 99, []byte(`{"v": 3}`))
	require.NoError(t, err)
	assert.Zero(t, rows, "org mismatch updates nothing")

	rows, err = tx.UpdateValidationContent(context.Background(), validationID, []byte(`{"v": 2}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = tx.UpdateValidationContent(context.Background(), validationID+1000, []byte(`{"v": 2}`))
	require.NoError(t, err)
	assert.Zero(t, rows)

	require.NoError(t, tx.Commit(context.Background()))
	assert.JSONEq(t, `{"v": 2}`, ruleContent(t, ruleID))
	assert.JSONEq(t, `{"v": 2}`, validationContent(t, validationID))
}

func TestRepository_RollbackDiscardsWrites(t *testing.T) {
	cleanupTables(t)
	repo := newTestRepository(t)

	custom := insertScenario(t, "custom_scenario")
	ruleID := insertRule(t, custom, 1, "ACTIVE", false, `{"v": 1}`)

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)

	rows, err := tx.UpdateRuleContent(context.Background(), ruleID, 1, []byte(`{"v": 2}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NoError(t, tx.Rollback(context.Background()))

	assert.JSONEq(t, `{"v": 1}`, ruleContent(t, ruleID))
}
