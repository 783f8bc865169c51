package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fraudmesh/ruleshift/internal/domain/ports"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/backups"
)

// ErrTimestampRequired reports a restore invoked without naming a backup run.
var ErrTimestampRequired = errors.New("--backup-timestamp is required")

// RestoreHandler replays a backup run against the database, reversing the
// apply run that produced it.
type RestoreHandler struct {
	store   ports.RuleStore
	backups *backups.Store
	log     *zap.SugaredLogger
}

// NewRestoreHandler creates a new restore handler.
func NewRestoreHandler(store ports.RuleStore, backupStore *backups.Store, log *zap.SugaredLogger) *RestoreHandler {
	return &RestoreHandler{
		store:   store,
		backups: backupStore,
		log:     log,
	}
}

// RestoreResult contains the result of one restore run.
type RestoreResult struct {
	Dir      string
	Restored int
	Skipped  int
}

// Handle writes every backup entry of the named run back to its destination
// row inside a single transaction. Files whose names were not written by an
// apply run are ignored; entries that cannot be read or that match no row
// are skipped with a diagnostic.
func (h *RestoreHandler) Handle(ctx context.Context, env, timestamp string) (*RestoreResult, error) {
	if timestamp == "" {
		return nil, ErrTimestampRequired
	}

	names, err := h.backups.ListEntries(env, timestamp)
	if err != nil {
		return nil, err
	}
	dir := h.backups.RunDir(env, timestamp)

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &RestoreResult{Dir: dir}
	for _, name := range names {
		dest, ok := backups.ParseFilename(name)
		if !ok {
			continue
		}

		content, err := backups.ReadEntry(filepath.Join(dir, name))
		if err != nil {
			h.log.Warnw("unreadable backup entry, skipping", "file", name, "error", err)
			result.Skipped++
			continue
		}

		rows, err := writeDestination(ctx, tx, dest, content)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			h.log.Warnw("restore matched no rows, skipping",
				"file", name, "rule_id", dest.RuleID, "org_id", dest.OrgID)
			result.Skipped++
			continue
		}
		result.Restored++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing restores: %w", err)
	}

	return result, nil
}
