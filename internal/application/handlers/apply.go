package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
	"github.com/fraudmesh/ruleshift/internal/domain/ports"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/backups"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/staging"
)

// timeNow is a variable so it can be mocked in tests.
var timeNow = time.Now

// ApplyHandler writes staged rule contents back to the database, backing up
// every destination row before it is overwritten.
type ApplyHandler struct {
	store     ports.RuleStore
	snapshots *staging.Store
	backups   *backups.Store
	log       *zap.SugaredLogger
}

// NewApplyHandler creates a new apply handler.
func NewApplyHandler(store ports.RuleStore, snapshots *staging.Store, backupStore *backups.Store, log *zap.SugaredLogger) *ApplyHandler {
	return &ApplyHandler{
		store:     store,
		snapshots: snapshots,
		backups:   backupStore,
		log:       log,
	}
}

// ApplyResult contains the result of one apply run.
type ApplyResult struct {
	SnapshotPath string
	BackupDir    string
	ManifestPath string
	Updated      int
	Skipped      int
}

// Handle applies the environment's staged snapshot inside a single
// transaction. Each entry is routed to its destination row, that row's
// current content is backed up, and only then is the staged content written.
// Entries that cannot be resolved or backed up are skipped with a diagnostic;
// an unexpected database error aborts the run and rolls back every write.
func (h *ApplyHandler) Handle(ctx context.Context, env string) (*ApplyResult, error) {
	snap, err := h.snapshots.Read(env)
	if err != nil {
		return nil, err
	}

	startedAt := timeNow().UTC()
	backupDir, err := h.backups.CreateRun(env, startedAt.Format(backups.TimestampLayout))
	if err != nil {
		return nil, err
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	manifest := backups.Manifest{
		RunID:     uuid.New(),
		Env:       env,
		Snapshot:  h.snapshots.Path(env),
		StartedAt: startedAt,
	}

	for _, entry := range snap.Rules {
		// Serial primary keys start at 1, so a zero id or org means the
		// field was absent from the staged entry. Content must be an
		// object: snapshots pass through operator hands between fetch and
		// apply, and a mangled entry must not stop the rest of the batch.
		doc, isObject := entry.Content.(map[string]any)
		if entry.ID == 0 || entry.OrgID == 0 || !isObject {
			h.log.Warnw("staged entry is missing id, org_id, or object content, skipping",
				"rule_id", entry.ID, "org_id", entry.OrgID)
			manifest.Skipped++
			continue
		}

		dest, prior, ok, err := h.resolveDestination(ctx, tx, entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			manifest.Skipped++
			continue
		}

		file, err := backups.WriteEntry(backupDir, dest, prior)
		if err != nil {
			h.log.Warnw("backup failed, skipping write",
				"rule_id", dest.RuleID, "org_id", dest.OrgID, "error", err)
			manifest.Skipped++
			continue
		}

		content, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding content of rule %d: %w", entry.ID, err)
		}

		rows, err := writeDestination(ctx, tx, dest, content)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			h.log.Warnw("update matched no rows, skipping",
				"rule_id", dest.RuleID, "org_id", dest.OrgID)
			manifest.Skipped++
			continue
		}

		manifest.Updated++
		manifest.Entries = append(manifest.Entries, backups.ManifestEntry{
			Kind:         dest.Kind,
			RuleID:       dest.RuleID,
			OrgID:        dest.OrgID,
			ValidationID: dest.ValidationID,
			File:         filepath.Base(file),
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing updates: %w", err)
	}

	// Written after the commit so the manifest only ever describes writes
	// that actually landed.
	manifest.FinishedAt = timeNow().UTC()
	manifestPath, err := backups.WriteManifest(backupDir, manifest)
	if err != nil {
		return nil, err
	}

	return &ApplyResult{
		SnapshotPath: manifest.Snapshot,
		BackupDir:    backupDir,
		ManifestPath: manifestPath,
		Updated:      manifest.Updated,
		Skipped:      manifest.Skipped,
	}, nil
}

// resolveDestination routes one staged entry to the row the write must
// target and returns that row's current content for backup. ok is false when
// the entry was skipped with a diagnostic.
func (h *ApplyHandler) resolveDestination(ctx context.Context, tx ports.RuleTx, entry entities.StagedRule) (dest entities.Destination, prior []byte, ok bool, err error) {
	status, found, err := tx.RuleStatus(ctx, entry.ID, entry.OrgID)
	if err != nil {
		return entities.Destination{}, nil, false, err
	}
	if !found {
		h.log.Warnw("rule not found, skipping", "rule_id", entry.ID, "org_id", entry.OrgID)
		return entities.Destination{}, nil, false, nil
	}

	if status == entities.StatusValidation {
		validation, err := tx.LatestValidation(ctx, entry.ID)
		if err != nil {
			return entities.Destination{}, nil, false, err
		}
		if validation == nil {
			h.log.Warnw("rule is under validation but has no validation row, skipping",
				"rule_id", entry.ID, "org_id", entry.OrgID)
			return entities.Destination{}, nil, false, nil
		}
		return entities.ValidationDestination(entry.ID, entry.OrgID, validation.ID), validation.RuleContent, true, nil
	}

	content, found, err := tx.RuleContent(ctx, entry.ID, entry.OrgID)
	if err != nil {
		return entities.Destination{}, nil, false, err
	}
	if !found {
		h.log.Warnw("rule disappeared before backup, skipping",
			"rule_id", entry.ID, "org_id", entry.OrgID)
		return entities.Destination{}, nil, false, nil
	}
	return entities.RuleDestination(entry.ID, entry.OrgID), content, true, nil
}

// writeDestination performs the destructive write for a resolved destination.
// Apply and restore share it so the routing of both directions cannot drift
// apart.
func writeDestination(ctx context.Context, tx ports.RuleTx, dest entities.Destination, content []byte) (int64, error) {
	if dest.Kind == entities.DestinationValidation {
		rows, err := tx.UpdateValidationContent(ctx, dest.ValidationID, content)
		if err != nil {
			return 0, fmt.Errorf("updating validation %d of rule %d: %w", dest.ValidationID, dest.RuleID, err)
		}
		return rows, nil
	}

	rows, err := tx.UpdateRuleContent(ctx, dest.RuleID, dest.OrgID, content)
	if err != nil {
		return 0, fmt.Errorf("updating rule %d: %w", dest.RuleID, err)
	}
	return rows, nil
}
