// Package handlers contains application use case handlers, one per
// subcommand of the migration workflow.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
	"github.com/fraudmesh/ruleshift/internal/domain/ports"
	"github.com/fraudmesh/ruleshift/internal/domain/services"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/parsers"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/staging"
)

// FetchHandler loads candidate rules, converts their legacy markers to
// perspective lists, and stages the changed rules for review.
type FetchHandler struct {
	store     ports.RuleStore
	snapshots *staging.Store
	log       *zap.SugaredLogger
}

// NewFetchHandler creates a new fetch handler.
func NewFetchHandler(store ports.RuleStore, snapshots *staging.Store, log *zap.SugaredLogger) *FetchHandler {
	return &FetchHandler{
		store:     store,
		snapshots: snapshots,
		log:       log,
	}
}

// FetchResult contains the result of one fetch run.
type FetchResult struct {
	Loaded          int
	Converted       int
	SnapshotPath    string // empty when no rule changed
	RemovedSnapshot string // leftover snapshot deleted before loading, empty when none
}

// Handle fetches the environment's candidate rules and stages every rule the
// conversion actually changed. A snapshot left over from an earlier fetch is
// removed first so stale and fresh data cannot mix. Rules whose content
// cannot be parsed are skipped with a diagnostic and never abort the batch.
func (h *FetchHandler) Handle(ctx context.Context, env string, orgID *int64) (*FetchResult, error) {
	removed, err := h.snapshots.Remove(env)
	if err != nil {
		// A leftover snapshot that cannot be deleted is overwritten below
		// anyway, so keep going.
		h.log.Warnw("failed to remove stale snapshot", "env", env, "error", err)
	}

	rules, err := h.store.LoadCandidates(ctx, ports.CandidateFilter{OrgID: orgID})
	if err != nil {
		return nil, fmt.Errorf("loading candidate rules: %w", err)
	}

	staged := make([]entities.StagedRule, 0, len(rules))
	for _, rule := range rules {
		doc, ok := parsers.ParseContent(rule.Content)
		if !ok {
			h.log.Warnw("unable to parse rule content, skipping",
				"rule_id", rule.ID, "org_id", rule.OrgID)
			continue
		}
		if !services.ConvertDocument(doc) {
			continue
		}
		staged = append(staged, entities.StagedRule{ID: rule.ID, OrgID: rule.OrgID, Content: doc})
	}

	result := &FetchResult{
		Loaded:    len(rules),
		Converted: len(staged),
	}
	if removed {
		result.RemovedSnapshot = h.snapshots.Path(env)
	}

	if len(staged) > 0 {
		path, err := h.snapshots.Write(env, staged)
		if err != nil {
			return nil, fmt.Errorf("staging converted rules: %w", err)
		}
		result.SnapshotPath = path
	}

	return result, nil
}
