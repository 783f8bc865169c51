package backups

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
)

// ManifestFilename is written into the run directory after a successful
// apply. It matches neither backup filename pattern, so restores skip it.
const ManifestFilename = "run_manifest.json"

// Manifest records what one apply run touched.
type Manifest struct {
	RunID      uuid.UUID       `json:"run_id"`
	Env        string          `json:"env"`
	Snapshot   string          `json:"snapshot"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Entries    []ManifestEntry `json:"entries"`
}

// ManifestEntry records one touched destination and its backup file.
type ManifestEntry struct {
	Kind         entities.DestinationKind `json:"kind"`
	RuleID       int64                    `json:"rule_id"`
	OrgID        int64                    `json:"org_id"`
	ValidationID int64                    `json:"validation_id,omitempty"`
	File         string                   `json:"file"`
}

// WriteManifest stores the manifest alongside the run's backup files.
func WriteManifest(dir string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}

	return path, nil
}
