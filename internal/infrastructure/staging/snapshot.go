// Package staging persists converted rules to per-environment snapshot files.
package staging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
)

// ErrSnapshotNotFound reports that no snapshot exists for an environment.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the staged output of one fetch run, awaiting operator review.
type Snapshot struct {
	Env       string                `json:"env"`
	UpdatedAt time.Time             `json:"updated_at"`
	Rules     []entities.StagedRule `json:"rules"`
}

// Store reads and writes snapshot files under a fixed output directory,
// one file per environment.
type Store struct {
	dir string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the snapshot path for the environment.
func (s *Store) Path(env string) string {
	return filepath.Join(s.dir, env+".json")
}

// Write stages the given rules for the environment, replacing any previous
// snapshot in full. Duplicate ids collapse to the last entry seen, and the
// result is sorted by ascending id before emission.
func (s *Store) Write(env string, rules []entities.StagedRule) (string, error) {
	byID := make(map[int64]entities.StagedRule, len(rules))
	for _, rule := range rules {
		byID[rule.ID] = rule
	}

	deduped := make([]entities.StagedRule, 0, len(byID))
	for _, rule := range byID {
		deduped = append(deduped, rule)
	}
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].ID < deduped[j].ID })

	snap := Snapshot{
		Env:       env,
		UpdatedAt: time.Now().UTC(),
		Rules:     deduped,
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.Path(env)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	return path, nil
}

// Read loads the environment's snapshot. It returns ErrSnapshotNotFound when
// nothing has been staged for the environment.
func (s *Store) Read(env string) (*Snapshot, error) {
	path := s.Path(env)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	// Numbers stay json.Number so large integer values are re-encoded
	// exactly as staged.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	return &snap, nil
}

// Remove deletes a previously staged snapshot so a fresh fetch cannot mix
// stale and fresh data. It reports whether a file was removed.
func (s *Store) Remove(env string) (bool, error) {
	err := os.Remove(s.Path(env))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing snapshot: %w", err)
	}
	return true, nil
}
