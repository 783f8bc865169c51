// Package backups stores pre-write copies of rule content so that an apply
// run can be reversed file by file.
package backups

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/fraudmesh/ruleshift/internal/domain/entities"
)

// TimestampLayout names backup run directories. It is sortable and a new
// stamp is generated once per run.
const TimestampLayout = "20060102T150405Z"

// ErrRunNotFound reports that a named backup run directory does not exist.
var ErrRunNotFound = errors.New("backup directory not found")

var (
	reValidationBackup = regexp.MustCompile(`^rule_(\d+)_org_(\d+)_validation_(\d+)_original\.json$`)
	reRuleBackup       = regexp.MustCompile(`^rule_(\d+)_org_(\d+)_original\.json$`)
)

// Store manages backup run directories under a fixed root, laid out as
// {root}/{env}/{timestamp}/.
type Store struct {
	root string
}

// NewStore creates a backup store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// RunDir returns the directory path for one backup run.
func (s *Store) RunDir(env, timestamp string) string {
	return filepath.Join(s.root, env, timestamp)
}

// CreateRun creates the run directory if needed and returns its path.
func (s *Store) CreateRun(env, timestamp string) (string, error) {
	dir := s.RunDir(env, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	return dir, nil
}

// ListRuns returns the run timestamps recorded for an environment, sorted
// ascending. An environment with no backups yields an empty list.
func (s *Store) ListRuns(env string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, env))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing backup runs: %w", err)
	}

	runs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// ListEntries returns the file names inside one run directory in
// lexicographic order. It reports ErrRunNotFound for a run that was never
// recorded.
func (s *Store) ListEntries(env, timestamp string) ([]string, error) {
	dir := s.RunDir(env, timestamp)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("listing backup entries: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Filename encodes everything needed to reverse a write to dest.
func Filename(dest entities.Destination) string {
	if dest.Kind == entities.DestinationValidation {
		return fmt.Sprintf("rule_%d_org_%d_validation_%d_original.json",
			dest.RuleID, dest.OrgID, dest.ValidationID)
	}
	return fmt.Sprintf("rule_%d_org_%d_original.json", dest.RuleID, dest.OrgID)
}

// ParseFilename reconstructs the destination a backup file belongs to.
// Names written by anything else report false and are not restore candidates.
func ParseFilename(name string) (entities.Destination, bool) {
	if m := reValidationBackup.FindStringSubmatch(name); m != nil {
		ruleID, err1 := strconv.ParseInt(m[1], 10, 64)
		orgID, err2 := strconv.ParseInt(m[2], 10, 64)
		validationID, err3 := strconv.ParseInt(m[3], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return entities.Destination{}, false
		}
		return entities.ValidationDestination(ruleID, orgID, validationID), true
	}

	if m := reRuleBackup.FindStringSubmatch(name); m != nil {
		ruleID, err1 := strconv.ParseInt(m[1], 10, 64)
		orgID, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			return entities.Destination{}, false
		}
		return entities.RuleDestination(ruleID, orgID), true
	}

	return entities.Destination{}, false
}

// WriteEntry writes one backup file into dir for dest and flushes it to disk
// before returning, so the copy survives even if the process dies before the
// destructive write lands. Valid JSON is preserved byte-exact, only
// reindented; decoding it into parsed values would degrade integers above
// 2^53 through float64. Prior content that is not valid JSON is preserved
// under a {"raw": ...} wrapper.
func WriteEntry(dir string, dest entities.Destination, prior []byte) (string, error) {
	var data []byte
	if json.Valid(prior) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, prior, "", "  "); err != nil {
			return "", fmt.Errorf("encoding backup entry: %w", err)
		}
		data = buf.Bytes()
	} else {
		wrapped, err := json.MarshalIndent(map[string]any{"raw": string(prior)}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding backup entry: %w", err)
		}
		data = wrapped
	}

	path := filepath.Join(dir, Filename(dest))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing backup file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("flushing backup file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing backup file: %w", err)
	}

	return path, nil
}

// ReadEntry loads a backup file and returns its content re-encoded as
// compact JSON, ready to be written back to the destination. The bytes are
// only compacted, never decoded, so restores put back exactly what the
// backup captured.
func ReadEntry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup %s: %w", filepath.Base(path), err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("parsing backup %s: invalid JSON", filepath.Base(path))
	}

	var out bytes.Buffer
	if err := json.Compact(&out, data); err != nil {
		return nil, fmt.Errorf("encoding backup %s: %w", filepath.Base(path), err)
	}
	return out.Bytes(), nil
}
