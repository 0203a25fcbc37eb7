// Package history keeps an append-only journal of migration runs, one
// JSON object per line. The journal is advisory: it exists so a human can
// reconstruct what the engine did and when, and a write failure must
// never fail the run it describes.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cofferapp/coffer/pkg/types"
)

// NewRunID mints a time-ordered identifier for a migration run.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Journal appends to and reads one JSONL file. It holds no state between
// calls beyond the path.
type Journal struct {
	path string
}

// New returns a journal over the given path. The file is created on
// first append.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Append writes one record to the end of the journal and syncs it.
func (j *Journal) Append(rec types.HistoryRecord) error {
	if rec.RunID == "" {
		rec.RunID = NewRunID()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding journal record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending journal record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing journal: %w", err)
	}
	return nil
}

// List returns all parseable records, newest first. Malformed lines are
// skipped; a missing journal is an empty history.
func (j *Journal) List() ([]types.HistoryRecord, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var records []types.HistoryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.HistoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning journal: %w", err)
	}

	for i, k := 0, len(records)-1; i < k; i, k = i+1, k-1 {
		records[i], records[k] = records[k], records[i]
	}
	return records, nil
}
