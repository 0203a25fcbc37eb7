// Package backup snapshots the state document into a timestamped archive
// directory and restores from it. Every attribute of a snapshot lives in
// its filename; the directory doubles as its own catalog.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cofferapp/coffer/internal/statefile"
	"github.com/cofferapp/coffer/pkg/types"
)

// collisionLimit bounds the same-second suffix search.
const collisionLimit = 1000

// Manager implements types.Backups over a flat directory of snapshots.
type Manager struct {
	documentPath string
	backupDir    string
	limit        int
	log          *slog.Logger

	// now is swapped in tests to force same-second collisions.
	now func() time.Time
}

var _ types.Backups = (*Manager)(nil)

// New builds a Manager from the configuration. A nil logger discards.
func New(cfg types.Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		documentPath: cfg.DocumentPath,
		backupDir:    cfg.BackupDir,
		limit:        cfg.BackupLimit(),
		log:          log,
		now:          time.Now,
	}
}

// Create snapshots the live document under the given reason and prunes
// the archive to the retention limit. No live document means nothing to
// snapshot: (nil, nil).
func (m *Manager) Create(reason string) (*types.BackupInfo, error) {
	raw, err := os.ReadFile(m.documentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", m.documentPath, err)
	}

	// The snapshot keeps the live bytes verbatim. Version and channel
	// are only needed for the filename, so a document that no longer
	// parses still gets snapshotted, under the default labels.
	var doc types.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		doc = types.Document{}
	}

	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	reason = sanitizeReason(reason)
	created := m.now()
	name, path, err := m.reserveName(created, doc.SchemaChannel(), doc.SchemaVersion(), reason)
	if err != nil {
		return nil, err
	}

	if err := statefile.WriteAtomic(path, raw); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}

	info := &types.BackupInfo{
		Path:      path,
		Name:      name,
		CreatedAt: created,
		Channel:   doc.SchemaChannel(),
		Version:   doc.SchemaVersion(),
		Reason:    reason,
		Size:      int64(len(raw)),
	}
	m.log.Debug("backup created", "path", path, "reason", reason, "size", info.Size)

	m.prune()
	return info, nil
}

// reserveName finds the first unused filename for the timestamp, adding
// a numeric suffix when snapshots land in the same second.
func (m *Manager) reserveName(ts time.Time, channel types.Channel, version, reason string) (string, string, error) {
	for seq := 0; seq < collisionLimit; seq++ {
		name := buildName(ts, seq, channel, version, reason)
		path := filepath.Join(m.backupDir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return name, path, nil
		}
	}
	return "", "", fmt.Errorf("no free backup name for %s", ts.Format(tsLayout))
}

// List returns all parseable snapshots, newest first. The timestamp field
// is zero-padded, so filename order is chronological order; sorting on
// the name also ranks same-second collision suffixes correctly.
func (m *Manager) List() ([]types.BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var infos []types.BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info.Path = filepath.Join(m.backupDir, entry.Name())
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// Restore copies a snapshot's bytes over the live document. With
// backupFirst set, the current live document is snapshotted under the
// "pre-restore" reason before being replaced.
func (m *Manager) Restore(path string, backupFirst bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrBackupNotFound, path)
		}
		return fmt.Errorf("reading backup %s: %w", path, err)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("backup %s is not valid JSON", path)
	}

	if backupFirst {
		if _, err := m.Create("pre-restore"); err != nil {
			return fmt.Errorf("snapshotting current document: %w", err)
		}
	}

	if err := statefile.WriteAtomic(m.documentPath, raw); err != nil {
		return fmt.Errorf("restoring document: %w", err)
	}
	m.log.Info("backup restored", "from", path, "to", m.documentPath)
	return nil
}

// Latest returns the newest snapshot on the given channel, or the newest
// overall when channel is empty. An empty archive is (nil, nil).
func (m *Manager) Latest(channel types.Channel) (*types.BackupInfo, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if channel == "" || infos[i].Channel == channel {
			return &infos[i], nil
		}
	}
	return nil, nil
}

// prune deletes snapshots beyond the retention limit, oldest first. A
// snapshot that was just written must never fail its Create over a prune
// problem, so errors are logged and swallowed.
func (m *Manager) prune() {
	infos, err := m.List()
	if err != nil {
		m.log.Warn("pruning backups", "error", err)
		return
	}
	if len(infos) <= m.limit {
		return
	}
	for _, old := range infos[m.limit:] {
		if err := os.Remove(old.Path); err != nil {
			m.log.Warn("pruning backup", "path", old.Path, "error", err)
			continue
		}
		m.log.Debug("backup pruned", "path", old.Path)
	}
}
