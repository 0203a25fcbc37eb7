package types

import "time"

// BackupInfo describes one snapshot of the state document. All fields
// except Size are recovered from the backup's filename, so listing a
// backup directory never opens the files themselves.
type BackupInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Channel   Channel   `json:"channel"`
	Version   string    `json:"version"`
	Reason    string    `json:"reason"`
	Size      int64     `json:"size"`
}

// Backups is the backup manager surface. Backups are write-once: after
// creation they are only ever listed, copied back over the live
// document, or pruned.
type Backups interface {
	// Create snapshots the live document for the given reason and
	// prunes snapshots beyond the retention limit, oldest first.
	// A missing live document is nothing to back up: (nil, nil).
	Create(reason string) (*BackupInfo, error)

	// List returns all parseable snapshots, newest first. Malformed
	// filenames are skipped, never fatal. Listing modifies nothing.
	List() ([]BackupInfo, error)

	// Restore copies the named backup's bytes over the live document,
	// optionally snapshotting the current live document first so a bad
	// restore is itself recoverable. A missing backup is
	// ErrBackupNotFound.
	Restore(path string, backupFirst bool) error

	// Latest returns the newest snapshot, optionally filtered by
	// channel ("" matches any). No snapshots is (nil, nil).
	Latest(channel Channel) (*BackupInfo, error)
}
