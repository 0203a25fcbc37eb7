package types

import "time"

// HistoryRecord is one entry in the migration run journal: what the
// engine did, when, and where the pre-migration backup went. Records are
// advisory provenance for a human reading the journal, not state the
// engine ever reads back.
type HistoryRecord struct {
	RunID       string    `json:"run_id"`
	Time        time.Time `json:"time"`
	FromVersion string    `json:"from_version,omitempty"`
	ToVersion   string    `json:"to_version,omitempty"`
	FromChannel string    `json:"from_channel,omitempty"`
	ToChannel   string    `json:"to_channel,omitempty"`
	Steps       int       `json:"steps,omitempty"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	BackupPath  string    `json:"backup_path,omitempty"`
}
