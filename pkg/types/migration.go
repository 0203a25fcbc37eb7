package types

// Migration is a single, self-contained transformation between exactly
// two schema versions, optionally constrained to a channel on either
// side. Implementations are leaf types: embed Base for the declarative
// half and implement the three behavior methods.
//
// Forward and Backward receive the document in memory and return the
// transformed document; neither touches disk. A Backward implementation
// that would discard data must be guarded by CanMigrateBackward returning
// false with a human-readable reason; the executor aborts the whole run
// on the first refusal rather than destroying data silently.
type Migration interface {
	// FromVersion is the version the document must be at before Forward.
	FromVersion() string

	// ToVersion is the version the document lands on after Forward.
	ToVersion() string

	// FromChannel constrains the document channel required before
	// Forward ("" means any channel).
	FromChannel() Channel

	// ToChannel constrains the channel after Forward ("" means the
	// channel is left alone).
	ToChannel() Channel

	// Description says what the migration does, for logs and reports.
	Description() string

	// Forward upgrades a document at FromVersion to ToVersion.
	Forward(doc Document) (Document, error)

	// Backward downgrades a document at ToVersion back to FromVersion.
	Backward(doc Document) (Document, error)

	// CanMigrateBackward reports whether Backward can run against doc
	// without losing data, and the reason when it cannot.
	CanMigrateBackward(doc Document) (bool, string)
}

// Base carries the declarative attributes of a migration unit. Concrete
// units embed it and supply only behavior.
type Base struct {
	From   string
	To     string
	FromCh Channel
	ToCh   Channel
	Desc   string
}

// FromVersion implements Migration.
func (b Base) FromVersion() string { return b.From }

// ToVersion implements Migration.
func (b Base) ToVersion() string { return b.To }

// FromChannel implements Migration.
func (b Base) FromChannel() Channel { return b.FromCh }

// ToChannel implements Migration.
func (b Base) ToChannel() Channel { return b.ToCh }

// Description implements Migration.
func (b Base) Description() string { return b.Desc }

// MigrationResult is the executor's report for one run. The executor
// never returns a bare error: success or failure, the caller reads this
// value. BackupPath is filled as soon as the pre-migration snapshot
// lands, so it survives any later failure for manual recovery.
type MigrationResult struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	BackupPath  string  `json:"backup_path,omitempty"`
	FromVersion string  `json:"from_version,omitempty"`
	ToVersion   string  `json:"to_version,omitempty"`
	FromChannel Channel `json:"from_channel,omitempty"`
	ToChannel   Channel `json:"to_channel,omitempty"`
	RunID       string  `json:"run_id,omitempty"`

	// Err holds the underlying failure for errors.Is inspection;
	// Message already contains its text.
	Err error `json:"-"`
}
