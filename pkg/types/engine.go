package types

// Registry is the catalog of migration units: a directed graph whose
// nodes are schema versions and whose edges are registered migrations.
type Registry interface {
	// Register adds a migration edge. Registration order is irrelevant
	// to path results; an exact duplicate edge is ErrDuplicateMigration.
	Register(m Migration) error

	// ForwardPath returns the shortest ordered list of migrations whose
	// Forward methods carry a document from one version to another.
	// Equal versions yield an empty path; a disconnected pair yields
	// ErrNoPath.
	ForwardPath(from, to string) ([]Migration, error)

	// BackwardPath returns the shortest ordered list of migrations
	// whose Backward methods carry a document from one version back to
	// an older one. The walk matches edges by their ToVersion, because
	// Backward converts a document at ToVersion back to FromVersion.
	BackwardPath(from, to string) ([]Migration, error)

	// Validate checks the registered topology for problems (duplicate
	// edges) and reports them all at once.
	Validate() error
}

// Executor orchestrates migration runs against the live document.
type Executor interface {
	// ExecuteMigration migrates the live document to the target version
	// and channel. It is the engine's only mutating entry point; the
	// on-disk document is replaced atomically after every step has
	// succeeded, or left byte-for-byte untouched.
	ExecuteMigration(targetVersion string, targetChannel Channel, createBackup bool) MigrationResult

	// CheckMigrationSafety dry-runs the transition's safety checks
	// without applying or persisting anything, returning whether the
	// transition is safe and any warnings a user should see first.
	CheckMigrationSafety(targetVersion string, targetChannel Channel) (bool, []string)
}
