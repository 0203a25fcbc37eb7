package types

import "errors"

// Engine errors. The executor converts these into MigrationResult values
// at its boundary; they remain inspectable through the result's Err field
// via errors.Is.
var (
	// ErrNoPath: the registry cannot connect the source and target
	// versions in the requested direction.
	ErrNoPath = errors.New("no migration path found")

	// ErrUnsafeDowngrade: a backward step's safety check refused the
	// document; the wrapped message carries the unit's reason.
	ErrUnsafeDowngrade = errors.New("unsafe backward migration")

	// ErrDuplicateMigration: two registered units declare the same
	// edge; an ambiguous topology is a registration bug.
	ErrDuplicateMigration = errors.New("duplicate migration registered")

	// ErrChannelConstraint: a unit's channel constraint does not match
	// the document it was asked to transform.
	ErrChannelConstraint = errors.New("migration channel constraint not satisfied")

	// ErrBackupNotFound: the requested backup file does not exist.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrStateNotFound: the live state document does not exist.
	ErrStateNotFound = errors.New("state document not found")
)

// Configuration validation errors.
var (
	ErrDocumentPathEmpty = errors.New("document path must not be empty")
	ErrBackupDirEmpty    = errors.New("backup directory must not be empty")
	ErrMaxBackupsInvalid = errors.New("max backups must be positive")
	ErrAppVersionInvalid = errors.New("app version is not a valid schema version")
)
