// Package sqlmigrate migrates the companion's relational database: the
// SQLite store holding accounts, transactions, categories and budgets.
// Migrations here are conventional and forward-only, each applied in its
// own transaction and recorded in a schema_migrations ledger table.
//
// This package and the state document engine deliberately know nothing
// about each other. The engine evolves one JSON document; sqlmigrate
// evolves the database next to it; only the CLI drives both.
package sqlmigrate

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ledgerDDL creates the table recording which migrations have run.
const ledgerDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL
);`

// Store is an open handle on the companion database.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens (creating if needed) the companion database at path and
// ensures the migration ledger exists. No schema migrations run until
// Apply is called.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(ledgerDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migration ledger: %w", err)
	}

	return &Store{db: db, path: path, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Version returns the newest applied migration version, 0 for a fresh
// database.
func (s *Store) Version() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Pending returns how many migrations Apply would run.
func (s *Store) Pending() (int, error) {
	current, err := s.Version()
	if err != nil {
		return 0, err
	}
	pending := 0
	for _, m := range migrations {
		if m.version > current {
			pending++
		}
	}
	return pending, nil
}

// Apply runs every migration newer than the current version, each in its
// own transaction with its ledger row, and returns how many ran. A
// migration that fails rolls back and stops the whole run; already-applied
// steps stay applied. Apply is idempotent: a second call is a no-op.
func (s *Store) Apply() (int, error) {
	if err := checkSequence(); err != nil {
		return 0, err
	}

	current, err := s.Version()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyOne(m); err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		s.log.Info("applied database migration", "version", m.version, "name", m.name)
		applied++
	}
	return applied, nil
}

// applyOne runs a single migration and its ledger insert atomically.
func (s *Store) applyOne(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if _, err := tx.Exec(m.sql); err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("recording in ledger: %w", err)
	}

	return tx.Commit()
}

// checkSequence verifies the migration list is sequential from 1. A gap
// or regression is a programming error caught before any SQL runs.
func checkSequence() error {
	for i, m := range migrations {
		if m.version != i+1 {
			return fmt.Errorf("migration list broken at index %d: version %d, want %d", i, m.version, i+1)
		}
	}
	return nil
}
