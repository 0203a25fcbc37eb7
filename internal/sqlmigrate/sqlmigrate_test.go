package sqlmigrate

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "companion.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_FreshDatabase(t *testing.T) {
	store := openTestStore(t)

	v, err := store.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != 0 {
		t.Errorf("fresh database version = %d, want 0", v)
	}

	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if pending != len(migrations) {
		t.Errorf("pending = %d, want %d", pending, len(migrations))
	}
}

func TestStore_ApplyAll(t *testing.T) {
	store := openTestStore(t)

	applied, err := store.Apply()
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("applied = %d, want %d", applied, len(migrations))
	}

	v, err := store.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("version = %d, want %d", v, len(migrations))
	}

	// The migrated schema must actually hold data.
	_, err = store.db.Exec(
		`INSERT INTO accounts (account_id, name, kind, created_at, updated_at)
		 VALUES ('a1', 'Checking', 'checking', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
	)
	if err != nil {
		t.Fatalf("inserting into migrated schema: %v", err)
	}
	_, err = store.db.Exec(
		`INSERT INTO transactions (transaction_id, account_id, posted_at, amount_cents, created_at)
		 VALUES ('t1', 'a1', '2026-01-02', -1250, '2026-01-02T00:00:00Z')`,
	)
	if err != nil {
		t.Fatalf("inserting transaction: %v", err)
	}
}

func TestStore_ApplyIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Apply(); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	applied, err := store.Apply()
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("second Apply ran %d migrations, want 0", applied)
	}

	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if pending != 0 {
		t.Errorf("pending after full apply = %d, want 0", pending)
	}
}

func TestStore_LedgerRecordsNames(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Apply(); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rows, err := store.db.Query(`SELECT version, name FROM schema_migrations ORDER BY version`)
	if err != nil {
		t.Fatalf("querying ledger: %v", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var version int
		var name string
		if err := rows.Scan(&version, &name); err != nil {
			t.Fatalf("scanning ledger row: %v", err)
		}
		if version != migrations[i].version || name != migrations[i].name {
			t.Errorf("ledger row %d = (%d, %q), want (%d, %q)",
				i, version, name, migrations[i].version, migrations[i].name)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("ledger rows: %v", err)
	}
	if i != len(migrations) {
		t.Errorf("ledger has %d rows, want %d", i, len(migrations))
	}
}

func TestCheckSequence(t *testing.T) {
	if err := checkSequence(); err != nil {
		t.Fatalf("shipped migration list must be sequential: %v", err)
	}
}
