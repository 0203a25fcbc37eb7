package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cofferapp/coffer/pkg/types"
)

func newTestManager(t *testing.T, maxBackups int) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := types.Config{
		DocumentPath: filepath.Join(dir, "state.json"),
		BackupDir:    filepath.Join(dir, "backups"),
		MaxBackups:   maxBackups,
	}
	return New(cfg, nil)
}

func writeDocument(t *testing.T, m *Manager, body string) {
	t.Helper()
	if err := os.WriteFile(m.documentPath, []byte(body), 0o644); err != nil {
		t.Fatalf("writing document fixture: %v", err)
	}
}

func TestManager_CreateNoDocument(t *testing.T) {
	m := newTestManager(t, 5)

	info, err := m.Create("manual")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info for missing document, got %+v", info)
	}
}

func TestManager_CreateSnapshotsLiveBytes(t *testing.T) {
	m := newTestManager(t, 5)
	body := `{"schema_version":"1.2.0","schema_channel":"beta","accounts":[]}`
	writeDocument(t, m, body)

	info, err := m.Create("pre-migration")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected backup info, got nil")
	}
	if info.Version != "1.2.0" {
		t.Errorf("version = %q, want 1.2.0", info.Version)
	}
	if info.Channel != types.ChannelBeta {
		t.Errorf("channel = %q, want beta", info.Channel)
	}
	if info.Reason != "pre-migration" {
		t.Errorf("reason = %q, want pre-migration", info.Reason)
	}

	raw, err := os.ReadFile(info.Path)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(raw) != body {
		t.Errorf("backup bytes differ from live document")
	}
}

func TestManager_CreateSameSecondCollision(t *testing.T) {
	m := newTestManager(t, 10)
	writeDocument(t, m, `{"schema_version":"1.1"}`)

	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	m.now = func() time.Time { return fixed }

	first, err := m.Create("manual")
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	second, err := m.Create("manual")
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if first.Name == second.Name {
		t.Fatalf("same-second backups share a name: %s", first.Name)
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(infos))
	}
	// The suffixed (later) snapshot sorts first.
	if infos[0].Name != second.Name {
		t.Errorf("newest-first order wrong: got %s first, want %s", infos[0].Name, second.Name)
	}
}

func TestManager_ListSkipsMalformedAndSortsNewestFirst(t *testing.T) {
	m := newTestManager(t, 10)
	writeDocument(t, m, `{"schema_version":"1.0"}`)

	times := []time.Time{
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local),
	}
	for _, ts := range times {
		m.now = func() time.Time { return ts }
		if _, err := m.Create("manual"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// Foreign files in the backup directory are ignored.
	if err := os.WriteFile(filepath.Join(m.backupDir, "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing foreign file: %v", err)
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].CreatedAt.Before(infos[i].CreatedAt) {
			t.Errorf("listing not newest-first at %d: %v before %v", i, infos[i-1].CreatedAt, infos[i].CreatedAt)
		}
	}
}

func TestManager_ListEmptyDirectory(t *testing.T) {
	m := newTestManager(t, 10)
	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no backups, got %d", len(infos))
	}
}

func TestManager_PruneKeepsNewest(t *testing.T) {
	m := newTestManager(t, 3)
	writeDocument(t, m, `{"schema_version":"1.0"}`)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		m.now = func() time.Time { return ts }
		if _, err := m.Create("manual"); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 backups after prune, got %d", len(infos))
	}
	// The two oldest snapshots are gone.
	oldest := infos[len(infos)-1]
	if oldest.CreatedAt.Before(base.Add(2 * time.Minute)) {
		t.Errorf("oldest surviving backup is %v, pruning kept too much", oldest.CreatedAt)
	}
}

func TestManager_RestoreMissing(t *testing.T) {
	m := newTestManager(t, 5)
	err := m.Restore(filepath.Join(m.backupDir, "state.20260314_090000.stable.1.0.manual.json"), false)
	if !errors.Is(err, types.ErrBackupNotFound) {
		t.Fatalf("expected ErrBackupNotFound, got %v", err)
	}
}

func TestManager_RestoreRoundTrip(t *testing.T) {
	m := newTestManager(t, 5)
	original := `{"schema_version":"1.1","note":"original"}`
	writeDocument(t, m, original)

	info, err := m.Create("manual")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	writeDocument(t, m, `{"schema_version":"1.2","note":"changed"}`)

	if err := m.Restore(info.Path, false); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	raw, err := os.ReadFile(m.documentPath)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	if string(raw) != original {
		t.Errorf("restored document differs from backup")
	}
}

func TestManager_RestoreBackupFirst(t *testing.T) {
	m := newTestManager(t, 5)
	writeDocument(t, m, `{"schema_version":"1.1"}`)

	info, err := m.Create("manual")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Restore a minute later so the pre-restore snapshot gets its own name.
	m.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local) }
	if err := m.Restore(info.Path, true); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	found := false
	for _, b := range infos {
		if b.Reason == "pre-restore" {
			found = true
		}
	}
	if !found {
		t.Error("expected a pre-restore snapshot in the archive")
	}
}

func TestManager_Latest(t *testing.T) {
	m := newTestManager(t, 10)

	// Empty archive.
	info, err := m.Latest("")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil for empty archive, got %+v", info)
	}

	writeDocument(t, m, `{"schema_version":"1.0","schema_channel":"stable"}`)
	m.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local) }
	if _, err := m.Create("manual"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	writeDocument(t, m, `{"schema_version":"1.3","schema_channel":"beta"}`)
	m.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local) }
	if _, err := m.Create("manual"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newest, err := m.Latest("")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if newest == nil || newest.Channel != types.ChannelBeta {
		t.Fatalf("expected newest beta backup, got %+v", newest)
	}

	stable, err := m.Latest(types.ChannelStable)
	if err != nil {
		t.Fatalf("Latest(stable) failed: %v", err)
	}
	if stable == nil || stable.Version != "1.0" {
		t.Fatalf("expected stable 1.0 backup, got %+v", stable)
	}

	nightly, err := m.Latest(types.Channel("nightly"))
	if err != nil {
		t.Fatalf("Latest(nightly) failed: %v", err)
	}
	if nightly != nil {
		t.Fatalf("expected nil for unseen channel, got %+v", nightly)
	}
}
