package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cofferapp/coffer/internal/statefile"
	"github.com/cofferapp/coffer/pkg/types"
)

// featureX is the canonical single-step upgrade: 1.0 to 1.1 adds
// feature_x with its default.
type featureX struct{ types.Base }

func newFeatureX() featureX {
	return featureX{Base: types.Base{From: "1.0", To: "1.1", Desc: "adds feature_x"}}
}

func (featureX) Forward(doc types.Document) (types.Document, error) {
	doc["feature_x"] = false
	return doc, nil
}

func (featureX) Backward(doc types.Document) (types.Document, error) {
	delete(doc, "feature_x")
	return doc, nil
}

func (featureX) CanMigrateBackward(doc types.Document) (bool, string) {
	if v, ok := doc["feature_x"].(bool); ok && v {
		return false, "feature_x was enabled; downgrading would discard that choice"
	}
	return true, ""
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	dir := t.TempDir()
	return types.Config{
		DocumentPath: filepath.Join(dir, "state.json"),
		BackupDir:    filepath.Join(dir, "backups"),
		MaxBackups:   10,
		HistoryPath:  filepath.Join(dir, "history.jsonl"),
		AppVersion:   "1.1",
		AppChannel:   types.ChannelStable,
	}
}

func TestNew_ShippedCatalogAssembles(t *testing.T) {
	eng, err := New(testConfig(t), nil)
	require.NoError(t, err)
	require.NotNil(t, eng.Registry())
	require.NotNil(t, eng.Backups())
	require.NotNil(t, eng.Executor())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(types.Config{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDocumentPathEmpty)
}

func TestNewWithUnits_RejectsDuplicateEdges(t *testing.T) {
	_, err := NewWithUnits(testConfig(t), nil, newFeatureX(), newFeatureX())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDuplicateMigration)
}

func TestCheck_MissingDocument(t *testing.T) {
	eng, err := NewWithUnits(testConfig(t), nil, newFeatureX())
	require.NoError(t, err)

	_, err = eng.Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStateNotFound)
}

// TestUpgradeScenario walks the whole surface: diagnose an old document,
// migrate it forward, and confirm the backup and journal trail.
func TestUpgradeScenario(t *testing.T) {
	cfg := testConfig(t)
	eng, err := NewWithUnits(cfg, nil, newFeatureX())
	require.NoError(t, err)

	doc := types.Document{"schema_version": "1.0", "schema_channel": "stable", "accounts": []any{}}
	require.NoError(t, statefile.Save(cfg.DocumentPath, doc))

	check, err := eng.Check()
	require.NoError(t, err)
	assert.Equal(t, types.CompatNeedsMigration, check.Level)
	assert.True(t, check.CanAutoMigrate)
	assert.True(t, check.RequiresBackup)

	safe, warnings := eng.Safety("1.1", types.ChannelStable)
	assert.True(t, safe, "warnings: %v", warnings)

	result := eng.Execute("1.1", types.ChannelStable, true)
	require.True(t, result.Success, result.Message)
	require.NotEmpty(t, result.BackupPath)

	migrated, err := eng.LoadDocument()
	require.NoError(t, err)
	assert.Equal(t, "1.1", migrated.SchemaVersion())
	assert.Equal(t, false, migrated["feature_x"])

	after := eng.CheckDocument(migrated)
	assert.Equal(t, types.CompatCompatible, after.Level)
	assert.False(t, after.CanAutoMigrate)

	backups, err := eng.Backups().List()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "pre-migration", backups[0].Reason)
	assert.Equal(t, "1.0", backups[0].Version)

	runs, err := eng.History()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 1, runs[0].Steps)
	assert.Equal(t, result.RunID, runs[0].RunID)
}

func TestHistory_NoJournalConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.HistoryPath = ""
	eng, err := NewWithUnits(cfg, nil, newFeatureX())
	require.NoError(t, err)

	runs, err := eng.History()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestErrorsSurfaceAsResults(t *testing.T) {
	cfg := testConfig(t)
	eng, err := NewWithUnits(cfg, nil, newFeatureX())
	require.NoError(t, err)

	doc := types.Document{"schema_version": "1.1", "feature_x": true}
	require.NoError(t, statefile.Save(cfg.DocumentPath, doc))

	result := eng.Execute("1.0", types.ChannelStable, true)
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, types.ErrUnsafeDowngrade))
	assert.Contains(t, result.Message, "feature_x was enabled")
	assert.NotEmpty(t, result.BackupPath, "failed runs keep the backup path for recovery")
}
