package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cofferapp/coffer/pkg/types"
)

func TestFeatureFlagsForward(t *testing.T) {
	m := newFeatureFlags()

	doc, err := m.Forward(types.Document{"accounts": []any{}})
	require.NoError(t, err)

	flags, ok := doc["feature_flags"].(map[string]any)
	require.True(t, ok, "feature_flags missing after forward")
	assert.Equal(t, false, flags["dark_mode"])
	assert.Equal(t, true, flags["auto_categorize"])
	assert.Equal(t, false, flags["insights_preview"])
}

func TestFeatureFlagsForwardKeepsExisting(t *testing.T) {
	m := newFeatureFlags()
	existing := map[string]any{"dark_mode": true}

	doc, err := m.Forward(types.Document{"feature_flags": existing})
	require.NoError(t, err)
	assert.Equal(t, true, doc["feature_flags"].(map[string]any)["dark_mode"])
}

func TestFeatureFlagsBackward(t *testing.T) {
	m := newFeatureFlags()

	doc, err := m.Backward(types.Document{"feature_flags": defaultFeatureFlags(), "accounts": []any{}})
	require.NoError(t, err)
	_, present := doc["feature_flags"]
	assert.False(t, present)
	assert.Contains(t, doc, "accounts")
}

func TestFeatureFlagsCanMigrateBackward(t *testing.T) {
	m := newFeatureFlags()

	tests := []struct {
		name     string
		doc      types.Document
		wantSafe bool
	}{
		{
			name:     "defaults are safe to drop",
			doc:      types.Document{"feature_flags": defaultFeatureFlags()},
			wantSafe: true,
		},
		{
			name:     "absent block is safe",
			doc:      types.Document{},
			wantSafe: true,
		},
		{
			name:     "changed flag blocks the downgrade",
			doc:      types.Document{"feature_flags": map[string]any{"dark_mode": true}},
			wantSafe: false,
		},
		{
			name:     "unknown flag blocks the downgrade",
			doc:      types.Document{"feature_flags": map[string]any{"export_csv": true}},
			wantSafe: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, reason := m.CanMigrateBackward(tt.doc)
			assert.Equal(t, tt.wantSafe, safe)
			if !tt.wantSafe {
				assert.NotEmpty(t, reason, "a refusal must explain itself")
			}
		})
	}
}
