package types

import (
	"encoding/json"
	"fmt"
)

// CompatLevel classifies the relationship between the running
// application's (version, channel) and a document's declared pair.
type CompatLevel int

const (
	// CompatUnknown is the zero value; the checker never returns it.
	CompatUnknown CompatLevel = iota

	// CompatCompatible: the document can be used as-is.
	CompatCompatible

	// CompatNeedsMigration: the document must be migrated before use.
	CompatNeedsMigration

	// CompatIncompatible: the document comes from a newer, unknown
	// schema and must not be guessed at.
	CompatIncompatible

	// CompatChannelMismatch: versions line up but the release channels
	// differ; switching may change visible behavior.
	CompatChannelMismatch
)

// compatLevelNames maps levels to their wire names.
var compatLevelNames = map[CompatLevel]string{
	CompatCompatible:      "compatible",
	CompatNeedsMigration:  "needs_migration",
	CompatIncompatible:    "incompatible",
	CompatChannelMismatch: "channel_mismatch",
}

// String returns the wire name of the level, or "unknown".
func (l CompatLevel) String() string {
	if name, ok := compatLevelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseCompatLevel parses a wire name back into a level.
func ParseCompatLevel(s string) (CompatLevel, error) {
	for level, name := range compatLevelNames {
		if name == s {
			return level, nil
		}
	}
	return CompatUnknown, fmt.Errorf("unknown compatibility level %q", s)
}

// MarshalJSON encodes the level as its wire name.
func (l CompatLevel) MarshalJSON() ([]byte, error) {
	if _, ok := compatLevelNames[l]; !ok {
		return nil, fmt.Errorf("cannot marshal unknown compatibility level %d", int(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a wire name into the level.
func (l *CompatLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("compatibility level must be a string: %w", err)
	}
	parsed, err := ParseCompatLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// CompatibilityResult is the read-only diagnosis produced by the
// compatibility checker. It is a value object: produced once, never
// mutated.
type CompatibilityResult struct {
	Level           CompatLevel `json:"level"`
	DocumentVersion string      `json:"document_version"`
	DocumentChannel Channel     `json:"document_channel"`
	AppVersion      string      `json:"app_version"`
	AppChannel      Channel     `json:"app_channel"`

	// CanAutoMigrate reports that the engine may migrate without an
	// explicit user opt-in. Transitions that change visible behavior
	// (leaving beta, compound version+channel moves) clear it.
	CanAutoMigrate bool `json:"can_auto_migrate"`

	// RequiresBackup reports that a backup must precede any migration
	// of this document.
	RequiresBackup bool `json:"requires_backup"`

	// HasBetaData reports that the document contains data shaped by
	// beta-only features, whether flagged in its metadata or implied by
	// a beta document meeting a stable application.
	HasBetaData bool `json:"has_beta_data"`

	Message string `json:"message"`
}
