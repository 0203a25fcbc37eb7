package types

import "encoding/json"

// Reserved top-level document keys. Everything else in the document is
// opaque payload that migration units read and rewrite as needed.
const (
	KeySchemaVersion     = "schema_version"
	KeySchemaChannel     = "schema_channel"
	KeyMigrationMetadata = "_migration_metadata"
)

// DefaultSchemaVersion is assumed for documents that carry no
// schema_version field: they predate versioning entirely.
const DefaultSchemaVersion = "1.0"

// Document is the persisted application state: an arbitrary JSON object
// with three reserved keys for engine metadata. The engine never
// interprets payload keys; only migration units do.
type Document map[string]any

// SchemaVersion returns the document's declared schema version, or
// DefaultSchemaVersion when the field is missing or not a string. A
// present but malformed version string is returned as-is; version
// comparison treats it as the oldest possible version.
func (d Document) SchemaVersion() string {
	if d == nil {
		return DefaultSchemaVersion
	}
	if s, ok := d[KeySchemaVersion].(string); ok && s != "" {
		return s
	}
	return DefaultSchemaVersion
}

// SetSchemaVersion stamps the document's schema version.
func (d Document) SetSchemaVersion(version string) {
	d[KeySchemaVersion] = version
}

// SchemaChannel returns the document's declared channel, defaulting to
// stable when the field is missing or empty.
func (d Document) SchemaChannel() Channel {
	if d == nil {
		return ChannelStable
	}
	if s, ok := d[KeySchemaChannel].(string); ok {
		return ParseChannel(s)
	}
	return ChannelStable
}

// SetSchemaChannel stamps the document's channel.
func (d Document) SetSchemaChannel(ch Channel) {
	d[KeySchemaChannel] = string(ch)
}

// Clone returns a deep copy of the document via a JSON round-trip.
// Documents hold only JSON-compatible values, so the round-trip is
// lossless; a document that cannot be marshalled yields nil.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// MigrationMetadata is the engine bookkeeping stored under the
// _migration_metadata key. HasBetaData records that the document holds
// data shaped by beta-only features; once set it is never cleared by the
// engine, only surfaced, so a later stable build knows the history.
type MigrationMetadata struct {
	LastMigratedAt string   `json:"last_migrated_at,omitempty"`
	MigrationPath  []string `json:"migration_path,omitempty"`
	SourceChannel  string   `json:"source_channel,omitempty"`
	HasBetaData    bool     `json:"has_beta_data,omitempty"`
	LastRunID      string   `json:"last_run_id,omitempty"`
}

// Metadata extracts the migration metadata block. Missing or malformed
// blocks yield the zero value; individual fields are read tolerantly so a
// hand-edited document cannot break diagnostics.
func (d Document) Metadata() MigrationMetadata {
	var meta MigrationMetadata
	if d == nil {
		return meta
	}
	raw, ok := d[KeyMigrationMetadata].(map[string]any)
	if !ok {
		return meta
	}
	if s, ok := raw["last_migrated_at"].(string); ok {
		meta.LastMigratedAt = s
	}
	if list, ok := raw["migration_path"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				meta.MigrationPath = append(meta.MigrationPath, s)
			}
		}
	}
	if s, ok := raw["source_channel"].(string); ok {
		meta.SourceChannel = s
	}
	if b, ok := raw["has_beta_data"].(bool); ok {
		meta.HasBetaData = b
	}
	if s, ok := raw["last_run_id"].(string); ok {
		meta.LastRunID = s
	}
	return meta
}

// SetMetadata writes the migration metadata block back onto the document
// in its map form.
func (d Document) SetMetadata(meta MigrationMetadata) {
	block := map[string]any{}
	if meta.LastMigratedAt != "" {
		block["last_migrated_at"] = meta.LastMigratedAt
	}
	if len(meta.MigrationPath) > 0 {
		path := make([]any, len(meta.MigrationPath))
		for i, v := range meta.MigrationPath {
			path[i] = v
		}
		block["migration_path"] = path
	}
	if meta.SourceChannel != "" {
		block["source_channel"] = meta.SourceChannel
	}
	if meta.HasBetaData {
		block["has_beta_data"] = true
	}
	if meta.LastRunID != "" {
		block["last_run_id"] = meta.LastRunID
	}
	d[KeyMigrationMetadata] = block
}
