package engine

import (
	"fmt"

	"github.com/cofferapp/coffer/pkg/schemaver"
	"github.com/cofferapp/coffer/pkg/types"
)

// CheckCompatibility classifies the relationship between the running
// application's (version, channel) and the document's declared pair. It
// is a pure function: it reads the document and returns a value, and it
// never fails. Malformed version strings compare as the oldest possible
// version so that a corrupted field degrades to "very old document"
// instead of breaking diagnostics.
//
// The rules are ordered; the first match decides:
//
//  1. same version, same channel: compatible, nothing to do
//  2. same channel, newer app: needs migration, automatic
//  3. same channel, newer document: incompatible, never migrate toward
//     a schema this build has never heard of
//  4. beta document meeting a stable app: channel mismatch, explicit
//     opt-in required because visible behavior changes
//  5. stable document meeting a beta app: channel mismatch, automatic
//  6. same version, other channel combinations: channel mismatch,
//     automatic
//  7. different version and different channel: needs migration, but the
//     compound transition requires explicit confirmation
func CheckCompatibility(doc types.Document, appVersion string, appChannel types.Channel) types.CompatibilityResult {
	docVersion := doc.SchemaVersion()
	docChannel := doc.SchemaChannel()
	appCh := types.ParseChannel(appChannel.String())

	cmp := schemaver.Compare(appVersion, docVersion)
	sameVersion := cmp == 0
	sameChannel := docChannel == appCh

	result := types.CompatibilityResult{
		DocumentVersion: docVersion,
		DocumentChannel: docChannel,
		AppVersion:      appVersion,
		AppChannel:      appCh,
		HasBetaData:     doc.Metadata().HasBetaData,
	}

	switch {
	case sameVersion && sameChannel:
		result.Level = types.CompatCompatible
		result.Message = fmt.Sprintf("document schema %s (%s) matches the application", docVersion, docChannel)

	case sameChannel && cmp > 0:
		result.Level = types.CompatNeedsMigration
		result.CanAutoMigrate = true
		result.RequiresBackup = true
		result.Message = fmt.Sprintf("document schema %s is behind application schema %s; automatic migration is available", docVersion, appVersion)

	case sameChannel && cmp < 0:
		result.Level = types.CompatIncompatible
		result.Message = fmt.Sprintf("document schema %s is newer than application schema %s; update the application instead of migrating", docVersion, appVersion)

	case docChannel == types.ChannelBeta && appCh == types.ChannelStable:
		result.Level = types.CompatChannelMismatch
		result.RequiresBackup = true
		result.HasBetaData = true
		result.Message = "document carries beta channel data; switching to stable requires explicit confirmation"

	case docChannel == types.ChannelStable && appCh == types.ChannelBeta:
		result.Level = types.CompatChannelMismatch
		result.CanAutoMigrate = true
		result.RequiresBackup = true
		result.Message = fmt.Sprintf("stable document can be adopted by the beta application at schema %s", appVersion)

	case sameVersion:
		result.Level = types.CompatChannelMismatch
		result.CanAutoMigrate = true
		result.RequiresBackup = true
		result.Message = fmt.Sprintf("document and application are on different channels (%s vs %s) at the same schema version", docChannel, appCh)

	default:
		result.Level = types.CompatNeedsMigration
		result.RequiresBackup = true
		result.Message = fmt.Sprintf("document must change both schema version (%s to %s) and channel (%s to %s); explicit confirmation required", docVersion, appVersion, docChannel, appCh)
	}

	return result
}
