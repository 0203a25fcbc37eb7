package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cofferapp/coffer/internal/history"
	"github.com/cofferapp/coffer/internal/statefile"
	"github.com/cofferapp/coffer/pkg/schemaver"
	"github.com/cofferapp/coffer/pkg/types"
)

// Executor runs migrations against the live document. One run per call,
// no state across calls: every run loads the document, plans a path,
// transforms a clone entirely in memory, and persists the result with a
// single atomic write. Any failure before that write leaves the on-disk
// document byte-for-byte untouched.
type Executor struct {
	cfg      types.Config
	registry types.Registry
	backups  types.Backups
	journal  *history.Journal
	log      *slog.Logger

	now      func() time.Time
	newRunID func() string
}

var _ types.Executor = (*Executor)(nil)

// NewExecutor wires the executor to its collaborators. The journal may be
// nil to disable run recording; a nil logger discards.
func NewExecutor(cfg types.Config, registry types.Registry, backups types.Backups, journal *history.Journal, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		cfg:      cfg,
		registry: registry,
		backups:  backups,
		journal:  journal,
		log:      log,
		now:      time.Now,
		newRunID: history.NewRunID,
	}
}

// ExecuteMigration migrates the live document to the target version and
// channel. The returned result carries success or failure; the Err field
// holds the underlying error for inspection, and BackupPath is filled as
// soon as the pre-migration snapshot exists so it survives any later
// failure.
func (e *Executor) ExecuteMigration(targetVersion string, targetChannel types.Channel, createBackup bool) types.MigrationResult {
	targetCh := types.ParseChannel(targetChannel.String())
	result := types.MigrationResult{
		RunID:     e.newRunID(),
		ToVersion: targetVersion,
		ToChannel: targetCh,
	}
	log := e.log.With("run_id", result.RunID, "target_version", targetVersion, "target_channel", targetCh)

	doc, err := statefile.Load(e.cfg.DocumentPath)
	if err != nil {
		if errors.Is(err, types.ErrStateNotFound) {
			result.Success = true
			result.Message = "no state document found; nothing to migrate"
			log.Info("nothing to migrate")
			e.record(result, 0)
			return result
		}
		return e.fail(log, result, fmt.Errorf("loading document: %w", err))
	}

	result.FromVersion = doc.SchemaVersion()
	result.FromChannel = doc.SchemaChannel()

	if schemaver.Compare(result.FromVersion, targetVersion) == 0 && result.FromChannel == targetCh {
		result.Success = true
		result.Message = fmt.Sprintf("document already at schema %s (%s); no migration needed", result.FromVersion, result.FromChannel)
		log.Info("no migration needed")
		e.record(result, 0)
		return result
	}

	if createBackup {
		info, err := e.backups.Create("pre-migration")
		if err != nil {
			return e.fail(log, result, fmt.Errorf("creating pre-migration backup: %w", err))
		}
		if info != nil {
			result.BackupPath = info.Path
			log.Debug("pre-migration backup created", "path", info.Path)
		}
	}

	units, backward, err := e.plan(result.FromVersion, targetVersion, targetCh)
	if err != nil {
		return e.fail(log, result, err)
	}

	work := doc.Clone()
	if work == nil {
		return e.fail(log, result, errors.New("document clone failed"))
	}

	// Forward runs adopt the target channel before any unit applies, so
	// channel-constrained units see the channel the document is moving
	// to. Backward runs keep the current channel until the end: the
	// departure happens only after every unit has run on it.
	if !backward && work.SchemaChannel() != targetCh {
		work.SetSchemaChannel(targetCh)
	}

	visited := make([]string, 0, len(units))
	for _, m := range units {
		if backward {
			if ok, reason := m.CanMigrateBackward(work); !ok {
				return e.fail(log, result, fmt.Errorf("%w: %s: %s", types.ErrUnsafeDowngrade, describe(m, true), reason))
			}
		}
		if err := checkEntryChannel(m, work, backward); err != nil {
			return e.fail(log, result, err)
		}

		next, err := applyUnit(m, work, backward)
		if err != nil {
			return e.fail(log, result, fmt.Errorf("applying %s: %w", describe(m, backward), err))
		}
		work = next

		landing := landingVersion(m, backward)
		work.SetSchemaVersion(landing)
		if ch := exitChannel(m, backward); ch != "" {
			work.SetSchemaChannel(ch)
		}
		visited = append(visited, landing)
		log.Debug("applied migration", "step", describe(m, backward), "description", m.Description())
	}

	meta := work.Metadata()
	meta.LastMigratedAt = e.now().UTC().Format(time.RFC3339)
	meta.MigrationPath = append(meta.MigrationPath, visited...)
	meta.SourceChannel = result.FromChannel.String()
	meta.LastRunID = result.RunID
	if targetCh.IsBeta() {
		meta.HasBetaData = true
	}
	work.SetMetadata(meta)
	work.SetSchemaVersion(targetVersion)
	work.SetSchemaChannel(targetCh)

	if err := statefile.Save(e.cfg.DocumentPath, work); err != nil {
		return e.fail(log, result, fmt.Errorf("persisting document: %w", err))
	}

	result.Success = true
	if len(units) == 0 {
		result.Message = fmt.Sprintf("switched channel from %s to %s at schema %s", result.FromChannel, targetCh, targetVersion)
	} else {
		result.Message = fmt.Sprintf("migrated from %s (%s) to %s (%s), applied %d migration(s)", result.FromVersion, result.FromChannel, targetVersion, targetCh, len(units))
	}
	log.Info("migration complete", "steps", len(units))
	e.record(result, len(units))
	return result
}

// CheckMigrationSafety dry-runs the transition: same planning, same
// per-unit safety checks, applied to a clone so later checks see the
// document each unit would actually receive. Nothing on disk changes.
// Blocking problems make the first return false; advisory notes about
// the transition are returned either way.
func (e *Executor) CheckMigrationSafety(targetVersion string, targetChannel types.Channel) (bool, []string) {
	targetCh := types.ParseChannel(targetChannel.String())

	doc, err := statefile.Load(e.cfg.DocumentPath)
	if err != nil {
		if errors.Is(err, types.ErrStateNotFound) {
			return true, nil
		}
		return false, []string{err.Error()}
	}

	curVersion := doc.SchemaVersion()
	curChannel := doc.SchemaChannel()
	if schemaver.Compare(curVersion, targetVersion) == 0 && curChannel == targetCh {
		return true, nil
	}

	units, backward, err := e.plan(curVersion, targetVersion, targetCh)
	if err != nil {
		return false, []string{err.Error()}
	}

	var warnings []string
	safe := true

	if curChannel.IsBeta() && !targetCh.IsBeta() {
		warnings = append(warnings, "document leaves the beta channel; beta data is preserved but ignored by stable builds")
	}
	if schemaver.Compare(curVersion, targetVersion) != 0 && curChannel != targetCh {
		warnings = append(warnings, "transition changes schema version and channel at once")
	}

	work := doc.Clone()
	if work == nil {
		return false, append(warnings, "document clone failed")
	}
	if !backward && work.SchemaChannel() != targetCh {
		work.SetSchemaChannel(targetCh)
	}

	for _, m := range units {
		if backward {
			if ok, reason := m.CanMigrateBackward(work); !ok {
				safe = false
				warnings = append(warnings, fmt.Sprintf("downgrade %s: %s", describe(m, true), reason))
				continue
			}
		}
		if err := checkEntryChannel(m, work, backward); err != nil {
			safe = false
			warnings = append(warnings, err.Error())
			continue
		}
		next, err := applyUnit(m, work, backward)
		if err != nil {
			safe = false
			warnings = append(warnings, fmt.Sprintf("step %s would fail: %v", describe(m, backward), err))
			continue
		}
		work = next
		work.SetSchemaVersion(landingVersion(m, backward))
		if ch := exitChannel(m, backward); ch != "" {
			work.SetSchemaChannel(ch)
		}
	}

	return safe, warnings
}

// plan selects the units and direction for a transition. Equal versions
// mean a channel-only switch: no version edges are traversed, and the
// direction follows the target channel, beta being the forward side.
func (e *Executor) plan(fromVersion, targetVersion string, targetCh types.Channel) ([]types.Migration, bool, error) {
	switch cmp := schemaver.Compare(targetVersion, fromVersion); {
	case cmp > 0:
		units, err := e.registry.ForwardPath(fromVersion, targetVersion)
		return units, false, err
	case cmp < 0:
		units, err := e.registry.BackwardPath(fromVersion, targetVersion)
		return units, true, err
	default:
		return nil, !targetCh.IsBeta(), nil
	}
}

// fail finalizes a result for an error, keeping any backup path already
// captured so the caller can point a human at it.
func (e *Executor) fail(log *slog.Logger, result types.MigrationResult, err error) types.MigrationResult {
	result.Success = false
	result.Err = err
	result.Message = err.Error()
	if result.BackupPath != "" {
		result.Message = fmt.Sprintf("%s (pre-migration backup preserved at %s)", err.Error(), result.BackupPath)
	}
	log.Error("migration failed", "error", err)
	e.record(result, 0)
	return result
}

// record appends the run to the history journal. History is advisory and
// must never fail the run it describes.
func (e *Executor) record(result types.MigrationResult, steps int) {
	if e.journal == nil {
		return
	}
	rec := types.HistoryRecord{
		RunID:       result.RunID,
		Time:        e.now().UTC(),
		FromVersion: result.FromVersion,
		ToVersion:   result.ToVersion,
		FromChannel: result.FromChannel.String(),
		ToChannel:   result.ToChannel.String(),
		Steps:       steps,
		Success:     result.Success,
		Message:     result.Message,
		BackupPath:  result.BackupPath,
	}
	if err := e.journal.Append(rec); err != nil {
		e.log.Warn("recording run in history", "error", err)
	}
}

// applyUnit invokes the unit in the requested direction.
func applyUnit(m types.Migration, doc types.Document, backward bool) (types.Document, error) {
	if backward {
		return m.Backward(doc)
	}
	return m.Forward(doc)
}

// landingVersion is the version the document is on after the unit runs in
// the given direction.
func landingVersion(m types.Migration, backward bool) string {
	if backward {
		return m.FromVersion()
	}
	return m.ToVersion()
}

// entryChannel is the channel a unit requires before running in the given
// direction; empty means any.
func entryChannel(m types.Migration, backward bool) types.Channel {
	if backward {
		return m.ToChannel()
	}
	return m.FromChannel()
}

// exitChannel is the channel the unit leaves the document on; empty means
// the channel is not touched.
func exitChannel(m types.Migration, backward bool) types.Channel {
	if backward {
		return m.FromChannel()
	}
	return m.ToChannel()
}

// checkEntryChannel enforces a unit's channel constraint against the
// document it is about to transform.
func checkEntryChannel(m types.Migration, doc types.Document, backward bool) error {
	want := entryChannel(m, backward)
	if want == "" || doc.SchemaChannel() == want {
		return nil
	}
	return fmt.Errorf("%w: step %s requires channel %s, document is on %s", types.ErrChannelConstraint, describe(m, backward), want, doc.SchemaChannel())
}

// describe renders a unit as "from to to" in its application direction.
func describe(m types.Migration, backward bool) string {
	if backward {
		return fmt.Sprintf("%s to %s", m.ToVersion(), m.FromVersion())
	}
	return fmt.Sprintf("%s to %s", m.FromVersion(), m.ToVersion())
}
