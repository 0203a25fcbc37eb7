// Package engine provides the public API for the coffer state engine.
// It assembles the registry, backup manager, run journal, and executor
// around one configuration, loads the shipped migration catalog, and
// exposes the engine's external surface while keeping implementation
// details internal.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cofferapp/coffer/internal/backup"
	"github.com/cofferapp/coffer/internal/engine"
	"github.com/cofferapp/coffer/internal/history"
	"github.com/cofferapp/coffer/internal/migrations"
	"github.com/cofferapp/coffer/internal/statefile"
	"github.com/cofferapp/coffer/pkg/types"
)

// Engine bundles the assembled collaborators behind one handle. It holds
// no run state; every operation loads what it needs from disk.
type Engine struct {
	cfg      types.Config
	registry types.Registry
	backups  types.Backups
	executor types.Executor
	journal  *history.Journal
}

// New assembles an engine over the given configuration with coffer's
// shipped migration catalog. A nil logger discards engine logging.
func New(cfg types.Config, log *slog.Logger) (*Engine, error) {
	return NewWithUnits(cfg, log, migrations.All()...)
}

// NewWithUnits assembles an engine with an explicit migration catalog.
// Tests and embedders use it to run against their own units; everything
// else goes through New. The catalog is validated up front: a malformed
// or ambiguous topology is a programming error reported before any
// document is touched.
func NewWithUnits(cfg types.Config, log *slog.Logger, units ...types.Migration) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := engine.NewRegistry()
	for _, m := range units {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("registering migration catalog: %w", err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("migration catalog: %w", err)
	}

	backups := backup.New(cfg, log)
	var journal *history.Journal
	if cfg.HistoryPath != "" {
		journal = history.New(cfg.HistoryPath)
	}

	return &Engine{
		cfg:      cfg,
		registry: reg,
		backups:  backups,
		executor: engine.NewExecutor(cfg, reg, backups, journal, log),
		journal:  journal,
	}, nil
}

// Config returns the configuration the engine was assembled with.
func (e *Engine) Config() types.Config {
	return e.cfg
}

// Registry exposes the migration catalog.
func (e *Engine) Registry() types.Registry {
	return e.registry
}

// Backups exposes the backup manager.
func (e *Engine) Backups() types.Backups {
	return e.backups
}

// Executor exposes the migration executor.
func (e *Engine) Executor() types.Executor {
	return e.executor
}

// LoadDocument reads the live state document. A missing document wraps
// types.ErrStateNotFound so callers can treat first launch distinctly.
func (e *Engine) LoadDocument() (types.Document, error) {
	return statefile.Load(e.cfg.DocumentPath)
}

// Check loads the live document and diagnoses its compatibility with the
// configured application version and channel. The document itself is
// never modified.
func (e *Engine) Check() (types.CompatibilityResult, error) {
	doc, err := e.LoadDocument()
	if err != nil {
		return types.CompatibilityResult{}, err
	}
	return engine.CheckCompatibility(doc, e.cfg.AppVersion, e.cfg.AppChannel), nil
}

// CheckDocument diagnoses a caller-supplied document against the
// configured application version and channel without touching disk.
func (e *Engine) CheckDocument(doc types.Document) types.CompatibilityResult {
	return engine.CheckCompatibility(doc, e.cfg.AppVersion, e.cfg.AppChannel)
}

// Execute migrates the live document to the target version and channel.
// The result reports success or failure; callers never need to unwrap an
// error to learn the outcome.
func (e *Engine) Execute(targetVersion string, targetChannel types.Channel, createBackup bool) types.MigrationResult {
	return e.executor.ExecuteMigration(targetVersion, targetChannel, createBackup)
}

// Safety dry-runs the transition's safety checks without mutating
// anything, returning whether it is safe and the warnings a user should
// see before committing.
func (e *Engine) Safety(targetVersion string, targetChannel types.Channel) (bool, []string) {
	return e.executor.CheckMigrationSafety(targetVersion, targetChannel)
}

// History lists recorded migration runs, newest first. An engine
// configured without a history path has no journal and returns nothing.
func (e *Engine) History() ([]types.HistoryRecord, error) {
	if e.journal == nil {
		return nil, nil
	}
	return e.journal.List()
}
