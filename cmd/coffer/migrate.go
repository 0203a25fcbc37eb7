// Migrate command drives the state document to a target schema.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internalengine "github.com/cofferapp/coffer/internal/engine"
	"github.com/cofferapp/coffer/pkg/engine"
	"github.com/cofferapp/coffer/pkg/schemaver"
	"github.com/cofferapp/coffer/pkg/types"
)

var (
	migrateTarget   string
	migrateChannel  string
	migrateCheck    bool
	migrateNoBackup bool
	migrateYes      bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the state document to a target schema version and channel",
	Long: `Migrate plans a path from the document's current schema to the target,
checks that every step is safe, and applies the steps in memory before
atomically replacing the document. A pre-migration backup is created
unless --no-backup is given.

Transitions that change visible behavior (leaving the beta channel,
downgrades, compound version and channel moves) require --yes.

Example:
  coffer migrate
  coffer migrate --target 1.2
  coffer migrate --target 1.3 --channel beta
  coffer migrate --check
  coffer migrate --target 1.1 --yes`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTarget, "target", "", "target schema version (default: this build's version)")
	migrateCmd.Flags().StringVar(&migrateChannel, "channel", "", "target channel: stable or beta (default: configured channel)")
	migrateCmd.Flags().BoolVar(&migrateCheck, "check", false, "dry-run the safety checks without migrating")
	migrateCmd.Flags().BoolVar(&migrateNoBackup, "no-backup", false, "skip the pre-migration backup")
	migrateCmd.Flags().BoolVar(&migrateYes, "yes", false, "confirm transitions that need explicit opt-in")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	target, targetCh, err := migrationTarget(eng.Config())
	if err != nil {
		return err
	}

	if migrateCheck {
		return runMigrateCheck(eng, target, targetCh)
	}

	// Decide whether this transition needs explicit opt-in before
	// anything is touched. A missing document migrates trivially.
	doc, err := eng.LoadDocument()
	if err != nil && !errors.Is(err, types.ErrStateNotFound) {
		return fmt.Errorf("load state: %w", err)
	}
	if doc != nil {
		check := internalengine.CheckCompatibility(doc, target, targetCh)
		if check.Level != types.CompatCompatible && !check.CanAutoMigrate && !migrateYes {
			fmt.Fprintln(os.Stderr, check.Message)
			fmt.Fprintln(os.Stderr, "re-run with --yes to confirm this transition")
			os.Exit(exitUserError)
		}

		safe, warnings := eng.Safety(target, targetCh)
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		if !safe && !migrateYes {
			fmt.Fprintln(os.Stderr, "migration is not safe; re-run with --yes to attempt it anyway")
			os.Exit(exitUserError)
		}
	}

	result := eng.Execute(target, targetCh, !migrateNoBackup)

	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Success {
			os.Exit(exitUserError)
		}
		return nil
	}

	if !result.Success {
		fmt.Fprintln(os.Stderr, "migration failed:", result.Message)
		if result.BackupPath != "" {
			fmt.Fprintln(os.Stderr, "pre-migration backup:", result.BackupPath)
		}
		os.Exit(exitUserError)
	}

	fmt.Println(result.Message)
	if result.BackupPath != "" {
		fmt.Println("Backup:", result.BackupPath)
	}
	return nil
}

// runMigrateCheck dry-runs the transition's safety checks and reports.
// An unsafe transition exits with the user-error code so scripts can
// gate on it.
func runMigrateCheck(eng *engine.Engine, target string, targetCh types.Channel) error {
	safe, warnings := eng.Safety(target, targetCh)

	if flagJSON {
		if err := printJSON(map[string]any{
			"safe":           safe,
			"warnings":       warnings,
			"target_version": target,
			"target_channel": targetCh,
		}); err != nil {
			return err
		}
		if !safe {
			os.Exit(exitUserError)
		}
		return nil
	}

	for _, w := range warnings {
		fmt.Println("warning:", w)
	}
	if !safe {
		fmt.Fprintf(os.Stderr, "migration to %s (%s) is not safe\n", target, targetCh)
		os.Exit(exitUserError)
	}
	fmt.Printf("Migration to %s (%s) is safe.\n", target, targetCh)
	return nil
}

// migrationTarget resolves the target (version, channel) pair from flags,
// defaulting to what this build runs.
func migrationTarget(cfg types.Config) (string, types.Channel, error) {
	targetCh := cfg.AppChannel
	if migrateChannel != "" {
		targetCh = types.ParseChannel(migrateChannel)
		if targetCh != types.ChannelStable && targetCh != types.ChannelBeta {
			return "", "", fmt.Errorf("unknown channel %q (expected stable or beta)", migrateChannel)
		}
	}

	target := migrateTarget
	if target == "" {
		target = appVersion(targetCh)
	} else if _, err := schemaver.Parse(target); err != nil {
		return "", "", fmt.Errorf("invalid target version %q: %w", target, err)
	}

	return target, targetCh, nil
}
