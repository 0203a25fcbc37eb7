// Status command diagnoses the live state document.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cofferapp/coffer/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Diagnose compatibility between the state document and this build",
	Long: `Status reads the state document and reports how it relates to the
schema version and channel this build runs. It never modifies the
document.

Example:
  coffer status
  coffer status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	check, err := eng.Check()
	if err != nil {
		if errors.Is(err, types.ErrStateNotFound) {
			return printMissingState(eng.Config().DocumentPath)
		}
		return fmt.Errorf("check state: %w", err)
	}

	if flagJSON {
		return printJSON(check)
	}

	printCompatibility(check)
	return nil
}

// printMissingState reports the absence of a state document. First launch
// is an expected condition, not a failure.
func printMissingState(path string) error {
	if flagJSON {
		return printJSON(map[string]any{
			"state_exists":  false,
			"document_path": path,
		})
	}
	fmt.Printf("No state document at %s.\n", path)
	fmt.Println("One will be created the first time the application saves its state.")
	return nil
}

// printCompatibility renders a compatibility diagnosis for humans.
func printCompatibility(check types.CompatibilityResult) {
	fmt.Printf("Compatibility: %s\n", check.Level)
	fmt.Printf("  Document:    %s (%s)\n", check.DocumentVersion, check.DocumentChannel)
	fmt.Printf("  Application: %s (%s)\n", check.AppVersion, check.AppChannel)
	fmt.Printf("  Auto-migratable: %s\n", yesNo(check.CanAutoMigrate))
	fmt.Printf("  Backup required: %s\n", yesNo(check.RequiresBackup))
	fmt.Printf("  Beta data:       %s\n", yesNo(check.HasBetaData))
	fmt.Println()
	fmt.Println(check.Message)

	switch check.Level {
	case types.CompatNeedsMigration, types.CompatChannelMismatch:
		fmt.Println()
		fmt.Printf("Run \"coffer migrate --target %s --channel %s\" to migrate.\n",
			check.AppVersion, check.AppChannel)
	}
}

// yesNo renders a bool for human output.
func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
