// History command lists recorded migration runs.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cofferapp/coffer/pkg/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List migration runs, newest first",
	Long: `History reads the migration journal and lists every recorded run:
what was migrated, when, whether it succeeded, and where the
pre-migration backup went.

Example:
  coffer history
  coffer history --limit 5
  coffer history --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of runs shown (0 = no limit)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	records, err := eng.History()
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if flagJSON {
		return printJSON(records)
	}
	printHistoryTable(records)
	return nil
}

// printHistoryTable prints migration runs in a human-readable table format.
func printHistoryTable(records []types.HistoryRecord) {
	if len(records) == 0 {
		fmt.Println("No migration runs recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tFROM\tTO\tSTEPS\tRESULT\tMESSAGE")
	for _, rec := range records {
		result := "ok"
		if !rec.Success {
			result = "failed"
		}
		// Truncate run IDs and long messages for readability.
		runID := rec.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		msg := rec.Message
		if len(msg) > 48 {
			msg = msg[:45] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.Time.Local().Format("2006-01-02 15:04:05"),
			runID,
			describeSchema(rec.FromVersion, rec.FromChannel),
			describeSchema(rec.ToVersion, rec.ToChannel),
			rec.Steps,
			result,
			msg,
		)
	}
	w.Flush()

	fmt.Printf("Total: %d run(s)\n", len(records))
}

// describeSchema renders a (version, channel) pair compactly, tolerating
// records that lack one half.
func describeSchema(version, channel string) string {
	switch {
	case version == "" && channel == "":
		return "-"
	case channel == "":
		return version
	default:
		return fmt.Sprintf("%s/%s", version, channel)
	}
}
