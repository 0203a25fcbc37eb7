// Backup commands for the coffer CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cofferapp/coffer/pkg/types"
)

var (
	backupCreateReason  string
	backupRestoreYes    bool
	backupRestoreNoSnap bool
	backupLatestChannel string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage state document backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the state document",
	Long: `Create snapshots the live state document into the backup directory and
prunes snapshots beyond the retention limit, oldest first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		info, err := eng.Backups().Create(backupCreateReason)
		if err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
		if info == nil {
			fmt.Println("No state document to back up.")
			return nil
		}

		if flagJSON {
			return printJSON(info)
		}
		fmt.Println("Backup created:", info.Path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		infos, err := eng.Backups().List()
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}

		if flagJSON {
			return printJSON(infos)
		}
		printBackupTable(infos)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore the state document from a backup",
	Long: `Restore replaces the live state document with the named backup's
contents. The current document is snapshotted first under the
"pre-restore" reason unless --no-backup-first is given.

The argument is a backup name from "coffer backup list", or a path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		path := resolveBackupArg(eng.Config().BackupDir, args[0])

		if !backupRestoreYes {
			if !confirm(fmt.Sprintf("Replace the state document with %s?", filepath.Base(path))) {
				fmt.Fprintln(os.Stderr, "restore cancelled")
				os.Exit(exitUserError)
			}
		}

		if err := eng.Backups().Restore(path, !backupRestoreNoSnap); err != nil {
			if errors.Is(err, types.ErrBackupNotFound) {
				fmt.Fprintf(os.Stderr, "backup %q not found\n", args[0])
				os.Exit(exitUserError)
			}
			return fmt.Errorf("restore backup: %w", err)
		}

		fmt.Println("Restored state document from", filepath.Base(path))
		return nil
	},
}

var backupLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		info, err := eng.Backups().Latest(types.Channel(backupLatestChannel))
		if err != nil {
			return fmt.Errorf("find latest backup: %w", err)
		}
		if info == nil {
			fmt.Println("No backups found.")
			return nil
		}

		if flagJSON {
			return printJSON(info)
		}
		fmt.Printf("%s\n  created %s, schema %s (%s), reason %s, %d bytes\n",
			info.Path,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Version, info.Channel, info.Reason, info.Size,
		)
		return nil
	},
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupCreateReason, "reason", "manual", "reason recorded in the backup filename")
	backupRestoreCmd.Flags().BoolVar(&backupRestoreYes, "yes", false, "restore without prompting")
	backupRestoreCmd.Flags().BoolVar(&backupRestoreNoSnap, "no-backup-first", false, "skip snapshotting the current document before restoring")
	backupLatestCmd.Flags().StringVar(&backupLatestChannel, "channel", "", "only consider backups from this channel")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupLatestCmd)
}

// resolveBackupArg turns a bare backup name into a path under the backup
// directory; anything containing a separator is used as-is.
func resolveBackupArg(backupDir, arg string) string {
	if strings.ContainsRune(arg, os.PathSeparator) {
		return arg
	}
	return filepath.Join(backupDir, arg)
}

// printBackupTable prints backups in a human-readable table format.
func printBackupTable(infos []types.BackupInfo) {
	if len(infos) == 0 {
		fmt.Println("No backups found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREATED\tSCHEMA\tCHANNEL\tREASON\tSIZE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			info.Name,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Version,
			info.Channel,
			info.Reason,
			info.Size,
		)
	}
	w.Flush()

	fmt.Printf("Total: %d backup(s)\n", len(infos))
}
