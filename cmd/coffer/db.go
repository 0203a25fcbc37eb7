// Db commands migrate the companion's relational database.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cofferapp/coffer/internal/sqlmigrate"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the companion database schema",
	Long: `The companion application keeps its relational data in a SQLite
database next to the state document. Db commands apply the shipped
schema migrations to it and report its version.

Unlike state document migrations, database migrations are forward-only.`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCompanionDB()
		if err != nil {
			return err
		}
		defer store.Close()

		applied, err := store.Apply()
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		version, err := store.Version()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		if flagJSON {
			return printJSON(map[string]any{
				"applied": applied,
				"version": version,
			})
		}
		if applied == 0 {
			fmt.Printf("Database already at schema version %d.\n", version)
			return nil
		}
		fmt.Printf("Applied %d migration(s); database now at schema version %d.\n", applied, version)
		return nil
	},
}

var dbVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the database schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCompanionDB()
		if err != nil {
			return err
		}
		defer store.Close()

		version, err := store.Version()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		pending, err := store.Pending()
		if err != nil {
			return fmt.Errorf("count pending migrations: %w", err)
		}

		if flagJSON {
			return printJSON(map[string]any{
				"version": version,
				"pending": pending,
			})
		}
		fmt.Printf("Database schema version: %d\n", version)
		if pending > 0 {
			fmt.Printf("Pending migrations: %d (run \"coffer db migrate\")\n", pending)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbVersionCmd)
}

// openCompanionDB opens the companion database in the resolved data
// directory. The caller must Close it.
func openCompanionDB() (*sqlmigrate.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	store, err := sqlmigrate.Open(filepath.Join(dataDir, companionDBName), logger)
	if err != nil {
		return nil, fmt.Errorf("open companion database: %w", err)
	}
	return store, nil
}
