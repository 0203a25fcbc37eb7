// Package main provides the coffer CLI: the command-line surface over
// the state document engine (compatibility diagnosis, migration, backup
// and restore, run history) and the companion database migrator.
package main

import "os"

func main() {
	// Cobra prints the error itself; exit with the user-error code.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}
