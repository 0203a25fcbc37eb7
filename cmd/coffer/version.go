// Version command for the coffer CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cofferapp/coffer/internal/migrations"
	"github.com/cofferapp/coffer/pkg/coffer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the coffer version and the schema versions it speaks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("coffer", coffer.Version)
		fmt.Printf("schema %s (stable), %s (beta)\n",
			migrations.CurrentStableVersion, migrations.CurrentVersion)
	},
}
