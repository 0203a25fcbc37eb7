// Root command for the coffer CLI.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cofferapp/coffer/internal/logging"
	"github.com/cofferapp/coffer/internal/paths"
	"github.com/cofferapp/coffer/pkg/coffer"
)

// Exit codes: 0 success, 1 user-correctable problem, 2 system failure.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// appConfig holds the loaded config.yaml values. Set by
// PersistentPreRunE so all subcommands can read it.
var appConfig *viper.Viper

// logger is the shared structured logger; closeLogger releases its file
// sink, if any.
var (
	logger      *slog.Logger
	closeLogger func() error
)

var rootCmd = &cobra.Command{
	Use:   "coffer",
	Short: "Coffer manages the versioned state document of the finance companion",
	Long: `Coffer evolves a single versioned JSON state document across schema
versions and release channels, with automatic backup, rollback safety,
and compatibility diagnosis. It also migrates the companion's relational
database alongside.`,
	Version: coffer.Version,
	// Do not print usage on errors returned by subcommands.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The top-level version command works without configuration
		// on disk ("db version" still needs it).
		if cmd.CommandPath() == "coffer version" {
			return nil
		}

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		appConfig = cfg

		log, closeFn, err := logging.New(logging.Options{
			Level: cfg.GetString(cfgKeyLogLevel),
			File:  cfg.GetString(cfgKeyLogFile),
		})
		if err != nil {
			return err
		}
		logger = log
		closeLogger = closeFn
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogger != nil {
			return closeLogger()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.coffer-state)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > COFFER_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory path following the precedence
// chain: --data-dir flag > config.yaml data_dir > COFFER_DATA_DIR env >
// default $(CWD)/.coffer-state.
func resolveDataDir() (string, error) {
	var configDataDir string
	if appConfig != nil {
		configDataDir = appConfig.GetString(cfgKeyDataDir)
	}
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}
