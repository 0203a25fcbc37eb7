// Config loading for the coffer CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cofferapp/coffer/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyDataDir    = "data_dir"
	cfgKeyChannel    = "channel"
	cfgKeyMaxBackups = "max_backups"
	cfgKeyLogLevel   = "log_level"
	cfgKeyLogFile    = "log_file"

	// Defaults applied when config.yaml does not set a key.
	defaultChannel  = "stable"
	defaultLogLevel = "info"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Coffer CLI configuration

# Release channel the application runs on (stable or beta).
# Beta unlocks newer schema versions; leaving beta may require
# an explicit migration back to the stable schema.
channel: stable

# Number of state document backups retained. Oldest pruned first.
max_backups: 10

# Log level (debug, info, warn, error).
log_level: info

# Log file for JSON logs (optional; stderr logging is always on).
# log_file:

# Data directory (optional; overridable by --data-dir flag).
# data_dir:
`

// loadConfig reads config.yaml from the resolved config directory using Viper.
// It creates the config directory and a default config.yaml on first run.
// A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyChannel, defaultChannel)
	v.SetDefault(cfgKeyMaxBackups, types.DefaultMaxBackups)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config.yaml is not an error.
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// effectiveConfig is the fully resolved configuration the engine will run
// with, for display by "config show".
type effectiveConfig struct {
	ConfigDir    string `json:"config_dir" yaml:"config_dir"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	DocumentPath string `json:"document_path" yaml:"document_path"`
	BackupDir    string `json:"backup_dir" yaml:"backup_dir"`
	HistoryPath  string `json:"history_path" yaml:"history_path"`
	DatabasePath string `json:"database_path" yaml:"database_path"`
	Channel      string `json:"channel" yaml:"channel"`
	AppVersion   string `json:"app_version" yaml:"app_version"`
	MaxBackups   int    `json:"max_backups" yaml:"max_backups"`
	LogLevel     string `json:"log_level" yaml:"log_level"`
	LogFile      string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect coffer configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show prints the configuration coffer resolved from flags, config.yaml,
environment variables, and defaults, including every derived path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		cfg, dataDir, err := engineConfig()
		if err != nil {
			return err
		}

		eff := effectiveConfig{
			ConfigDir:    configDir,
			DataDir:      dataDir,
			DocumentPath: cfg.DocumentPath,
			BackupDir:    cfg.BackupDir,
			HistoryPath:  cfg.HistoryPath,
			DatabasePath: filepath.Join(dataDir, companionDBName),
			Channel:      cfg.AppChannel.String(),
			AppVersion:   cfg.AppVersion,
			MaxBackups:   cfg.BackupLimit(),
			LogLevel:     appConfig.GetString(cfgKeyLogLevel),
			LogFile:      appConfig.GetString(cfgKeyLogFile),
		}

		if flagJSON {
			out, err := json.MarshalIndent(eff, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		out, err := yaml.Marshal(eff)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
