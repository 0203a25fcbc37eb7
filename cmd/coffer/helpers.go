// Shared helpers for coffer CLI commands.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cofferapp/coffer/internal/migrations"
	"github.com/cofferapp/coffer/pkg/engine"
	"github.com/cofferapp/coffer/pkg/types"
)

// Data directory layout. Everything coffer writes lives under the
// resolved data dir.
const (
	stateFileName   = "state.json"
	backupsDirName  = "backups"
	historyFileName = "history.jsonl"
	companionDBName = "companion.db"
)

// appChannel returns the release channel the CLI runs on, from config.yaml.
func appChannel() types.Channel {
	return types.ParseChannel(appConfig.GetString(cfgKeyChannel))
}

// appVersion returns the schema version this build speaks on the given
// channel. Beta builds track the newest schema; stable builds stop at the
// newest stable one.
func appVersion(ch types.Channel) string {
	if ch.IsBeta() {
		return migrations.CurrentVersion
	}
	return migrations.CurrentStableVersion
}

// engineConfig resolves the data directory and assembles the engine
// configuration from it. The resolved data dir is returned alongside for
// callers that derive further paths from it.
func engineConfig() (types.Config, string, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve data dir: %w", err)
	}

	ch := appChannel()
	cfg := types.Config{
		DocumentPath: filepath.Join(dataDir, stateFileName),
		BackupDir:    filepath.Join(dataDir, backupsDirName),
		MaxBackups:   appConfig.GetInt(cfgKeyMaxBackups),
		HistoryPath:  filepath.Join(dataDir, historyFileName),
		AppVersion:   appVersion(ch),
		AppChannel:   ch,
	}
	return cfg, dataDir, nil
}

// buildEngine assembles the state engine over the resolved configuration.
func buildEngine() (*engine.Engine, error) {
	cfg, _, err := engineConfig()
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("assemble engine: %w", err)
	}
	return eng, nil
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// confirm prompts on stderr and reads a yes/no answer from stdin.
// Anything other than "y" or "yes" declines.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
