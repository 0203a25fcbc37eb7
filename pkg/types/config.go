package types

import "github.com/cofferapp/coffer/pkg/schemaver"

// DefaultMaxBackups is the retention limit applied when a configuration
// does not set one.
const DefaultMaxBackups = 10

// Config carries everything the engine needs to find and protect the
// state document: where it lives, where its snapshots go, and what
// (version, channel) the running application speaks.
type Config struct {
	DocumentPath string  `json:"document_path" yaml:"document_path"`
	BackupDir    string  `json:"backup_dir" yaml:"backup_dir"`
	MaxBackups   int     `json:"max_backups" yaml:"max_backups"`
	HistoryPath  string  `json:"history_path" yaml:"history_path"`
	AppVersion   string  `json:"app_version" yaml:"app_version"`
	AppChannel   Channel `json:"app_channel" yaml:"app_channel"`
}

// BackupLimit returns the effective retention count: MaxBackups when
// positive, DefaultMaxBackups otherwise.
func (c Config) BackupLimit() int {
	if c.MaxBackups > 0 {
		return c.MaxBackups
	}
	return DefaultMaxBackups
}

// Validate checks that the Config is well-formed, returning a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DocumentPath == "" {
		return ErrDocumentPathEmpty
	}
	if c.BackupDir == "" {
		return ErrBackupDirEmpty
	}
	if c.MaxBackups < 0 {
		return ErrMaxBackupsInvalid
	}
	if c.AppVersion != "" {
		if _, err := schemaver.Parse(c.AppVersion); err != nil {
			return ErrAppVersionInvalid
		}
	}
	return nil
}
