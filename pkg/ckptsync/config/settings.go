package config

import (
	"log/slog"
	"strings"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// Defaults applied by Load.
const (
	DefaultBackend  = "memory"
	DefaultFolder   = "checkpoints"
	DefaultPartSize = 8 * 1024 * 1024
	DefaultProgress = "bar"
)

// Progress styles accepted by Settings.Progress.
const (
	ProgressBar  = "bar"
	ProgressLog  = "log"
	ProgressNone = "none"
)

// Settings is the resolved configuration of one ckptsync process.
type Settings struct {
	// Backend names the registered remote backend ("memory", "s3", "minio").
	Backend string

	// DefaultFolder is the remote folder checkpoints are uploaded into.
	DefaultFolder string

	// PartSize is the chunk size for uploads and downloads.
	PartSize int64

	// LedgerPath is the SQLite file recording epoch decisions.
	// Empty keeps the ledger in memory.
	LedgerPath string

	// LogLevel is the minimum slog level.
	LogLevel slog.Level

	// Progress selects the progress sink: "bar", "log" or "none".
	Progress string

	// Remote is the backend section, i.e. the map stored under the backend name.
	Remote Config
}

// Load resolves Settings from a Config, applying defaults.
// Unknown log levels and progress styles are misuse errors.
func Load(cfg Config) (Settings, error) {
	s := Settings{
		Backend:       strings.ToLower(cfg.String("backend", DefaultBackend)),
		DefaultFolder: cfg.String("default_folder", DefaultFolder),
		PartSize:      cfg.Bytes("part_size", DefaultPartSize),
		LedgerPath:    cfg.String("ledger", ""),
		Progress:      strings.ToLower(cfg.String("progress", DefaultProgress)),
	}
	s.Remote = cfg.Sub(s.Backend)

	if s.PartSize <= 0 {
		return Settings{}, ckerr.Misuse("part_size", "must be positive")
	}

	switch s.Progress {
	case ProgressBar, ProgressLog, ProgressNone:
	default:
		return Settings{}, ckerr.Misuse("progress", "must be one of bar, log, none")
	}

	if err := s.LogLevel.UnmarshalText([]byte(cfg.String("log_level", "info"))); err != nil {
		return Settings{}, ckerr.Misuse("log_level", err.Error())
	}

	return s, nil
}
