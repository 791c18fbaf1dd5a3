package config_test

import (
	"log/slog"
	"testing"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := config.Load(config.New(nil))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBackend, s.Backend)
	assert.Equal(t, config.DefaultFolder, s.DefaultFolder)
	assert.Equal(t, int64(config.DefaultPartSize), s.PartSize)
	assert.Equal(t, "", s.LedgerPath)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.Equal(t, config.ProgressBar, s.Progress)
}

func TestLoad_Values(t *testing.T) {
	s, err := config.Load(config.New(map[string]any{
		"backend":        "S3",
		"default_folder": "Colab Notebooks",
		"part_size":      "16MiB",
		"ledger":         "runs.db",
		"log_level":      "DEBUG",
		"progress":       "log",
		"s3":             map[string]any{"bucket": "runs"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "s3", s.Backend)
	assert.Equal(t, "Colab Notebooks", s.DefaultFolder)
	assert.Equal(t, int64(16*1024*1024), s.PartSize)
	assert.Equal(t, "runs.db", s.LedgerPath)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
	assert.Equal(t, config.ProgressLog, s.Progress)
	assert.Equal(t, "runs", s.Remote.String("bucket", ""))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"zero part size", map[string]any{"part_size": 0}, "part_size"},
		{"unknown progress", map[string]any{"progress": "fancy"}, "progress"},
		{"unknown log level", map[string]any{"log_level": "loud"}, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(config.New(tt.data))
			require.Error(t, err)

			var misuse *ckerr.MisuseError
			require.ErrorAs(t, err, &misuse)
			assert.Equal(t, tt.field, misuse.Field)
		})
	}
}
