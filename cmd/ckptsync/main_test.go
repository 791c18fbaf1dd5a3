package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_ReplayThenHistory(t *testing.T) {
	dir := t.TempDir()
	ckptDir := filepath.Join(dir, "ckpt")
	cfg := writeFile(t, filepath.Join(dir, "ckptsync.yaml"),
		"backend: memory\nprogress: none\nlog_level: error\nledger: "+filepath.Join(dir, "ledger.db")+"\n")
	metrics := writeFile(t, filepath.Join(dir, "metrics.jsonl"), `{"epoch":0,"metrics":{"val_acc":0.70}}
{"epoch":1,"metrics":{"val_acc":0.65}}

{"epoch":2,"metrics":{"val_acc":0.80}}
`)

	var out, errOut bytes.Buffer
	err := run(context.Background(),
		[]string{"-config", cfg, "replay", "-dir", ckptDir, "-pattern", "model_%d.h5", "-run", "r1", metrics},
		&out, &errOut)
	require.NoError(t, err, errOut.String())

	assert.Equal(t, "epoch 0: improved\nepoch 1: no_improvement\nepoch 2: improved\n"+
		"best epoch 2 (run r1) "+filepath.Join(ckptDir, "model_2.h5")+"\n", out.String())
	assert.NoFileExists(t, filepath.Join(ckptDir, "model_0.h5"))
	assert.FileExists(t, filepath.Join(ckptDir, "model_2.h5"))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"-config", cfg, "history", "r1"}, &out, &errOut))
	assert.Contains(t, out.String(), "EPOCH")
	assert.Contains(t, out.String(), "no_improvement")
	assert.Contains(t, out.String(), "val_acc=0.8")
}

func TestRun_ReplayMinimize(t *testing.T) {
	dir := t.TempDir()
	metrics := writeFile(t, filepath.Join(dir, "m.jsonl"),
		`{"epoch":0,"metrics":{"loss":1.0}}`+"\n"+`{"epoch":1,"metrics":{"loss":1.2}}`+"\n")
	t.Setenv("CKPTSYNC_PROGRESS", "none")
	t.Setenv("CKPTSYNC_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	err := run(context.Background(),
		[]string{"replay", "-metric", "loss", "-mode", "min", "-dir", dir, "-run", "r2", metrics},
		&out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "epoch 1: no_improvement")
	assert.Contains(t, out.String(), "best epoch 0")
}

func TestRun_Misuse(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"sync"}},
		{"missing find arg", []string{"find"}},
		{"bad mode", []string{"replay", "-mode", "avg", "x.jsonl"}},
		{"history without ledger", []string{"history", "r1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CKPTSYNC_PROGRESS", "none")
			var out, errOut bytes.Buffer
			err := run(context.Background(), tt.args, &out, &errOut)
			require.Error(t, err)
			assert.Equal(t, ckerr.CategoryMisuse, ckerr.Categorize(err))
		})
	}
}

func TestRun_UnknownBackend(t *testing.T) {
	t.Setenv("CKPTSYNC_BACKEND", "ftp")
	t.Setenv("CKPTSYNC_PROGRESS", "none")

	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"find", "x"}, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestRun_FindOnEmptyStore(t *testing.T) {
	t.Setenv("CKPTSYNC_PROGRESS", "none")
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"find", "model"}, &out, &errOut))
	assert.Empty(t, out.String())
}

func TestRun_DownloadMissing(t *testing.T) {
	t.Setenv("CKPTSYNC_PROGRESS", "none")
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"download", "model.h5", filepath.Join(t.TempDir(), "m.h5")}, &out, &errOut)
	require.ErrorIs(t, err, ckerr.ErrNotFound)
}
