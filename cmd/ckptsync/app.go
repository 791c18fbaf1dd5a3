package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/ledger"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/observability"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/progress"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote/memory"
	ckminio "github.com/randalmurphal/ckptsync/pkg/ckptsync/remote/minio"
	cks3 "github.com/randalmurphal/ckptsync/pkg/ckptsync/remote/s3"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/transfer"
)

const envPrefix = "CKPTSYNC"

// app holds what every command needs.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"find":     runFind,
	"upload":   runUpload,
	"download": runDownload,
	"delete":   runDelete,
	"history":  runHistory,
	"replay":   runReplay,
	"board":    runBoard,
}

func registry() *remote.Registry {
	r := remote.NewRegistry()
	r.Register("memory", memory.Factory)
	r.Register("s3", cks3.Factory)
	r.Register("minio", ckminio.Factory)
	return r
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ckptsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "YAML or JSON config file")
	if err := fs.Parse(args); err != nil {
		return ckerr.Misuse("flags", err.Error())
	}
	if fs.NArg() == 0 {
		return ckerr.Misuse("command", "a command is required: find, upload, download, delete, history, replay, board")
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return ckerr.Misuse("command", fmt.Sprintf("unknown command %q", name))
	}

	cfg, err := config.FromFile(*cfgPath)
	if err != nil {
		return err
	}
	settings, err := config.Load(cfg.WithEnv(envPrefix))
	if err != nil {
		return err
	}

	a := &app{
		settings: settings,
		logger:   slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: settings.LogLevel})),
		stdout:   stdout,
		stderr:   stderr,
		metrics:  observability.NewMetricsRecorder(),
		spans:    observability.NewSpanManager(),
	}
	return cmd(ctx, a, fs.Args()[1:])
}

// executor opens and authenticates the configured backend.
func (a *app) executor(ctx context.Context) (*transfer.Executor, error) {
	backend, err := registry().Open(ctx, a.settings.Backend, a.settings.Remote, remote.Options{
		PartSize: a.settings.PartSize,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}

	session := remote.NewSession(backend, remote.WithSessionLogger(a.logger))
	if err := session.Authenticate(ctx); err != nil {
		return nil, err
	}

	return transfer.New(session,
		transfer.WithObserver(a.observer()),
		transfer.WithLogger(a.logger),
		transfer.WithMetrics(a.metrics),
		transfer.WithSpanManager(a.spans),
	), nil
}

func (a *app) observer() progress.Observer {
	switch a.settings.Progress {
	case config.ProgressLog:
		return progress.NewLog(a.logger, 0)
	case config.ProgressNone:
		return progress.Nop{}
	default:
		return progress.NewBar(a.stderr)
	}
}

// ledger opens the SQLite ledger, or an in-memory one when no path is set.
func (a *app) ledger() (ledger.Store, error) {
	if a.settings.LedgerPath == "" {
		return ledger.NewMemoryStore(), nil
	}
	return ledger.NewSQLiteStore(a.settings.LedgerPath)
}

// newFlags returns a flag set for a subcommand writing usage to stderr.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseArgs(fs *flag.FlagSet, args []string, lo, hi int, usage string) error {
	if err := fs.Parse(args); err != nil {
		return ckerr.Misuse(fs.Name(), err.Error())
	}
	if fs.NArg() < lo || fs.NArg() > hi {
		return ckerr.Misuse(fs.Name(), "usage: ckptsync "+fs.Name()+" "+usage)
	}
	return nil
}
