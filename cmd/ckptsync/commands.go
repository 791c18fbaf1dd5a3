package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/board"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/transfer"
)

func runFind(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("find")
	if err := parseArgs(fs, args, 1, 1, "<name>"); err != nil {
		return err
	}
	exec, err := a.executor(ctx)
	if err != nil {
		return err
	}
	items, err := exec.Find(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(a.stdout, "%s\t%s\n", it.ID, it.Name)
	}
	return nil
}

func runUpload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("upload")
	if err := parseArgs(fs, args, 1, 2, "<path> [folder]"); err != nil {
		return err
	}
	exec, err := a.executor(ctx)
	if err != nil {
		return err
	}

	var folder *remote.Item
	if fs.NArg() == 2 {
		f, err := findFolder(ctx, exec, fs.Arg(1))
		if err != nil {
			return err
		}
		folder = &f
	}

	item, err := exec.Upload(ctx, fs.Arg(0), folder)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, item.ID)
	return nil
}

func runDownload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("download")
	if err := parseArgs(fs, args, 2, 2, "<name> <path>"); err != nil {
		return err
	}
	exec, err := a.executor(ctx)
	if err != nil {
		return err
	}
	item, err := firstMatch(ctx, exec, fs.Arg(0), false)
	if err != nil {
		return err
	}
	return exec.Download(ctx, item, fs.Arg(1))
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("delete")
	if err := parseArgs(fs, args, 1, 1, "<name>"); err != nil {
		return err
	}
	exec, err := a.executor(ctx)
	if err != nil {
		return err
	}
	item, err := firstMatch(ctx, exec, fs.Arg(0), true)
	if err != nil {
		return err
	}
	if err := exec.Delete(ctx, item); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "deleted", item.ID)
	return nil
}

// findFolder returns the first folder matching name, or a new folder item.
func findFolder(ctx context.Context, exec *transfer.Executor, name string) (remote.Item, error) {
	items, err := exec.Find(ctx, name)
	if err != nil {
		return remote.Item{}, err
	}
	for _, it := range items {
		if it.IsFolder() {
			return it, nil
		}
	}
	return remote.Folder(name), nil
}

func firstMatch(ctx context.Context, exec *transfer.Executor, name string, folders bool) (remote.Item, error) {
	items, err := exec.Find(ctx, name)
	if err != nil {
		return remote.Item{}, err
	}
	for _, it := range items {
		if folders || !it.IsFolder() {
			return it, nil
		}
	}
	return remote.Item{}, &ckerr.BackendError{Op: "find", Item: name, Err: ckerr.ErrNotFound}
}

func runHistory(_ context.Context, a *app, args []string) error {
	fs := a.newFlags("history")
	if err := parseArgs(fs, args, 1, 1, "<run-id>"); err != nil {
		return err
	}
	if a.settings.LedgerPath == "" {
		return ckerr.Misuse("ledger", "history needs a ledger path in the config")
	}
	store, err := a.ledger()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(fs.Arg(0))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPOCH\tOUTCOME\tMETRICS\tPATH\tWHEN")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.Epoch, e.Outcome, formatMetrics(e.Metrics), e.Path, humanize.Time(e.Timestamp))
	}
	return tw.Flush()
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, m[k])
	}
	return strings.Join(parts, ",")
}

// replayLine is one recorded epoch in a metrics file.
type replayLine struct {
	Epoch   int                `json:"epoch"`
	Metrics map[string]float64 `json:"metrics"`
}

// placeholderModel writes the epoch's metrics as the checkpoint body.
type placeholderModel struct {
	current replayLine
}

func (m *placeholderModel) Save(path string) error {
	data, err := json.Marshal(m.current)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runReplay(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("replay")
	metric := fs.String("metric", "val_acc", "metric to compare")
	mode := fs.String("mode", "max", "max or min")
	dir := fs.String("dir", ".", "local checkpoint directory")
	pattern := fs.String("pattern", "model_%d.ckpt", "checkpoint file name pattern")
	runID := fs.String("run", "", "run ID (generated when empty)")
	if err := parseArgs(fs, args, 1, 1, "[flags] <metrics.jsonl>"); err != nil {
		return err
	}

	var compare ckptsync.CompareFunc
	switch *mode {
	case "max":
		compare = ckptsync.Maximize(*metric)
	case "min":
		compare = ckptsync.Minimize(*metric)
	default:
		return ckerr.Misuse("mode", "must be max or min")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}

	exec, err := a.executor(ctx)
	if err != nil {
		return err
	}
	store, err := a.ledger()
	if err != nil {
		return err
	}
	defer store.Close()

	model := &placeholderModel{}
	cp, err := ckptsync.New(ctx, ckptsync.Config{
		Compare: compare,
		Path:    ckptsync.EpochPath(filepath.Join(*dir, *pattern)),
		Model:   model,
		Remote:  exec,
	},
		ckptsync.WithDefaultFolder(a.settings.DefaultFolder),
		ckptsync.WithLedger(store, *runID),
		ckptsync.WithLogger(a.logger),
		ckptsync.WithMetrics(a.metrics),
		ckptsync.WithSpanManager(a.spans),
	)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec replayLine
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("%s:%d: %w", fs.Arg(0), line, err)
		}
		model.current = rec
		outcome, err := cp.OnEpochEnd(ctx, rec.Epoch, rec.Metrics)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "epoch %d: %s\n", rec.Epoch, outcome)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if best, ok := cp.Best(); ok {
		fmt.Fprintf(a.stdout, "best epoch %d (run %s) %s\n", best.Record.Epoch, cp.RunID(), best.Path)
	}
	return nil
}

func runBoard(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("board")
	host := fs.String("host", board.DefaultHost, "listen host")
	port := fs.Int("port", board.DefaultPort, "listen port")
	bin := fs.String("bin", board.DefaultBinary, "tensorboard executable")
	if err := parseArgs(fs, args, 1, 1, "[flags] <logdir>"); err != nil {
		return err
	}

	srv, err := board.Launch(ctx, board.Options{
		Binary: *bin,
		LogDir: fs.Arg(0),
		Host:   *host,
		Port:   *port,
		Output: a.stderr,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, srv.URL())

	if err := srv.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
