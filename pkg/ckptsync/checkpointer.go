package ckptsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/ledger"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/observability"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// Notification messages.
const (
	msgNoImprovement = "No improvement."
	msgSkipped       = "Skipping upload because path function returned no path."
	msgRemoving      = "Removing old cloud file %s"
	msgSaved         = "Saved checkpoint %s"
)

// Config holds the required collaborators of a Checkpointer.
type Config struct {
	// Compare returns true if the candidate beats the best.
	Compare CompareFunc
	// Path derives the checkpoint path of an improving epoch.
	Path PathFunc
	// Model writes the checkpoint file.
	Model Model
	// Remote uploads and deletes checkpoint files.
	Remote Remote
}

// Checkpointer keeps exactly one best checkpoint locally and remotely.
// It is safe for concurrent use; calls to OnEpochEnd are serialized.
type Checkpointer struct {
	compare CompareFunc
	path    PathFunc
	model   Model
	remote  Remote
	folder  remote.Item
	opts    options

	mu   sync.Mutex
	best *RetainedBest
}

// New validates cfg, then resolves the default remote folder.
// Missing collaborators are reported before any remote call.
func New(ctx context.Context, cfg Config, opts ...Option) (*Checkpointer, error) {
	switch {
	case cfg.Compare == nil:
		return nil, ErrMissingCompare
	case cfg.Path == nil:
		return nil, ErrMissingPath
	case cfg.Model == nil:
		return nil, ErrMissingModel
	case cfg.Remote == nil:
		return nil, ErrMissingRemote
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	c := &Checkpointer{
		compare: cfg.Compare,
		path:    cfg.Path,
		model:   cfg.Model,
		remote:  cfg.Remote,
		opts:    o,
	}

	if o.folder != nil {
		c.folder = *o.folder
		return c, nil
	}

	folder, err := resolveFolder(ctx, cfg.Remote, o.folderName)
	if err != nil {
		return nil, err
	}
	c.folder = folder
	if o.logger != nil {
		o.logger.Debug("default folder resolved",
			slog.String("run_id", o.runID),
			slog.String("folder", folder.ID),
		)
	}
	return c, nil
}

// resolveFolder returns the first folder matching name, or a new folder
// item when none exists yet.
func resolveFolder(ctx context.Context, r Remote, name string) (remote.Item, error) {
	items, err := r.Find(ctx, name)
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

// Folder returns the remote folder checkpoints are uploaded into.
func (c *Checkpointer) Folder() remote.Item {
	return c.folder
}

// RunID returns the run ID used in logs, spans and the ledger.
func (c *Checkpointer) RunID() string {
	return c.opts.runID
}

// Best returns the retained best, if any epoch has been seen.
func (c *Checkpointer) Best() (RetainedBest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.best == nil {
		return RetainedBest{}, false
	}
	return c.best.clone(), true
}

// OnEpochEnd evaluates one epoch.
//
// The first epoch, and every epoch that Compare reports as better, becomes
// the best. If Path yields a path, the previous checkpoint is deleted
// locally and remotely, the model is saved to the new path and uploaded.
// Errors abort the remaining steps and are returned as is; the best
// record has already been updated by then.
func (c *Checkpointer) OnEpochEnd(ctx context.Context, epoch int, metrics map[string]float64) (outcome Outcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.opts.spans.StartEpochSpan(ctx, c.opts.runID, epoch)
	defer func() { c.opts.spans.EndSpanWithError(span, err) }()

	logger := observability.EnrichLogger(c.opts.logger, c.opts.runID, epoch)
	candidate := EpochRecord{Epoch: epoch, Metrics: metrics}.clone()

	if c.best != nil && !c.compare(c.best.Record.clone(), candidate.clone()) {
		c.notify(logger, OutcomeNoImprovement, msgNoImprovement)
		return OutcomeNoImprovement, c.finish(ctx, logger, candidate, OutcomeNoImprovement)
	}

	var prev RetainedBest
	if c.best != nil {
		prev = *c.best
	}
	c.best = &RetainedBest{Record: candidate, Path: prev.Path, Remote: prev.Remote}

	path, ok := c.path(candidate.clone())
	if !ok || path == "" {
		c.notify(logger, OutcomeSkipped, msgSkipped)
		return OutcomeSkipped, c.finish(ctx, logger, candidate, OutcomeSkipped)
	}

	if prev.Path != "" {
		if err := c.removeOld(ctx, logger, prev); err != nil {
			return OutcomeImproved, err
		}
	}

	c.best.Path = path
	c.best.Remote = nil

	if err := c.model.Save(path); err != nil {
		return OutcomeImproved, fmt.Errorf("save checkpoint %s: %w", path, err)
	}

	folder := c.folder
	item, err := c.remote.Upload(ctx, path, &folder)
	if err != nil {
		return OutcomeImproved, err
	}
	c.best.Remote = &item

	c.notify(logger, OutcomeImproved, fmt.Sprintf(msgSaved, path))
	return OutcomeImproved, c.finish(ctx, logger, candidate, OutcomeImproved)
}

// removeOld deletes the previous checkpoint file and its remote copy.
// A local file that is already gone is ignored.
func (c *Checkpointer) removeOld(ctx context.Context, logger *slog.Logger, prev RetainedBest) error {
	if err := os.Remove(prev.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove old checkpoint %s: %w", prev.Path, err)
	}

	old, found, err := c.oldRemote(ctx, prev)
	if err != nil {
		return err
	}
	if !found {
		if logger != nil {
			logger.Warn("previous checkpoint has no remote copy", slog.String("path", prev.Path))
		}
		c.best.Path = ""
		return nil
	}

	c.notify(logger, OutcomeImproved, fmt.Sprintf(msgRemoving, old.Name))
	if err := c.remote.Delete(ctx, old); err != nil {
		return err
	}
	c.best.Path = ""
	c.best.Remote = nil
	return nil
}

// oldRemote returns the remote copy of the previous checkpoint.
//
// With WithLookupByName the first file whose name contains the old base
// name is used, wherever it lives. Otherwise the retained item is used; when
// the earlier upload failed and none was retained, only the object at the
// same key inside the default folder is accepted.
func (c *Checkpointer) oldRemote(ctx context.Context, prev RetainedBest) (remote.Item, bool, error) {
	if prev.Remote != nil && !c.opts.lookupByName {
		return *prev.Remote, true, nil
	}

	name := filepath.Base(prev.Path)
	items, err := c.remote.Find(ctx, name)
	if err != nil {
		return remote.Item{}, false, err
	}

	if c.opts.lookupByName {
		for _, it := range items {
			if !it.IsFolder() {
				return it, true, nil
			}
		}
		return remote.Item{}, false, &ckerr.BackendError{Op: "find", Item: name, Err: ErrRemoteNotFound}
	}

	want := remote.Child(&c.folder, name)
	for _, it := range items {
		if it.ID == want {
			return it, true, nil
		}
	}
	return remote.Item{}, false, nil
}

func (c *Checkpointer) notify(logger *slog.Logger, outcome Outcome, message string) {
	if logger != nil {
		logger.Info(message, slog.String("outcome", outcome.String()))
	}
	if c.opts.notifier != nil {
		c.opts.notifier(outcome, message)
	}
}

// finish records the decision in metrics, logs and the ledger.
func (c *Checkpointer) finish(ctx context.Context, logger *slog.Logger, candidate EpochRecord, outcome Outcome) error {
	c.opts.metrics.RecordEpochDecision(ctx, outcome.String())

	entry := ledger.NewEntry(c.opts.runID, candidate.Epoch, outcome.String(), candidate.Metrics)
	if outcome == OutcomeImproved {
		entry.Path = c.best.Path
		if c.best.Remote != nil {
			entry.RemoteID = c.best.Remote.ID
		}
	}
	observability.LogEpochDecision(logger, candidate.Epoch, outcome.String(), entry.Path)

	if c.opts.store == nil {
		return nil
	}
	if err := c.opts.store.Append(entry); err != nil {
		return fmt.Errorf("record epoch %d: %w", candidate.Epoch, err)
	}
	return nil
}
