/*
Package ckptsync keeps the single best checkpoint of a training run in sync
with a remote store.

# Overview

A Checkpointer is called once at the end of every epoch with the epoch's
metrics. A caller-supplied CompareFunc decides whether the epoch beats the
retained best; a PathFunc decides where (or whether) to save it. When an
epoch improves and has a path, the previous checkpoint is removed locally
and remotely, the model is saved, and the new file is uploaded into the
default remote folder.

At most one checkpoint is retained at any time. Replacement is
delete-old-then-save-new and is not atomic: if the upload fails after the
old file was deleted, no checkpoint is retained remotely until the next
improving epoch.

# Basic Usage

	backend := memory.New()
	session := remote.NewSession(backend)
	if err := session.Authenticate(ctx); err != nil {
	    log.Fatal(err)
	}
	exec := transfer.New(session, transfer.WithObserver(progress.NewBar(os.Stderr)))

	cp, err := ckptsync.New(ctx, ckptsync.Config{
	    Compare: ckptsync.Maximize("val_acc"),
	    Path:    ckptsync.EpochPath("model_%d.h5"),
	    Model:   model,
	    Remote:  exec,
	})
	if err != nil {
	    log.Fatal(err)
	}

	for epoch := 0; epoch < epochs; epoch++ {
	    metrics := train(epoch)
	    if _, err := cp.OnEpochEnd(ctx, epoch, metrics); err != nil {
	        log.Fatal(err)
	    }
	}

# Comparison Rule

The first epoch always becomes the best. Afterwards an epoch replaces the
best only when Compare(best, candidate) returns true, so ties keep the
earlier epoch when Compare is a strict comparison.

# Skipping Epochs

A PathFunc returning ok=false (or an empty path) still promotes the epoch
to best but performs no file operation. The previously saved file stays in
place and is removed at the next improvement that does have a path.

# Decision Ledger

WithLedger records every decision in a ledger.Store, keyed by run ID:

	store, _ := ledger.NewSQLiteStore("ledger.db")
	cp, _ := ckptsync.New(ctx, cfg, ckptsync.WithLedger(store, ""))
	// ...
	entries, _ := store.List(cp.RunID())

# Errors

New returns a *errors.MisuseError (ErrMissingCompare, ErrMissingPath,
ErrMissingModel, ErrMissingRemote) before any remote call. OnEpochEnd
propagates remote and local failures unchanged; nothing is retried.
*/
package ckptsync
