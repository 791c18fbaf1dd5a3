// Package transfer moves files between the local disk and a remote
// session with progress reporting.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/observability"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/progress"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// Executor runs uploads, downloads and deletes against a session.
// Transfers are serialized so the progress observer sees one at a time.
type Executor struct {
	session  *remote.Session
	observer progress.Observer
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager

	mu sync.Mutex
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver sets the progress observer.
func WithObserver(obs progress.Observer) Option {
	return func(e *Executor) {
		e.observer = obs
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(s observability.SpanManager) Option {
	return func(e *Executor) {
		e.spans = s
	}
}

// New creates an executor over an authenticated session.
func New(session *remote.Session, opts ...Option) *Executor {
	e := &Executor{
		session:  session,
		observer: progress.Nop{},
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the underlying session.
func (e *Executor) Session() *remote.Session {
	return e.session
}

// Find returns every remote item whose name contains name.
func (e *Executor) Find(ctx context.Context, name string) ([]remote.Item, error) {
	return e.session.Find(ctx, name)
}

// Upload sends a local file into folder (nil means root) and returns the
// created item. The remote name is the file's base name.
func (e *Executor) Upload(ctx context.Context, localPath string, folder *remote.Item) (item remote.Item, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.spans.StartTransferSpan(ctx, "upload", localPath)
	defer func() { e.spans.EndSpanWithError(span, err) }()

	f, err := os.Open(localPath)
	if err != nil {
		return remote.Item{}, &ckerr.TransferError{Op: "upload", Path: localPath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return remote.Item{}, &ckerr.TransferError{Op: "upload", Path: localPath, Err: err}
	}

	contentType := ""
	if mt, mtErr := mimetype.DetectFile(localPath); mtErr == nil {
		contentType = mt.String()
	}

	name := filepath.Base(localPath)
	up, err := e.session.NewUpload(ctx, remote.UploadRequest{
		Name:        name,
		Parent:      folder,
		Body:        f,
		Size:        info.Size(),
		ContentType: contentType,
	})
	if err != nil {
		return remote.Item{}, wrapTransfer("upload", localPath, "", err)
	}

	desc := fmt.Sprintf("Uploading file %s", localPath)
	if folder != nil {
		desc = fmt.Sprintf("Uploading file %s to folder %s", localPath, folder.Name)
	}

	observability.LogTransferStart(e.logger, "upload", localPath, remote.Child(folder, name))
	elapsed := observability.TimedOperation()
	start := time.Now()

	if err := e.drive(ctx, up, desc); err != nil {
		e.metrics.RecordTransfer(ctx, "upload", 0, time.Since(start), err)
		observability.LogTransferError(e.logger, "upload", localPath, err)
		return remote.Item{}, wrapTransfer("upload", localPath, up.Item().ID, err)
	}

	item = up.Item()
	e.metrics.RecordTransfer(ctx, "upload", info.Size(), time.Since(start), nil)
	observability.LogTransferComplete(e.logger, "upload", localPath, item.ID, info.Size(), elapsed())
	return item, nil
}

// Download writes a remote file to localPath, creating parent
// directories. A failed download may leave a truncated file behind.
func (e *Executor) Download(ctx context.Context, item remote.Item, localPath string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.spans.StartTransferSpan(ctx, "download", localPath)
	defer func() { e.spans.EndSpanWithError(span, err) }()

	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ckerr.TransferError{Op: "download", Path: localPath, Item: item.ID, Err: err}
		}
	}

	f, err := os.Create(localPath)
	if err != nil {
		return &ckerr.TransferError{Op: "download", Path: localPath, Item: item.ID, Err: err}
	}
	defer f.Close()

	down, err := e.session.NewDownload(ctx, item, f)
	if err != nil {
		return wrapTransfer("download", localPath, item.ID, err)
	}

	observability.LogTransferStart(e.logger, "download", localPath, item.ID)
	elapsed := observability.TimedOperation()
	start := time.Now()

	desc := fmt.Sprintf("Downloading file %s to %s", item.Name, localPath)
	if err := e.drive(ctx, down, desc); err != nil {
		e.metrics.RecordTransfer(ctx, "download", 0, time.Since(start), err)
		observability.LogTransferError(e.logger, "download", localPath, err)
		return wrapTransfer("download", localPath, item.ID, err)
	}

	if err := f.Sync(); err != nil {
		return &ckerr.TransferError{Op: "download", Path: localPath, Item: item.ID, Err: err}
	}

	var size int64
	if info, statErr := f.Stat(); statErr == nil {
		size = info.Size()
	}
	e.metrics.RecordTransfer(ctx, "download", size, time.Since(start), nil)
	observability.LogTransferComplete(e.logger, "download", localPath, item.ID, size, elapsed())
	return nil
}

// Delete removes a remote item.
func (e *Executor) Delete(ctx context.Context, item remote.Item) (err error) {
	ctx, span := e.spans.StartTransferSpan(ctx, "delete", item.ID)
	defer func() { e.spans.EndSpanWithError(span, err) }()

	err = e.session.Delete(ctx, item)
	e.metrics.RecordDelete(ctx, err)
	if err != nil {
		return err
	}
	observability.LogRemoteDelete(e.logger, item.Name, item.ID)
	return nil
}

// drive pulls chunks until done, reporting progress on the observer.
func (e *Executor) drive(ctx context.Context, c remote.Chunker, desc string) error {
	tracker := NewTracker(e.observer, desc)
	for {
		fraction, done, err := c.NextChunk(ctx)
		if err != nil {
			tracker.Fail(err)
			return err
		}
		tracker.Report(fraction)
		if done {
			tracker.Finish()
			return nil
		}
	}
}

// wrapTransfer keeps authentication and misuse errors as they are and
// wraps everything else in a TransferError.
func wrapTransfer(op, path, item string, err error) error {
	var authErr *ckerr.AuthenticationError
	var misuse *ckerr.MisuseError
	if errors.As(err, &authErr) || errors.As(err, &misuse) {
		return err
	}
	return &ckerr.TransferError{Op: op, Path: path, Item: item, Err: err}
}
