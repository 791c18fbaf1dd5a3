package remote

import (
	"context"
	"io"
	"log/slog"
)

// Chunker drives a transfer one chunk at a time.
type Chunker interface {
	// NextChunk transfers the next chunk. It returns the backend's
	// completion estimate in [0, 1] and whether the transfer is done.
	NextChunk(ctx context.Context) (fraction float64, done bool, err error)
}

// Upload is a chunked upload. Item is valid once NextChunk reports done.
type Upload interface {
	Chunker
	Item() Item
}

// UploadRequest describes a file to upload.
type UploadRequest struct {
	// Name is the remote file name.
	Name string
	// Parent is the destination folder. Nil uploads to the root.
	Parent *Item
	// Body supplies the file content.
	Body io.ReaderAt
	// Size is the content length in bytes.
	Size int64
	// ContentType is the detected MIME type, if known.
	ContentType string
}

// Backend is a remote file store.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Authenticate establishes the session with the store.
	Authenticate(ctx context.Context) error

	// List returns every item in the store in a stable order.
	// Object stores may omit folders that have no marker object.
	List(ctx context.Context) ([]Item, error)

	// NewUpload prepares a chunked upload.
	NewUpload(ctx context.Context, req UploadRequest) (Upload, error)

	// NewDownload prepares a chunked download of item into w.
	NewDownload(ctx context.Context, item Item, w io.Writer) (Chunker, error)

	// Delete removes the item. Deleting a folder removes its contents.
	// It wraps errors.ErrNotFound if the item does not exist.
	Delete(ctx context.Context, item Item) error
}

// Options are passed to backend factories.
type Options struct {
	// PartSize is the chunk size in bytes. Zero uses the backend default.
	PartSize int64
	// Logger receives backend diagnostics. Nil disables them.
	Logger *slog.Logger
}
