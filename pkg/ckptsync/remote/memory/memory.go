// Package memory is an in-process remote backend.
// It is used by tests, examples and dry runs. Data is lost when the
// process exits.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// DefaultChunkSize is the transfer chunk size when none is configured.
const DefaultChunkSize = 256 * 1024

type object struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Backend stores objects in a map keyed by item ID.
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	chunkSize int64
	authErr   error
	logger    *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithChunkSize sets the transfer chunk size.
func WithChunkSize(n int64) Option {
	return func(b *Backend) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithAuthError makes Authenticate fail with err.
func WithAuthError(err error) Option {
	return func(b *Backend) {
		b.authErr = err
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// New creates an empty memory backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		objects:   make(map[string]object),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Factory builds a memory backend. It reads "chunk_size" from cfg,
// falling back to opts.PartSize.
func Factory(_ context.Context, cfg config.Config, opts remote.Options) (remote.Backend, error) {
	size := cfg.Bytes("chunk_size", opts.PartSize)
	return New(WithChunkSize(size), WithLogger(opts.Logger)), nil
}

// Name implements remote.Backend.
func (b *Backend) Name() string { return "memory" }

// Authenticate implements remote.Backend.
func (b *Backend) Authenticate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.authErr
}

// List implements remote.Backend. Items are ordered by ID.
func (b *Backend) List(ctx context.Context) ([]remote.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]remote.Item, len(keys))
	for i, k := range keys {
		items[i] = remote.ItemForKey(k)
	}
	return items, nil
}

// Put stores data under key, replacing any existing object.
// A key ending in "/" creates a folder marker.
func (b *Backend) Put(key string, data []byte) {
	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = object{data: stored, modTime: time.Now().UTC()}
}

// Get returns a copy of the object stored under key.
func (b *Backend) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return nil, false
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, true
}

// ContentType returns the content type recorded for key.
func (b *Backend) ContentType(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[key].contentType
}

// Keys returns all stored keys in sorted order.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewUpload implements remote.Backend.
func (b *Backend) NewUpload(_ context.Context, req remote.UploadRequest) (remote.Upload, error) {
	if req.Name == "" {
		return nil, ckerr.Misuse("name", "upload requires a file name")
	}
	if req.Body == nil && req.Size > 0 {
		return nil, ckerr.Misuse("body", "upload requires a body")
	}
	return &upload{
		backend: b,
		item:    remote.ItemForKey(remote.Child(req.Parent, req.Name)),
		req:     req,
		buf:     make([]byte, 0, req.Size),
	}, nil
}

// NewDownload implements remote.Backend.
func (b *Backend) NewDownload(_ context.Context, item remote.Item, w io.Writer) (remote.Chunker, error) {
	if item.IsFolder() {
		return nil, ckerr.Misuse("item", "cannot download a folder")
	}

	b.mu.RLock()
	obj, ok := b.objects[item.ID]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ckerr.ErrNotFound, item.ID)
	}
	return &download{data: obj.data, w: w, chunkSize: b.chunkSize}, nil
}

// Delete implements remote.Backend.
func (b *Backend) Delete(ctx context.Context, item remote.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !item.IsFolder() {
		if _, ok := b.objects[item.ID]; !ok {
			return fmt.Errorf("%w: %s", ckerr.ErrNotFound, item.ID)
		}
		delete(b.objects, item.ID)
		return nil
	}

	removed := 0
	for k := range b.objects {
		if strings.HasPrefix(k, item.ID) {
			delete(b.objects, k)
			removed++
		}
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ckerr.ErrNotFound, item.ID)
	}
	return nil
}

type upload struct {
	backend *Backend
	item    remote.Item
	req     remote.UploadRequest
	buf     []byte
	done    bool
}

func (u *upload) NextChunk(ctx context.Context) (float64, bool, error) {
	if u.done {
		return 1, true, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	offset := int64(len(u.buf))
	n := u.req.Size - offset
	if n > u.backend.chunkSize {
		n = u.backend.chunkSize
	}
	if n > 0 {
		chunk := make([]byte, n)
		read, err := u.req.Body.ReadAt(chunk, offset)
		if err != nil && !(err == io.EOF && int64(read) == n) {
			return 0, false, fmt.Errorf("read chunk at %d: %w", offset, err)
		}
		u.buf = append(u.buf, chunk...)
	}

	if int64(len(u.buf)) < u.req.Size {
		return float64(len(u.buf)) / float64(u.req.Size), false, nil
	}

	u.backend.mu.Lock()
	u.backend.objects[u.item.ID] = object{
		data:        u.buf,
		contentType: u.req.ContentType,
		modTime:     time.Now().UTC(),
	}
	u.backend.mu.Unlock()
	u.done = true

	if u.backend.logger != nil {
		u.backend.logger.Debug("memory object stored",
			slog.String("id", u.item.ID),
			slog.Int("bytes", len(u.buf)),
		)
	}
	return 1, true, nil
}

func (u *upload) Item() remote.Item {
	return u.item
}

type download struct {
	data      []byte
	w         io.Writer
	offset    int64
	chunkSize int64
}

func (d *download) NextChunk(ctx context.Context) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	size := int64(len(d.data))
	end := d.offset + d.chunkSize
	if end > size {
		end = size
	}
	if end > d.offset {
		if _, err := d.w.Write(d.data[d.offset:end]); err != nil {
			return 0, false, fmt.Errorf("write chunk at %d: %w", d.offset, err)
		}
		d.offset = end
	}

	if d.offset >= size {
		return 1, true, nil
	}
	return float64(d.offset) / float64(size), false, nil
}
