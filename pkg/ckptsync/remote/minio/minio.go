// Package minio stores checkpoints in a MinIO (or other S3-compatible)
// bucket through the minio-go low-level Core API.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/credentials"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// Part sizes. MinIO enforces the S3 5MiB minimum for non-final parts.
const (
	MinPartSize     = 5 * 1024 * 1024
	DefaultPartSize = 8 * 1024 * 1024
)

// listPageSize is the MaxKeys sent with every list request.
const listPageSize = 1000

// API is the subset of minio.Core used by the backend.
type API interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	ListObjectsV2(bucket, prefix, startAfter, continuationToken, delimiter string, maxKeys int) (minio.ListBucketV2Result, error)
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
	PutObject(
		ctx context.Context,
		bucket, object string,
		data io.Reader,
		size int64,
		md5Base64, sha256Hex string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
}

var _ API = (*minio.Core)(nil)

// Options configure a Backend.
type Options struct {
	Endpoint    string
	Bucket      string
	Region      string
	Secure      bool
	PartSize    int64
	Credentials credentials.Static
	Logger      *slog.Logger
}

// Backend is a remote.Backend over one MinIO bucket.
type Backend struct {
	api      API
	bucket   string
	partSize int64
	logger   *slog.Logger
}

// New connects a Core client to the endpoint.
func New(opts Options) (*Backend, error) {
	if opts.Endpoint == "" {
		return nil, ckerr.Misuse("endpoint", "minio backend requires an endpoint")
	}
	if opts.Bucket == "" {
		return nil, ckerr.Misuse("bucket", "minio backend requires a bucket")
	}

	core, err := minio.NewCore(opts.Endpoint, &minio.Options{
		Creds: miniocreds.NewStaticV4(
			opts.Credentials.AccessKeyID,
			opts.Credentials.SecretAccessKey,
			opts.Credentials.SessionToken,
		),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewWithAPI(core, opts), nil
}

// NewWithAPI builds a backend over an existing client.
func NewWithAPI(api API, opts Options) *Backend {
	partSize := opts.PartSize
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	if partSize < MinPartSize {
		partSize = MinPartSize
	}
	return &Backend{api: api, bucket: opts.Bucket, partSize: partSize, logger: opts.Logger}
}

// Factory builds a MinIO backend from a config section with the keys
// endpoint, bucket, region, secure, part_size and credential keys.
func Factory(ctx context.Context, cfg config.Config, opts remote.Options) (remote.Backend, error) {
	creds, err := credentials.Resolve(ctx, cfg,
		credentials.WithEnvPrefix("CKPTSYNC_MINIO"),
		credentials.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Endpoint:    cfg.String("endpoint", ""),
		Bucket:      cfg.String("bucket", ""),
		Region:      cfg.String("region", ""),
		Secure:      cfg.Bool("secure", true),
		PartSize:    cfg.Bytes("part_size", opts.PartSize),
		Credentials: creds,
		Logger:      opts.Logger,
	})
}

// Name implements remote.Backend.
func (b *Backend) Name() string { return "minio" }

// Authenticate checks the bucket exists and the credentials are accepted.
func (b *Backend) Authenticate(ctx context.Context) error {
	ok, err := b.api.BucketExists(ctx, b.bucket)
	if err != nil {
		return translateError(err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %s", ckerr.ErrNotFound, b.bucket)
	}
	return nil
}

// List implements remote.Backend.
func (b *Backend) List(ctx context.Context) ([]remote.Item, error) {
	return b.list(ctx, "")
}

func (b *Backend) list(ctx context.Context, prefix string) ([]remote.Item, error) {
	var items []remote.Item
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := b.api.ListObjectsV2(b.bucket, prefix, "", token, "", listPageSize)
		if err != nil {
			return nil, translateError(err)
		}
		for _, obj := range page.Contents {
			items = append(items, remote.ItemForKey(obj.Key))
		}
		if !page.IsTruncated || page.NextContinuationToken == "" {
			return items, nil
		}
		token = page.NextContinuationToken
	}
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
	}, nil
}

// NewDownload implements remote.Backend.
func (b *Backend) NewDownload(_ context.Context, item remote.Item, w io.Writer) (remote.Chunker, error) {
	if item.IsFolder() {
		return nil, ckerr.Misuse("item", "cannot download a folder")
	}
	return &download{backend: b, key: item.ID, w: w, size: -1}, nil
}

// Delete implements remote.Backend.
func (b *Backend) Delete(ctx context.Context, item remote.Item) error {
	keys := []string{item.ID}
	if item.IsFolder() {
		items, err := b.list(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: %s", ckerr.ErrNotFound, item.ID)
		}
		keys = keys[:0]
		for _, it := range items {
			keys = append(keys, it.ID)
		}
	} else if _, err := b.api.StatObject(ctx, b.bucket, item.ID, minio.StatObjectOptions{}); err != nil {
		return translateError(err)
	}

	for _, key := range keys {
		if err := b.api.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return translateError(err)
		}
	}
	return nil
}

type upload struct {
	backend  *Backend
	item     remote.Item
	req      remote.UploadRequest
	uploadID string
	offset   int64
	parts    []minio.CompletePart
	done     bool
}

func (u *upload) Item() remote.Item { return u.item }

func (u *upload) NextChunk(ctx context.Context) (float64, bool, error) {
	if u.done {
		return 1, true, nil
	}
	b := u.backend
	opts := minio.PutObjectOptions{ContentType: u.req.ContentType}

	if u.req.Size <= b.partSize {
		body := io.NewSectionReader(u.req.Body, 0, u.req.Size)
		if _, err := b.api.PutObject(ctx, b.bucket, u.item.ID, body, u.req.Size, "", "", opts); err != nil {
			return 0, false, translateError(err)
		}
		u.done = true
		return 1, true, nil
	}

	if u.uploadID == "" {
		id, err := b.api.NewMultipartUpload(ctx, b.bucket, u.item.ID, opts)
		if err != nil {
			return 0, false, translateError(err)
		}
		u.uploadID = id
	}

	n := u.req.Size - u.offset
	if n > b.partSize {
		n = b.partSize
	}
	partID := len(u.parts) + 1
	part, err := b.api.PutObjectPart(ctx, b.bucket, u.item.ID, u.uploadID, partID,
		io.NewSectionReader(u.req.Body, u.offset, n), n, minio.PutObjectPartOptions{})
	if err != nil {
		u.abort(ctx)
		return 0, false, translateError(err)
	}
	u.parts = append(u.parts, minio.CompletePart{PartNumber: partID, ETag: part.ETag})
	u.offset += n

	if u.offset < u.req.Size {
		return float64(u.offset) / float64(u.req.Size), false, nil
	}

	if _, err := b.api.CompleteMultipartUpload(ctx, b.bucket, u.item.ID, u.uploadID, u.parts, opts); err != nil {
		u.abort(ctx)
		return 0, false, translateError(err)
	}
	u.done = true
	return 1, true, nil
}

func (u *upload) abort(ctx context.Context) {
	err := u.backend.api.AbortMultipartUpload(context.WithoutCancel(ctx), u.backend.bucket, u.item.ID, u.uploadID)
	if err != nil && u.backend.logger != nil {
		u.backend.logger.Warn("abort multipart upload failed",
			slog.String("key", u.item.ID),
			slog.String("error", err.Error()),
		)
	}
}

type download struct {
	backend *Backend
	key     string
	w       io.Writer
	size    int64
	offset  int64
}

func (d *download) NextChunk(ctx context.Context) (float64, bool, error) {
	b := d.backend

	if d.size < 0 {
		info, err := b.api.StatObject(ctx, b.bucket, d.key, minio.StatObjectOptions{})
		if err != nil {
			return 0, false, translateError(err)
		}
		d.size = info.Size
	}
	if d.offset >= d.size {
		return 1, true, nil
	}

	end := d.offset + b.partSize - 1
	if end >= d.size {
		end = d.size - 1
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(d.offset, end); err != nil {
		return 0, false, err
	}
	body, _, _, err := b.api.GetObject(ctx, b.bucket, d.key, opts)
	if err != nil {
		return 0, false, translateError(err)
	}
	defer body.Close()

	n, err := io.Copy(d.w, body)
	if err != nil {
		return 0, false, fmt.Errorf("copy range %d-%d: %w", d.offset, end, err)
	}
	if n == 0 {
		return 0, false, fmt.Errorf("empty range %d-%d", d.offset, end)
	}
	d.offset += n

	if d.offset >= d.size {
		return 1, true, nil
	}
	return float64(d.offset) / float64(d.size), false, nil
}

// translateError maps MinIO error codes onto the ckptsync sentinels.
func translateError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchUpload", "NotFound":
		return fmt.Errorf("%w: %w", ckerr.ErrNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return fmt.Errorf("%w: %w", ckerr.ErrAccessDenied, err)
	}
	return err
}
