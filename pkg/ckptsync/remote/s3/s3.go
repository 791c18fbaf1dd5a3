// Package s3 stores checkpoints in an S3 bucket (or an S3-compatible
// endpoint such as LocalStack).
//
// Object keys are item IDs. Folders are key prefixes; uploads into a
// folder produce "folder/name" keys. Uploads larger than one part use a
// multipart upload with one part per chunk. Downloads use ranged GETs.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/credentials"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// Part sizes. S3 rejects multipart parts (other than the last) below MinPartSize.
const (
	MinPartSize     = 5 * 1024 * 1024
	DefaultPartSize = 8 * 1024 * 1024
)

// Options configure a Backend.
type Options struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	PartSize       int64
	Credentials    credentials.Static
	Logger         *slog.Logger
}

// Backend is a remote.Backend over one S3 bucket.
type Backend struct {
	api      API
	bucket   string
	partSize int64
	logger   *slog.Logger
}

// New builds a backend from the default AWS configuration.
func New(ctx context.Context, opts Options) (*Backend, error) {
	if opts.Bucket == "" {
		return nil, ckerr.Misuse("bucket", "s3 backend requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if !opts.Credentials.IsZero() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(opts.Credentials.Provider()))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})
	return NewWithAPI(client, opts), nil
}

// NewWithAPI builds a backend over an existing client.
func NewWithAPI(api API, opts Options) *Backend {
	partSize := opts.PartSize
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	if partSize < MinPartSize {
		if opts.Logger != nil {
			opts.Logger.Warn("s3 part size below minimum, raising",
				slog.Int64("requested", partSize),
				slog.Int64("min", MinPartSize),
			)
		}
		partSize = MinPartSize
	}
	return &Backend{
		api:      api,
		bucket:   opts.Bucket,
		partSize: partSize,
		logger:   opts.Logger,
	}
}

// Factory builds an S3 backend from a config section with the keys
// bucket, region, endpoint, force_path_style, part_size and the
// credential keys understood by credentials.Resolve.
func Factory(ctx context.Context, cfg config.Config, opts remote.Options) (remote.Backend, error) {
	creds, err := credentials.Resolve(ctx, cfg,
		credentials.WithEnvPrefix("CKPTSYNC_S3"),
		credentials.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}
	return New(ctx, Options{
		Bucket:         cfg.String("bucket", ""),
		Region:         cfg.String("region", ""),
		Endpoint:       cfg.String("endpoint", ""),
		ForcePathStyle: cfg.Bool("force_path_style", false),
		PartSize:       cfg.Bytes("part_size", opts.PartSize),
		Credentials:    creds,
		Logger:         opts.Logger,
	})
}

// Name implements remote.Backend.
func (b *Backend) Name() string { return "s3" }

// PartSize returns the effective part size.
func (b *Backend) PartSize() int64 { return b.partSize }

// Authenticate checks the bucket is reachable with the configured credentials.
func (b *Backend) Authenticate(ctx context.Context) error {
	_, err := b.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// List implements remote.Backend. Keys are returned in S3 order.
func (b *Backend) List(ctx context.Context) ([]remote.Item, error) {
	return b.list(ctx, "")
}

func (b *Backend) list(ctx context.Context, prefix string) ([]remote.Item, error) {
	input := &awss3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var items []remote.Item
	paginator := awss3.NewListObjectsV2Paginator(b.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		for _, obj := range page.Contents {
			items = append(items, remote.ItemForKey(aws.ToString(obj.Key)))
		}
	}
	return items, nil
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

// Delete implements remote.Backend. S3 does not report missing keys on
// delete, so existence is checked first.
func (b *Backend) Delete(ctx context.Context, item remote.Item) error {
	if item.IsFolder() {
		items, err := b.list(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: %s", ckerr.ErrNotFound, item.ID)
		}
		for _, it := range items {
			if err := b.deleteKey(ctx, it.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := b.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(item.ID),
	}); err != nil {
		return translateError(err)
	}
	return b.deleteKey(ctx, item.ID)
}

func (b *Backend) deleteKey(ctx context.Context, key string) error {
	_, err := b.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

type upload struct {
	backend  *Backend
	item     remote.Item
	req      remote.UploadRequest
	uploadID string
	offset   int64
	parts    []types.CompletedPart
	done     bool
}

func (u *upload) Item() remote.Item { return u.item }

func (u *upload) NextChunk(ctx context.Context) (float64, bool, error) {
	if u.done {
		return 1, true, nil
	}
	b := u.backend

	if u.req.Size <= b.partSize {
		input := &awss3.PutObjectInput{
			Bucket:        aws.String(b.bucket),
			Key:           aws.String(u.item.ID),
			Body:          io.NewSectionReader(u.req.Body, 0, u.req.Size),
			ContentLength: aws.Int64(u.req.Size),
		}
		if u.req.ContentType != "" {
			input.ContentType = aws.String(u.req.ContentType)
		}
		if _, err := b.api.PutObject(ctx, input); err != nil {
			return 0, false, translateError(err)
		}
		u.done = true
		return 1, true, nil
	}

	if u.uploadID == "" {
		input := &awss3.CreateMultipartUploadInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(u.item.ID),
		}
		if u.req.ContentType != "" {
			input.ContentType = aws.String(u.req.ContentType)
		}
		out, err := b.api.CreateMultipartUpload(ctx, input)
		if err != nil {
			return 0, false, translateError(err)
		}
		u.uploadID = aws.ToString(out.UploadId)
	}

	n := u.req.Size - u.offset
	if n > b.partSize {
		n = b.partSize
	}
	partNumber := int32(len(u.parts) + 1)
	out, err := b.api.UploadPart(ctx, &awss3.UploadPartInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(u.item.ID),
		UploadId:      aws.String(u.uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          io.NewSectionReader(u.req.Body, u.offset, n),
		ContentLength: aws.Int64(n),
	})
	if err != nil {
		u.abort(ctx)
		return 0, false, translateError(err)
	}
	u.parts = append(u.parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})
	u.offset += n

	if u.offset < u.req.Size {
		return float64(u.offset) / float64(u.req.Size), false, nil
	}

	_, err = b.api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:          aws.String(b.bucket),
		Key:             aws.String(u.item.ID),
		UploadId:        aws.String(u.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: u.parts},
	})
	if err != nil {
		u.abort(ctx)
		return 0, false, translateError(err)
	}
	u.done = true
	return 1, true, nil
}

// abort releases the parts of a failed multipart upload. Errors are ignored.
func (u *upload) abort(ctx context.Context) {
	_, err := u.backend.api.AbortMultipartUpload(context.WithoutCancel(ctx), &awss3.AbortMultipartUploadInput{
		Bucket:   aws.String(u.backend.bucket),
		Key:      aws.String(u.item.ID),
		UploadId: aws.String(u.uploadID),
	})
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
		head, err := b.api.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(d.key),
		})
		if err != nil {
			return 0, false, translateError(err)
		}
		d.size = aws.ToInt64(head.ContentLength)
	}
	if d.offset >= d.size {
		return 1, true, nil
	}

	end := d.offset + b.partSize - 1
	if end >= d.size {
		end = d.size - 1
	}
	out, err := b.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(d.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", d.offset, end)),
	})
	if err != nil {
		return 0, false, translateError(err)
	}
	defer out.Body.Close()

	n, err := io.Copy(d.w, out.Body)
	if err != nil {
		return 0, false, fmt.Errorf("copy range %d-%d: %w", d.offset, end, err)
	}
	d.offset += n
	if n == 0 {
		return 0, false, fmt.Errorf("empty range %d-%d", d.offset, end)
	}

	if d.offset >= d.size {
		return 1, true, nil
	}
	return float64(d.offset) / float64(d.size), false, nil
}

// translateError maps S3 error codes onto the ckptsync sentinels.
func translateError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket", "NoSuchUpload":
		return fmt.Errorf("%w: %w", ckerr.ErrNotFound, err)
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return fmt.Errorf("%w: %w", ckerr.ErrAccessDenied, err)
	}
	return err
}
