package s3

import (
	"context"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of the S3 client used by the backend.
type API interface {
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)

	ListObjectsV2(
		ctx context.Context,
		params *awss3.ListObjectsV2Input,
		optFns ...func(*awss3.Options),
	) (*awss3.ListObjectsV2Output, error)

	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)

	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)

	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)

	DeleteObject(
		ctx context.Context,
		params *awss3.DeleteObjectInput,
		optFns ...func(*awss3.Options),
	) (*awss3.DeleteObjectOutput, error)

	CreateMultipartUpload(
		ctx context.Context,
		params *awss3.CreateMultipartUploadInput,
		optFns ...func(*awss3.Options),
	) (*awss3.CreateMultipartUploadOutput, error)

	UploadPart(ctx context.Context, params *awss3.UploadPartInput, optFns ...func(*awss3.Options)) (*awss3.UploadPartOutput, error)

	CompleteMultipartUpload(
		ctx context.Context,
		params *awss3.CompleteMultipartUploadInput,
		optFns ...func(*awss3.Options),
	) (*awss3.CompleteMultipartUploadOutput, error)

	AbortMultipartUpload(
		ctx context.Context,
		params *awss3.AbortMultipartUploadInput,
		optFns ...func(*awss3.Options),
	) (*awss3.AbortMultipartUploadOutput, error)
}

var _ API = (*awss3.Client)(nil)
