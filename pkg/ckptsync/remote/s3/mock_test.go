package s3_test

import (
	"context"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockAPI implements s3.API with overridable function fields.
type mockAPI struct {
	HeadBucketFunc              func(context.Context, *awss3.HeadBucketInput) (*awss3.HeadBucketOutput, error)
	ListObjectsV2Func           func(context.Context, *awss3.ListObjectsV2Input) (*awss3.ListObjectsV2Output, error)
	HeadObjectFunc              func(context.Context, *awss3.HeadObjectInput) (*awss3.HeadObjectOutput, error)
	GetObjectFunc               func(context.Context, *awss3.GetObjectInput) (*awss3.GetObjectOutput, error)
	PutObjectFunc               func(context.Context, *awss3.PutObjectInput) (*awss3.PutObjectOutput, error)
	DeleteObjectFunc            func(context.Context, *awss3.DeleteObjectInput) (*awss3.DeleteObjectOutput, error)
	CreateMultipartUploadFunc   func(context.Context, *awss3.CreateMultipartUploadInput) (*awss3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *awss3.UploadPartInput) (*awss3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *awss3.CompleteMultipartUploadInput) (*awss3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *awss3.AbortMultipartUploadInput) (*awss3.AbortMultipartUploadOutput, error)
}

func (m *mockAPI) HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, _ ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	if m.HeadBucketFunc != nil {
		return m.HeadBucketFunc(ctx, in)
	}
	return &awss3.HeadBucketOutput{}, nil
}

func (m *mockAPI) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, in)
	}
	return &awss3.ListObjectsV2Output{}, nil
}

func (m *mockAPI) HeadObject(ctx context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, in)
	}
	return &awss3.HeadObjectOutput{}, nil
}

func (m *mockAPI) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, in)
	}
	return &awss3.GetObjectOutput{}, nil
}

func (m *mockAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, in)
	}
	return &awss3.PutObjectOutput{}, nil
}

func (m *mockAPI) DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	if m.DeleteObjectFunc != nil {
		return m.DeleteObjectFunc(ctx, in)
	}
	return &awss3.DeleteObjectOutput{}, nil
}

func (m *mockAPI) CreateMultipartUpload(
	ctx context.Context,
	in *awss3.CreateMultipartUploadInput,
	_ ...func(*awss3.Options),
) (*awss3.CreateMultipartUploadOutput, error) {
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, in)
	}
	return &awss3.CreateMultipartUploadOutput{}, nil
}

func (m *mockAPI) UploadPart(ctx context.Context, in *awss3.UploadPartInput, _ ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, in)
	}
	return &awss3.UploadPartOutput{}, nil
}

func (m *mockAPI) CompleteMultipartUpload(
	ctx context.Context,
	in *awss3.CompleteMultipartUploadInput,
	_ ...func(*awss3.Options),
) (*awss3.CompleteMultipartUploadOutput, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, in)
	}
	return &awss3.CompleteMultipartUploadOutput{}, nil
}

func (m *mockAPI) AbortMultipartUpload(
	ctx context.Context,
	in *awss3.AbortMultipartUploadInput,
	_ ...func(*awss3.Options),
) (*awss3.AbortMultipartUploadOutput, error) {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, in)
	}
	return &awss3.AbortMultipartUploadOutput{}, nil
}
