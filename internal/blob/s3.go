package blob

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var _ Bucket = (*S3Bucket)(nil)

// S3Bucket stores one namespace as an S3 key prefix, for deployments
// where the image pool must outlive a single host.
type S3Bucket struct {
	client *s3.Client
	bucket string
	prefix string
	name   string
}

// S3Options configures the S3-backed store.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // optional, for S3-compatible storage
}

// NewS3Store creates both namespaces against one S3 bucket.
func NewS3Store(ctx context.Context, opts S3Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		Uploads: NewS3Bucket(client, opts.Bucket, opts.Prefix, BucketUploads),
		Images:  NewS3Bucket(client, opts.Bucket, opts.Prefix, BucketImages),
	}, nil
}

func NewS3Bucket(client *s3.Client, bucket, prefix, name string) *S3Bucket {
	keyPrefix := name + "/"
	if prefix != "" {
		keyPrefix = prefix + "/" + keyPrefix
	}

	return &S3Bucket{client: client, bucket: bucket, prefix: keyPrefix, name: name}
}

func (b *S3Bucket) Name() string {
	return b.name
}

func (b *S3Bucket) key(name string) string {
	return b.prefix + name
}

func (b *S3Bucket) Put(ctx context.Context, name string, r io.Reader) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
		Body:   r,
	})
	return err
}

func (b *S3Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		return nil, err
	}

	return out.Body, nil
}

func (b *S3Bucket) Delete(ctx context.Context, name string) error {
	// S3 deletes are idempotent, a missing key is not an error
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	return err
}

func (b *S3Bucket) Exists(ctx context.Context, name string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (b *S3Bucket) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)[len(b.prefix):]
			if name == "" {
				continue
			}
			files = append(files, FileInfo{Bucket: b.name, Name: name, Size: aws.ToInt64(obj.Size)})
		}
	}

	return files, nil
}
