package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/matchops/arena-api/common/config"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the object-store surface the artifact pipeline depends on.
// Implemented by *Client; tests substitute in-memory fakes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Head(ctx context.Context, key string) (bool, error)
}

// Client wraps an S3-compatible bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// Options carries per-store credentials; primary and cache stores use
// independent accounts and endpoints.
type Options struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Primary holds processed replay artifacts under processed/metadata/.
var Primary *Client

// Cache is the hot-path store consulted before Primary.
var Cache *Client

// Init builds the primary and cache object-store clients from configuration.
func Init(ctx context.Context) error {
	var err error
	if Primary, err = New(ctx, Options{
		Region:          config.S3Region,
		Bucket:          config.S3Bucket,
		Endpoint:        config.S3Endpoint,
		AccessKeyID:     config.S3AccessKeyID,
		SecretAccessKey: config.S3SecretAccessKey,
	}); err != nil {
		return errors.Wrap(err, "init primary object store")
	}
	if Cache, err = New(ctx, Options{
		Region:          config.S3CacheRegion,
		Bucket:          config.S3CacheBucket,
		Endpoint:        config.S3CacheEndpoint,
		AccessKeyID:     config.S3CacheAccessKeyID,
		SecretAccessKey: config.S3CacheSecretAccessKey,
	}); err != nil {
		return errors.Wrap(err, "init cache object store")
	}
	return nil
}

// New builds a client for a single bucket.
func New(ctx context.Context, opt Options) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opt.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opt.AccessKeyID, opt.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opt.Endpoint != "" {
			o.BaseEndpoint = aws.String(opt.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Client{s3: cli, bucket: opt.Bucket}, nil
}

// Get fetches an object's full body, returning ErrNotFound for missing keys.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get s3://%s/%s", c.bucket, key)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read s3://%s/%s", c.bucket, key)
	}
	return body, nil
}

// Put uploads an object. Writes are idempotent: artifact keys embed the
// match id and salt, so repeated uploads carry identical content.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return errors.Wrapf(err, "put s3://%s/%s", c.bucket, key)
}

// Head reports whether an object exists without fetching it.
func (c *Client) Head(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "head s3://%s/%s", c.bucket, key)
	}
	return true, nil
}
