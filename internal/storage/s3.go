package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Esosek/tubely/internal/metrics"
)

// ObjectStore is the object storage contract consumed by the handlers.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
}

// S3Client wraps the AWS S3 client with the bucket and timeouts it serves.
type S3Client struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
}

// NewS3Client creates an S3Client from a constructed AWS config.
func NewS3Client(awsCfg aws.Config, bucket string, timeout time.Duration) *S3Client {
	return &S3Client{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  bucket,
		timeout: timeout,
	}
}

// Upload stores an object under the given key.
func (c *S3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	metrics.ObjectStoreDuration.Observe(time.Since(start).Seconds())

	return nil
}

// HeadBucket checks that the configured bucket is reachable. Used by the
// health checker.
func (c *S3Client) HeadBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to head bucket %s: %w", c.bucket, err)
	}
	return nil
}
