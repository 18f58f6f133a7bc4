package filestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes to S3 or any S3-compatible endpoint such as Supabase
// Storage.
type S3Store struct {
	client S3API
	logger *logging.Logger
}

func NewS3Store(client S3API, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{client: client, logger: logger}
}

// NewS3Client builds a client from cfg. A non-empty endpoint switches to
// path-style addressing, which Supabase Storage and MinIO require.
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func (s *S3Store) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if err := validateUpload(bucket, path, data); err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("filestore: s3 put %s/%s: %w", bucket, path, err)
	}
	s.logger.Info("document uploaded", "bucket", bucket, "key", path, "bytes", len(data))
	return path, nil
}
