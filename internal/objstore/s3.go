package objstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/shared"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store stores objects in an S3 (or S3-compatible) bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// S3Config holds configuration for S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	Prefix   string
}

// NewS3Store creates an S3-backed store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
	}, nil
}

// Save uploads data to the bucket.
func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) shared.Result[string] {
	objectKey := s.prefix + key
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return shared.ErrFrom[string](shared.KindStorage, fmt.Errorf("s3 put %s: %w", objectKey, err))
	}
	return shared.Ok(objectKey)
}

// SignedURL presigns a GET request for key.
func (s *S3Store) SignedURL(ctx context.Context, key string, expiry time.Duration) shared.Result[string] {
	objectKey := s.prefix + key
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return shared.ErrFrom[string](shared.KindStorage, fmt.Errorf("s3 presign %s: %w", objectKey, err))
	}
	return shared.Ok(req.URL)
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *S3Store) Close() error { return nil }
