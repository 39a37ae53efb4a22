package objstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/ashureev/neurosync/internal/shared"
	"google.golang.org/api/option"
)

// GCSStore stores objects in a Google Cloud Storage (Firebase Storage) bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig holds configuration for GCSStore.
type GCSConfig struct {
	Bucket         string
	Prefix         string
	CredentialJSON string // service account key; empty uses application default credentials
	Endpoint       string // optional emulator endpoint
}

// NewGCSStore creates a GCS-backed store.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialJSON)))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Save uploads data to the bucket.
func (s *GCSStore) Save(ctx context.Context, key string, data []byte, contentType string) shared.Result[string] {
	objectPath := s.prefix + key
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return shared.ErrFrom[string](shared.KindStorage, fmt.Errorf("gcs write %s: %w", objectPath, err))
	}
	if err := w.Close(); err != nil {
		return shared.ErrFrom[string](shared.KindStorage, fmt.Errorf("gcs close %s: %w", objectPath, err))
	}
	return shared.Ok(objectPath)
}

// SignedURL issues a V4 signed GET URL. Signing needs a service account key or
// IAM signBlob permission on the runtime identity.
func (s *GCSStore) SignedURL(_ context.Context, key string, expiry time.Duration) shared.Result[string] {
	objectPath := s.prefix + key
	url, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return shared.ErrFrom[string](shared.KindStorage, fmt.Errorf("gcs sign %s: %w", objectPath, err))
	}
	return shared.Ok(url)
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
