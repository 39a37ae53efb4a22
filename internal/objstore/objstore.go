// Package objstore provides report artifact storage with signed read URLs.
package objstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/config"
	"github.com/ashureev/neurosync/internal/shared"
)

// Store uploads objects and issues time-limited read URLs for them.
type Store interface {
	// Save uploads data under key and returns the full object key.
	Save(ctx context.Context, key string, data []byte, contentType string) shared.Result[string]

	// SignedURL returns a read URL for key that expires after expiry.
	SignedURL(ctx context.Context, key string, expiry time.Duration) shared.Result[string]

	// Close releases the underlying client.
	Close() error
}

// New creates the store selected by cfg.Type. It returns a nil Store and no
// error when storage is disabled.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", config.StorageNone:
		return nil, nil
	case config.StorageGCS:
		s, err := NewGCSStore(ctx, GCSConfig{
			Bucket:         cfg.Bucket,
			Prefix:         cfg.Prefix,
			CredentialJSON: cfg.CredentialJSON,
			Endpoint:       cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageS3:
		s, err := NewS3Store(ctx, S3Config{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
