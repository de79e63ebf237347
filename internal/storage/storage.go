// Package storage holds profile avatars in an object store. MinIO and
// Google Cloud Storage backends are interchangeable.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/quizdeck/backend/config"
)

// ObjectStore defines the object operations the services use.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectStore selects and constructs the configured backend.
func NewObjectStore(ctx context.Context, cfg config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "minio":
		return NewMinioStore(cfg.Minio)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// AvatarKey is the object key for a user's profile picture.
func AvatarKey(userID string) string {
	return "avatars/" + userID
}
