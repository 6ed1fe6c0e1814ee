package storage

import (
	"context"
	"fmt"

	"teamline/internal/config"
)

// NewFromConfig creates a Store implementation based on the storage config type.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageType {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		return NewFileSystemStore(cfg.StorageRoot)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
