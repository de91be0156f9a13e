package storage

import (
	"context"
	"fmt"

	"s3gateway/internal/config"
	"s3gateway/internal/port"
	"s3gateway/internal/storage/memory"
	miniostorage "s3gateway/internal/storage/minio"
	s3storage "s3gateway/internal/storage/s3"
)

// New builds the ObjectStorage selected by cfg.Provider.
func New(ctx context.Context, cfg *config.StorageConfig) (port.ObjectStorage, error) {
	switch cfg.Provider {
	case config.ProviderS3, "":
		return s3storage.NewS3Client(ctx, cfg)
	case config.ProviderMinio:
		return miniostorage.NewMinioClient(cfg)
	case config.ProviderMemory:
		var opts []memory.Option
		if cfg.MemorySigningKey != "" {
			opts = append(opts, memory.WithSigningKey([]byte(cfg.MemorySigningKey)))
		}
		store, err := memory.New(cfg.MemoryBaseURL, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
