package storage

import (
	"context"
	"fmt"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/db"
	"github.com/debemdeboas/semantic-composer/internal/util/compression"
)

const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFS:
		return NewFSStore(cfg.Dir)
	case BackendSQLite, "":
		compressor, err := compression.New(cfg.Compression)
		if err != nil {
			return nil, err
		}
		database := db.NewSQLite(cfg.Path)
		if err := database.InitDB(); err != nil {
			return nil, err
		}
		return NewSQLStore(database, compressor), nil
	case BackendS3:
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Gzip:            cfg.Compression == compression.Gzip,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
