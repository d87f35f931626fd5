// Package backend builds the configured storage.Store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/config"
	"kanban/internal/storage"
	"kanban/internal/storage/docstore"
	"kanban/internal/storage/filestore"
	"kanban/internal/storage/gormstore"
	"kanban/internal/storage/memstore"
	"kanban/internal/storage/objectstore"
)

// Open returns a ready store. Relational backends are migrated before they
// are returned.
func Open(ctx context.Context, env config.EnvVariables, log *slog.Logger) (storage.Store, error) {
	switch env.StorageBackend {
	case config.StorageBackendPostgres:
		return openRelational(ctx, gormstore.DialectPostgres, env.DatabaseDsn, log)

	case config.StorageBackendSqlite:
		return openRelational(ctx, gormstore.DialectSqlite, env.SqlitePath, log)

	case config.StorageBackendFile:
		driver, err := filestore.NewDriver(env.DataDir)
		if err != nil {
			return nil, err
		}

		log.Info("Using file storage", slog.String("dir", env.DataDir))
		return docstore.NewStore(driver), nil

	case config.StorageBackendS3:
		bucket, err := objectstore.NewS3Bucket(ctx, objectstore.S3Config{
			Bucket:   env.S3Bucket,
			Region:   env.S3Region,
			Endpoint: env.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}

		store := docstore.NewStore(objectstore.NewDriver(bucket, env.S3Prefix, "s3"))
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}

		log.Info("Using s3 storage", slog.String("bucket", env.S3Bucket), slog.String("prefix", env.S3Prefix))
		return store, nil

	case config.StorageBackendMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", env.StorageBackend)
	}
}

func openRelational(ctx context.Context, dialect gormstore.Dialect, dsn string, log *slog.Logger) (storage.Store, error) {
	store, err := gormstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, log); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}
