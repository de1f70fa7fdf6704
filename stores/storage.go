package stores

import (
	"context"
	"fmt"

	"dnastudio/config"
	"dnastudio/core"
	"dnastudio/stores/aws"
	"dnastudio/stores/filesystem"
	"dnastudio/stores/memory"
	"dnastudio/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore opens the collection store selected by cfg.Type.
func GetStore(ctx context.Context, cfg config.Storage) (core.CollectionStore, error) {
	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	var (
		store core.CollectionStore
		err   error
	)
	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalPath
		store, err = filesystem.NewStore(cfg.LocalPath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store, err = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3Bucket
		store, err = aws.NewStore(ctx, cfg.S3Bucket, cfg.S3Prefix)
	case "", "memory":
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
