// Package factory selects and initializes document and blob backends from
// configuration.
package factory

import (
	"fmt"
	"strings"

	"github.com/recordkit/recordkit/pkg/blobstore"
	"github.com/recordkit/recordkit/pkg/config"
	"github.com/recordkit/recordkit/pkg/docstore"
	"github.com/recordkit/recordkit/pkg/docstore/mongodoc"
	"github.com/recordkit/recordkit/pkg/observability/logger"
	"github.com/recordkit/recordkit/pkg/store"
	mongostore "github.com/recordkit/recordkit/pkg/store/mongodb"
	s3store "github.com/recordkit/recordkit/pkg/store/s3"
)

// NewDocumentBackend initializes the configured document backend. The
// returned store.Adapter owns the underlying connection and must be closed
// by the caller; it is nil for the in-memory backend.
func NewDocumentBackend(cfg config.DatabaseConfig, log logger.Logger) (docstore.Backend, store.Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.DatabaseTypeMongoDB:
		adapter, err := mongostore.NewMongoDBAdapter(mongostore.Config{
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		backend, err := mongodoc.NewBackend(adapter, log)
		if err != nil {
			_ = adapter.Close()
			return nil, nil, err
		}
		return backend, adapter, nil
	case config.DatabaseTypeMemory:
		return docstore.NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database.type %q (supported: mongodb, memory)", cfg.Type)
	}
}

// NewBlobBackend initializes the configured blob backend, or (nil, nil, nil)
// when object storage is disabled.
func NewBlobBackend(cfg config.ObjectStorageConfig, log logger.Logger) (blobstore.Backend, store.Adapter, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	storageType := strings.ToLower(strings.TrimSpace(cfg.Type))
	if storageType == "" {
		storageType = config.ObjectStorageTypeS3
	}

	switch storageType {
	case config.ObjectStorageTypeS3:
		adapter, err := s3store.NewS3Adapter(s3store.Config{
			Bucket:           cfg.S3.Bucket,
			Region:           cfg.S3.Region,
			Endpoint:         cfg.S3.Endpoint,
			AccessKeyID:      cfg.S3.AccessKeyID,
			SecretAccessKey:  cfg.S3.SecretAccessKey,
			SessionToken:     cfg.S3.SessionToken,
			UsePathStyle:     cfg.S3.UsePathStyle,
			PublicBaseURL:    cfg.S3.PublicBaseURL,
			OperationTimeout: cfg.S3.OperationTimeout,
			PresignExpiry:    cfg.S3.PresignExpiry,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		backend, err := blobstore.NewS3Backend(adapter)
		if err != nil {
			_ = adapter.Close()
			return nil, nil, err
		}
		return backend, adapter, nil
	case config.ObjectStorageTypeMemory:
		return blobstore.NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported object_storage.type %q (supported: s3, memory)", cfg.Type)
	}
}
