package blobstore

import (
	"context"
	"fmt"
	"io"

	s3store "github.com/recordkit/recordkit/pkg/store/s3"
)

// objectStore is the slice of the S3 adapter the backend needs.
type objectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error)
	ObjectURL(key string) string
}

// S3Backend implements Backend over the S3 adapter.
type S3Backend struct {
	store objectStore
}

// NewS3Backend wraps an initialized S3 adapter.
func NewS3Backend(adapter *s3store.S3Adapter) (*S3Backend, error) {
	if adapter == nil {
		return nil, fmt.Errorf("s3 adapter is required")
	}
	return &S3Backend{store: adapter}, nil
}

// Put uploads the blob and returns its durable object URL. The URL is only
// produced after the upload is committed.
func (b *S3Backend) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if _, err := b.store.Upload(ctx, key, body, contentType, nil); err != nil {
		return "", err
	}
	return b.store.ObjectURL(key), nil
}
