// Package blobstore provides binary blob upload behind a capability
// interface with a remote (S3) implementation and an in-memory fake.
package blobstore

import (
	"context"
	"io"
)

// Backend stores binary content under a key and returns the durable URL at
// which the content resolves once the write is committed. Implementations
// never publish a URL for a failed write.
type Backend interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
