package blobstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryBackend is an in-process Backend used as the test double for the
// object store. Uploaded blobs resolve to mem:// URLs.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	payload     []byte
	contentType string
}

// NewMemoryBackend creates an empty in-memory blob backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string]memoryBlob)}
}

func (b *MemoryBackend) Put(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if body == nil {
		return "", fmt.Errorf("object body is required")
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read blob source: %w", err)
	}

	b.mu.Lock()
	b.blobs[key] = memoryBlob{payload: payload, contentType: contentType}
	b.mu.Unlock()
	return "mem://" + key, nil
}

// Blob returns the stored payload and content type for a key, primarily for
// test assertions.
func (b *MemoryBackend) Blob(key string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, "", false
	}
	return blob.payload, blob.contentType, true
}
