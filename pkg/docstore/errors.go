package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrWrite classifies backing-store failures on create, update, and delete.
	ErrWrite = errors.New("docstore: write failed")
	// ErrNotFound classifies updates addressing a record that does not exist.
	ErrNotFound = errors.New("docstore: record not found")
	// ErrAuth classifies operations requiring an actor identity when none is available.
	ErrAuth = errors.New("docstore: missing actor identity")
	// ErrQuery classifies invalid query input and backing-store read failures.
	ErrQuery = errors.New("docstore: query failed")
	// ErrUpload classifies blob source-read and object-store write failures.
	ErrUpload = errors.New("docstore: blob upload failed")
)

// wrapErr attaches the original cause to a taxonomy sentinel. Causes already
// classified keep their classification.
func wrapErr(kind, cause error) error {
	if cause == nil {
		return kind
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
