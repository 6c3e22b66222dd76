// Package docstore provides uniform record access over a backing document
// store: create, partial update, hard and soft delete, point reads, and
// filtered/sorted/paginated queries over named collections. All consistency,
// indexing, and pagination guarantees belong to the backing store; this layer
// shapes arguments, injects reserved fields, and classifies failures.
package docstore

import "context"

// Record is one addressable document: a mapping from field name to value.
type Record map[string]any

// Reserved field names the access layer may overwrite. Callers must not rely
// on setting them directly, except FieldID on create as an explicit override.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldDeleted   = "deleted"
	FieldUpdatedBy = "updated_by"
)

// ID returns the record id, or the empty string when absent or not a string.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone returns a shallow copy of the record. A nil receiver yields an empty
// record so callers can enrich it safely.
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Backend is the capability contract over the backing document store.
// Implementations: mongodoc.Backend (remote) and MemoryBackend (in-process
// fake used by tests).
type Backend interface {
	// Insert stores a record under its id, overwriting any existing record
	// with that id. The record always carries a resolved id.
	Insert(ctx context.Context, collection string, rec Record) error

	// Get returns the record at id and whether a snapshot exists. An absent
	// id is (nil, false, nil), never an error; a present-but-empty record is
	// (Record{...}, true, nil).
	Get(ctx context.Context, collection, id string) (Record, bool, error)

	// Merge applies a partial update onto the existing record, leaving fields
	// not present in fields unchanged. Returns an error satisfying
	// errors.Is(err, ErrNotFound) when no record exists at id.
	Merge(ctx context.Context, collection, id string, fields Record) error

	// Delete removes the record entirely. Deleting an absent id is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// Query runs one filtered/sorted/paginated read and returns the matching
	// records in query order.
	Query(ctx context.Context, collection string, opts QueryOptions) ([]Record, error)
}
