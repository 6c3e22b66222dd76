package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recordkit/recordkit/pkg/blobstore"
	"github.com/recordkit/recordkit/pkg/observability/logger"
	"github.com/recordkit/recordkit/pkg/observability/metrics"
)

// Client is the record access layer. Every operation is a stateless
// pass-through to the backing store: no retries, no local recovery, no
// cross-call state. Failures surface exactly once with the cause attached.
type Client struct {
	backend Backend
	blobs   blobstore.Backend
	logger  logger.Logger
	metrics *metrics.OperationMetrics
	now     func() time.Time
	newID   func() string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithBlobStore attaches an object storage backend for blob uploads.
func WithBlobStore(blobs blobstore.Backend) Option {
	return func(c *Client) { c.blobs = blobs }
}

// WithMetrics attaches per-operation outcome counters.
func WithMetrics(m *metrics.OperationMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides server-side id generation. Used by tests.
func WithIDGenerator(newID func() string) Option {
	return func(c *Client) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewClient creates a record access client over a document backend.
func NewClient(backend Backend, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("document backend is required")
	}
	c := &Client{
		backend: backend,
		logger:  nopLogger{},
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Create stores a record. A missing or empty id gets a freshly generated
// unique id; an explicit id overwrites any existing record (upsert, no
// collision error). The layer injects created_at. Returns the stored record
// including the resolved id.
func (c *Client) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	if collection == "" {
		return nil, c.fail("create", wrapErr(ErrWrite, errors.New("collection is required")))
	}

	stored := rec.Clone()
	id := stored.ID()
	if id == "" {
		id = c.newID()
	}
	stored[FieldID] = id
	stored[FieldCreatedAt] = c.now()

	if err := c.backend.Insert(ctx, collection, stored); err != nil {
		return nil, c.fail("create", wrapErr(ErrWrite, err))
	}
	c.observe("create", nil)
	c.logger.Debug("record created", "collection", collection, "id", id)
	return stored, nil
}

// Update applies a partial merge onto the record at id, leaving absent fields
// unchanged, and injects updated_at. Returns ErrNotFound when no record
// exists at id.
func (c *Client) Update(ctx context.Context, collection, id string, fields Record) error {
	return c.merge(ctx, "update", collection, id, fields)
}

func (c *Client) merge(ctx context.Context, operation, collection, id string, fields Record) error {
	if collection == "" || id == "" {
		return c.fail(operation, wrapErr(ErrWrite, errors.New("collection and id are required")))
	}

	merged := fields.Clone()
	delete(merged, FieldID) // the id is the record's address, never merged over
	merged[FieldUpdatedAt] = c.now()

	if err := c.backend.Merge(ctx, collection, id, merged); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.fail(operation, err)
		}
		return c.fail(operation, wrapErr(ErrWrite, err))
	}
	c.observe(operation, nil)
	c.logger.Debug("record updated", "collection", collection, "id", id)
	return nil
}

// HardDelete removes the record entirely. Deleting an absent id is a no-op
// success, matching the backing store's delete semantics.
func (c *Client) HardDelete(ctx context.Context, collection, id string) error {
	if collection == "" || id == "" {
		return c.fail("hard_delete", wrapErr(ErrWrite, errors.New("collection and id are required")))
	}
	if err := c.backend.Delete(ctx, collection, id); err != nil {
		return c.fail("hard_delete", wrapErr(ErrWrite, err))
	}
	c.observe("hard_delete", nil)
	c.logger.Debug("record deleted", "collection", collection, "id", id)
	return nil
}

// SoftDelete flags the record as deleted and attributes the change to the
// acting identity. The record stays in the collection. Returns ErrAuth when
// no actor identity is supplied.
func (c *Client) SoftDelete(ctx context.Context, collection, id, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return c.fail("soft_delete", wrapErr(ErrAuth, errors.New("actor id is required for soft delete")))
	}
	return c.merge(ctx, "soft_delete", collection, id, Record{
		FieldDeleted:   true,
		FieldUpdatedBy: actorID,
	})
}

// GetOne returns the record at id and whether a snapshot exists. An absent id
// is (nil, false, nil), a does-not-exist result rather than an error.
func (c *Client) GetOne(ctx context.Context, collection, id string) (Record, bool, error) {
	if collection == "" || id == "" {
		return nil, false, c.fail("get_one", wrapErr(ErrQuery, errors.New("collection and id are required")))
	}
	rec, ok, err := c.backend.Get(ctx, collection, id)
	if err != nil {
		return nil, false, c.fail("get_one", wrapErr(ErrQuery, err))
	}
	c.observe("get_one", nil)
	return rec, ok, nil
}

// GetAll returns every record in the collection in store-default order.
func (c *Client) GetAll(ctx context.Context, collection string) ([]Record, error) {
	return c.Query(ctx, collection, QueryOptions{})
}

// Query runs one filtered/sorted/paginated read. Stages apply in fixed
// order: filters (AND, input order), sort (default ascending), cursor
// (resume strictly after, requires a sort), limit. Any failure is ErrQuery
// with no partial results.
func (c *Client) Query(ctx context.Context, collection string, opts QueryOptions) ([]Record, error) {
	if collection == "" {
		return nil, c.fail("query", wrapErr(ErrQuery, errors.New("collection is required")))
	}
	if err := opts.Validate(); err != nil {
		return nil, c.fail("query", wrapErr(ErrQuery, err))
	}
	recs, err := c.backend.Query(ctx, collection, opts)
	if err != nil {
		return nil, c.fail("query", wrapErr(ErrQuery, err))
	}
	c.observe("query", nil)
	return recs, nil
}

// UploadBlob reads binary content from a local path and stores it addressed
// by (collection, ownerID), returning the durable URL once the upload is
// committed. The content type is inferred from the file extension.
func (c *Client) UploadBlob(ctx context.Context, collection, ownerID, sourcePath string) (string, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", c.fail("upload_blob", wrapErr(ErrUpload, err))
	}
	defer src.Close()

	ext := filepath.Ext(sourcePath)
	return c.uploadBlob(ctx, collection, ownerID, ext, src, mime.TypeByExtension(ext))
}

// UploadBlobFrom stores binary content from a reader addressed by
// (collection, ownerID).
func (c *Client) UploadBlobFrom(ctx context.Context, collection, ownerID string, body io.Reader, contentType string) (string, error) {
	if body == nil {
		return "", c.fail("upload_blob", wrapErr(ErrUpload, errors.New("blob source is required")))
	}
	return c.uploadBlob(ctx, collection, ownerID, "", body, contentType)
}

func (c *Client) uploadBlob(ctx context.Context, collection, ownerID, ext string, body io.Reader, contentType string) (string, error) {
	if c.blobs == nil {
		return "", c.fail("upload_blob", wrapErr(ErrUpload, errors.New("no blob store configured")))
	}
	if collection == "" || ownerID == "" {
		return "", c.fail("upload_blob", wrapErr(ErrUpload, errors.New("collection and owner id are required")))
	}

	key := path.Join(collection, ownerID+ext)
	url, err := c.blobs.Put(ctx, key, body, contentType)
	if err != nil {
		return "", c.fail("upload_blob", wrapErr(ErrUpload, err))
	}
	c.observe("upload_blob", nil)
	c.logger.Debug("blob uploaded", "key", key, "url", url)
	return url, nil
}

func (c *Client) fail(operation string, err error) error {
	c.observe(operation, err)
	c.logger.Error("operation failed", "operation", operation, "error", err)
	return err
}

func (c *Client) observe(operation string, err error) {
	if c.metrics != nil {
		c.metrics.Record(operation, err)
	}
}

// nopLogger discards everything; the default when no logger is injected.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                        {}
func (nopLogger) Info(string, ...any)                         {}
func (nopLogger) Warn(string, ...any)                         {}
func (nopLogger) Error(string, ...any)                        {}
func (n nopLogger) With(...any) logger.Logger                 { return n }
func (n nopLogger) WithContext(context.Context) logger.Logger { return n }
