// Package mongodoc implements docstore.Backend over MongoDB. Records map to
// documents with the record id stored as _id; the query model translates to
// BSON filters, a sort document with an id tiebreak, and a resume-after
// cursor expressed as a tuple comparison.
package mongodoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/recordkit/recordkit/pkg/docstore"
	"github.com/recordkit/recordkit/pkg/observability/logger"
	mongostore "github.com/recordkit/recordkit/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoAPI is the slice of the MongoDB adapter the backend needs.
type mongoAPI interface {
	ReplaceOne(ctx context.Context, collection string, filter, doc interface{}) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error
	Find(ctx context.Context, collection string, filter interface{}, opts *options.FindOptions, results interface{}) error
	UpdateOne(ctx context.Context, collection string, filter, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, collection string, filter interface{}) (*mongo.DeleteResult, error)
}

// Backend adapts the MongoDB adapter to the docstore.Backend contract.
type Backend struct {
	adapter mongoAPI
	logger  logger.Logger
}

// NewBackend creates a MongoDB-backed document backend.
func NewBackend(adapter *mongostore.MongoDBAdapter, log logger.Logger) (*Backend, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &Backend{adapter: adapter, logger: log}, nil
}

func (b *Backend) Insert(ctx context.Context, collection string, rec docstore.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("record has no id")
	}
	_, err := b.adapter.ReplaceOne(ctx, collection, bson.M{"_id": id}, toDocument(rec))
	return err
}

func (b *Backend) Get(ctx context.Context, collection, id string) (docstore.Record, bool, error) {
	out := bson.M{}
	err := b.adapter.FindOne(ctx, collection, bson.M{"_id": id}, &out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return fromDocument(out), true, nil
}

func (b *Backend) Merge(ctx context.Context, collection, id string, fields docstore.Record) error {
	set := toFields(fields)
	result, err := b.adapter.UpdateOne(ctx, collection, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	// Deleting an absent id is a no-op success, so the deleted count is ignored.
	_, err := b.adapter.DeleteOne(ctx, collection, bson.M{"_id": id})
	return err
}

func (b *Backend) Query(ctx context.Context, collection string, opts docstore.QueryOptions) ([]docstore.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	filter, err := buildFilter(opts)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if opts.Sort.Field != "" {
		findOpts.SetSort(sortDocument(opts.Sort))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	var docs []bson.M
	if err := b.adapter.Find(ctx, collection, filter, findOpts, &docs); err != nil {
		return nil, err
	}

	recs := make([]docstore.Record, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, fromDocument(doc))
	}
	return recs, nil
}

// buildFilter conjoins every filter clause, and the cursor position when
// present, into one BSON filter.
func buildFilter(opts docstore.QueryOptions) (bson.M, error) {
	conds := make([]bson.M, 0, len(opts.Filters)+1)
	for _, clause := range opts.Filters {
		cond, err := clauseFilter(clause)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}

	if opts.Cursor != "" {
		key, err := docstore.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cursorFilter(opts.Sort, key))
	}

	switch len(conds) {
	case 0:
		return bson.M{}, nil
	case 1:
		return conds[0], nil
	default:
		return bson.M{"$and": conds}, nil
	}
}

func clauseFilter(clause docstore.Clause) (bson.M, error) {
	field := clause.Field
	if field == docstore.FieldID {
		field = "_id"
	}
	switch clause.Op {
	case docstore.OpEqual:
		return bson.M{field: bson.M{"$eq": clause.Value}}, nil
	case docstore.OpNotEqual:
		return bson.M{field: bson.M{"$ne": clause.Value}}, nil
	case docstore.OpLess:
		return bson.M{field: bson.M{"$lt": clause.Value}}, nil
	case docstore.OpLessOrEqual:
		return bson.M{field: bson.M{"$lte": clause.Value}}, nil
	case docstore.OpGreater:
		return bson.M{field: bson.M{"$gt": clause.Value}}, nil
	case docstore.OpGreaterOrEqual:
		return bson.M{field: bson.M{"$gte": clause.Value}}, nil
	case docstore.OpIn:
		return bson.M{field: bson.M{"$in": clause.Value}}, nil
	case docstore.OpArrayContains:
		return bson.M{field: bson.M{"$elemMatch": bson.M{"$eq": clause.Value}}}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", clause.Op)
	}
}

// cursorFilter expresses "strictly after (sortValue, id)" in the direction of
// the sort, as a tuple comparison on the sort field with _id as tiebreak.
func cursorFilter(sort docstore.Sort, key docstore.CursorKey) bson.M {
	op := "$gt"
	if sort.Direction() == docstore.SortDesc {
		op = "$lt"
	}
	return bson.M{"$or": []bson.M{
		{sort.Field: bson.M{op: key.Value}},
		{"$and": []bson.M{
			{sort.Field: bson.M{"$eq": key.Value}},
			{"_id": bson.M{op: key.ID}},
		}},
	}}
}

func sortDocument(sort docstore.Sort) bson.D {
	dir := 1
	if sort.Direction() == docstore.SortDesc {
		dir = -1
	}
	return bson.D{{Key: sort.Field, Value: dir}, {Key: "_id", Value: dir}}
}

// toDocument maps a record to its stored document, moving the id to _id.
func toDocument(rec docstore.Record) bson.M {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		if k == docstore.FieldID {
			continue
		}
		doc[k] = v
	}
	doc["_id"] = rec.ID()
	return doc
}

// toFields maps a partial update to its $set document. The id is the
// record's address and is never written as a field.
func toFields(fields docstore.Record) bson.M {
	set := make(bson.M, len(fields))
	for k, v := range fields {
		if k == docstore.FieldID {
			continue
		}
		set[k] = v
	}
	return set
}

// fromDocument maps a stored document back to a record, exposing _id as id.
func fromDocument(doc bson.M) docstore.Record {
	rec := make(docstore.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			rec[docstore.FieldID] = fmt.Sprintf("%v", v)
			continue
		}
		rec[k] = v
	}
	return rec
}
