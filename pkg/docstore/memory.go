package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBackend is an in-process Backend used as the test double for the
// remote store. It mirrors the backing store's contracts: upsert-by-id
// writes, idempotent deletes, AND-conjoined filters, stable sort with id
// tiebreak, and resume-after cursor pagination.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]map[string]Record)}
}

func (b *MemoryBackend) Insert(_ context.Context, collection string, rec Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("record has no id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.collections[collection]
	if !ok {
		coll = make(map[string]Record)
		b.collections[collection] = coll
	}
	coll[id] = rec.Clone()
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, collection, id string) (Record, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.collections[collection][id]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (b *MemoryBackend) Merge(_ context.Context, collection, id string, fields Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	merged := rec.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	b.collections[collection][id] = merged
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.collections[collection], id)
	return nil
}

func (b *MemoryBackend) Query(_ context.Context, collection string, opts QueryOptions) ([]Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	matched := make([]Record, 0, len(b.collections[collection]))
	for _, rec := range b.collections[collection] {
		if matchesAll(rec, opts.Filters) {
			matched = append(matched, rec.Clone())
		}
	}
	b.mu.RUnlock()

	sortRecords(matched, opts.Sort)

	if opts.Cursor != "" {
		key, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		matched = afterCursor(matched, opts.Sort, key)
	}

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func matchesAll(rec Record, clauses []Clause) bool {
	for _, clause := range clauses {
		if !matches(rec, clause) {
			return false
		}
	}
	return true
}

func matches(rec Record, clause Clause) bool {
	got := rec[clause.Field]
	switch clause.Op {
	case OpEqual:
		return equalValues(got, clause.Value)
	case OpNotEqual:
		return !equalValues(got, clause.Value)
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		c, ok := compareValues(got, clause.Value)
		if !ok {
			return false
		}
		switch clause.Op {
		case OpLess:
			return c < 0
		case OpLessOrEqual:
			return c <= 0
		case OpGreater:
			return c > 0
		default:
			return c >= 0
		}
	case OpIn:
		for _, candidate := range elements(clause.Value) {
			if equalValues(got, candidate) {
				return true
			}
		}
		return false
	case OpArrayContains:
		for _, element := range elements(got) {
			if equalValues(element, clause.Value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// sortRecords orders records by the sort field in the requested direction
// with the record id as tiebreak, yielding the total order cursors resume in.
// Without an explicit sort the store-default order is by id ascending.
func sortRecords(recs []Record, s Sort) {
	field := s.Field
	desc := s.Direction() == SortDesc
	sort.SliceStable(recs, func(i, j int) bool {
		c := 0
		if field != "" {
			c = orderValues(recs[i][field], recs[j][field])
		}
		if c == 0 {
			c = strings.Compare(recs[i].ID(), recs[j].ID())
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// afterCursor drops every record at or before the cursor position in the
// current sort order. The cursor record itself need not still exist.
func afterCursor(recs []Record, s Sort, key CursorKey) []Record {
	desc := s.Direction() == SortDesc
	out := recs[:0]
	for _, rec := range recs {
		c := orderValues(rec[s.Field], key.Value)
		if c == 0 {
			c = strings.Compare(rec.ID(), key.ID)
		}
		if desc {
			c = -c
		}
		if c > 0 {
			out = append(out, rec)
		}
	}
	return out
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func rankOf(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case time.Time:
		return rankTime
	case string:
		return rankString
	default:
		return rankOther
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// compareValues compares two scalar values of the same rank. The boolean is
// false when the values have no meaningful relational order.
func compareValues(a, b any) (int, bool) {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb || ra == rankOther {
		return 0, false
	}
	switch ra {
	case rankNil:
		return 0, true
	case rankBool:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0, true
		case bv:
			return -1, true
		default:
			return 1, true
		}
	case rankNumber:
		av, bv := asFloat(a), asFloat(b)
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case rankTime:
		av, bv := a.(time.Time), b.(time.Time)
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		default:
			return 0, true
		}
	default:
		return strings.Compare(a.(string), b.(string)), true
	}
}

// orderValues is the total order used for sorting and cursors: mixed ranks
// order by rank, values without a relational order compare equal.
func orderValues(a, b any) int {
	if ra, rb := rankOf(a), rankOf(b); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return 0
}

func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// elements flattens a slice value of any element type; non-slices yield nil.
func elements(v any) []any {
	if v == nil {
		return nil
	}
	if direct, ok := v.([]any); ok {
		return direct
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
