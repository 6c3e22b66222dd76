package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// testClient builds a client over a fresh memory backend with a
// deterministic clock (one second per call) and sequential ids.
func testClient(t *testing.T) (*Client, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()

	tick := 0
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seq := 0

	client, err := NewClient(backend,
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("gen-%04d", seq)
		}),
	)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client, backend
}

func TestCreate_GeneratesUniqueIDs(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		rec, err := client.Create(ctx, "users", Record{"n": i})
		if err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
		id := rec.ID()
		if id == "" {
			t.Fatal("expected a generated non-empty id")
		}
		if seen[id] {
			t.Fatalf("generated id %q twice", id)
		}
		seen[id] = true
	}
}

func TestCreate_ExplicitIDUpserts(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	first, err := client.Create(ctx, "users", Record{FieldID: "u-1", "name": "Al"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if first.ID() != "u-1" {
		t.Fatalf("id = %q, want u-1", first.ID())
	}

	// A second create with the same id overwrites, never errors.
	if _, err := client.Create(ctx, "users", Record{FieldID: "u-1", "name": "Ala"}); err != nil {
		t.Fatalf("unexpected create error on collision: %v", err)
	}

	rec, ok, err := client.GetOne(ctx, "users", "u-1")
	if err != nil || !ok {
		t.Fatalf("GetOne = (%v, %v, %v)", rec, ok, err)
	}
	if rec["name"] != "Ala" {
		t.Fatalf("name = %v, want Ala", rec["name"])
	}
}

func TestCreate_SetsCreatedAt(t *testing.T) {
	client, _ := testClient(t)

	rec, err := client.Create(context.Background(), "users", Record{"name": "Al"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, ok := rec[FieldCreatedAt].(time.Time); !ok {
		t.Fatalf("created_at = %v, want time.Time", rec[FieldCreatedAt])
	}
}

func TestCreate_DoesNotMutateInput(t *testing.T) {
	client, _ := testClient(t)

	input := Record{"name": "Al"}
	if _, err := client.Create(context.Background(), "users", input); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, ok := input[FieldID]; ok {
		t.Fatal("create mutated the caller's record")
	}
}

func TestUpdate_PartialMergePreservesOtherFields(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "users", Record{FieldID: "u-1", "a": 1, "b": "keep"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if err := client.Update(ctx, "users", "u-1", Record{"a": 2}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	rec, ok, err := client.GetOne(ctx, "users", "u-1")
	if err != nil || !ok {
		t.Fatalf("GetOne = (%v, %v, %v)", rec, ok, err)
	}
	if rec["a"] != 2 {
		t.Fatalf("a = %v, want 2", rec["a"])
	}
	if rec["b"] != "keep" {
		t.Fatalf("b = %v, want keep", rec["b"])
	}
	if rec[FieldCreatedAt] != created[FieldCreatedAt] {
		t.Fatalf("created_at changed: %v -> %v", created[FieldCreatedAt], rec[FieldCreatedAt])
	}
	if _, ok := rec[FieldUpdatedAt].(time.Time); !ok {
		t.Fatalf("updated_at = %v, want time.Time", rec[FieldUpdatedAt])
	}
}

func TestUpdate_MissingRecordIsNotFound(t *testing.T) {
	client, _ := testClient(t)

	err := client.Update(context.Background(), "users", "ghost", Record{"a": 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_CannotMoveRecordID(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	if _, err := client.Create(ctx, "users", Record{FieldID: "u-1"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := client.Update(ctx, "users", "u-1", Record{FieldID: "u-2", "a": 1}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	rec, ok, _ := client.GetOne(ctx, "users", "u-1")
	if !ok {
		t.Fatal("record vanished")
	}
	if rec.ID() != "u-1" {
		t.Fatalf("id = %q, want u-1", rec.ID())
	}
}

func TestHardDelete_ThenGetOneIsAbsentNotError(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	if _, err := client.Create(ctx, "users", Record{FieldID: "u-1"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := client.HardDelete(ctx, "users", "u-1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	rec, ok, err := client.GetOne(ctx, "users", "u-1")
	if err != nil {
		t.Fatalf("GetOne after delete must not error, got %v", err)
	}
	if ok || rec != nil {
		t.Fatalf("expected does-not-exist, got (%v, %v)", rec, ok)
	}
}

func TestHardDelete_AbsentIDIsIdempotent(t *testing.T) {
	client, _ := testClient(t)

	if err := client.HardDelete(context.Background(), "users", "never-existed"); err != nil {
		t.Fatalf("delete of absent id must succeed, got %v", err)
	}
}

func TestSoftDelete_FlagsRecordAndKeepsID(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	if _, err := client.Create(ctx, "users", Record{FieldID: "u-1", "name": "Al"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := client.SoftDelete(ctx, "users", "u-1", "admin-7"); err != nil {
		t.Fatalf("unexpected soft delete error: %v", err)
	}

	rec, ok, err := client.GetOne(ctx, "users", "u-1")
	if err != nil || !ok {
		t.Fatalf("GetOne = (%v, %v, %v)", rec, ok, err)
	}
	if rec[FieldDeleted] != true {
		t.Fatalf("deleted = %v, want true", rec[FieldDeleted])
	}
	if rec[FieldUpdatedBy] != "admin-7" {
		t.Fatalf("updated_by = %v, want admin-7", rec[FieldUpdatedBy])
	}
	if rec.ID() != "u-1" {
		t.Fatalf("id = %q, want u-1", rec.ID())
	}
	if rec["name"] != "Al" {
		t.Fatalf("name = %v, want Al (soft delete must not drop fields)", rec["name"])
	}
}

func TestSoftDelete_WithoutActorIsAuthError(t *testing.T) {
	client, _ := testClient(t)

	err := client.SoftDelete(context.Background(), "users", "u-1", "  ")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func seedAges(t *testing.T, client *Client) {
	t.Helper()
	ctx := context.Background()
	for id, age := range map[string]int{"A": 17, "B": 20, "C": 30, "D": 40} {
		if _, err := client.Create(ctx, "users", Record{FieldID: id, "age": age}); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
	}
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID()
	}
	return out
}

func TestQuery_FilterSortLimit(t *testing.T) {
	client, _ := testClient(t)
	seedAges(t, client)

	recs, err := client.Query(context.Background(), "users", QueryOptions{
		Filters: []Clause{{Field: "age", Op: OpGreater, Value: 18}},
		Sort:    Sort{Field: "age", Order: SortAsc},
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	got := ids(recs)
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Fatalf("ids = %v, want [B C]", got)
	}
}

func TestQuery_CursorResumesStrictlyAfter(t *testing.T) {
	client, _ := testClient(t)
	seedAges(t, client)
	ctx := context.Background()

	sort := Sort{Field: "age", Order: SortAsc}
	first, err := client.Query(ctx, "users", QueryOptions{
		Filters: []Clause{{Field: "age", Op: OpGreater, Value: 18}},
		Sort:    sort,
	})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if got := ids(first); len(got) != 3 || got[2] != "D" {
		t.Fatalf("ids = %v, want [B C D]", got)
	}

	// Resume after C: only D remains.
	cursor, err := EncodeCursor(first[1], sort.Field)
	if err != nil {
		t.Fatalf("unexpected cursor error: %v", err)
	}
	rest, err := client.Query(ctx, "users", QueryOptions{
		Filters: []Clause{{Field: "age", Op: OpGreater, Value: 18}},
		Sort:    sort,
		Cursor:  cursor,
	})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if got := ids(rest); len(got) != 1 || got[0] != "D" {
		t.Fatalf("ids = %v, want [D]", got)
	}
}

func TestQuery_CursorWithoutSortFailsFast(t *testing.T) {
	client, _ := testClient(t)
	seedAges(t, client)

	_, err := client.Query(context.Background(), "users", QueryOptions{Cursor: "abc"})
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
}

func TestQuery_DescendingSort(t *testing.T) {
	client, _ := testClient(t)
	seedAges(t, client)

	recs, err := client.Query(context.Background(), "users", QueryOptions{
		Sort: Sort{Field: "age", Order: SortDesc},
	})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if got := ids(recs); len(got) != 4 || got[0] != "D" || got[3] != "A" {
		t.Fatalf("ids = %v, want [D C B A]", got)
	}
}

func TestGetAll_ReturnsEveryRecord(t *testing.T) {
	client, _ := testClient(t)
	seedAges(t, client)

	recs, err := client.GetAll(context.Background(), "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("len = %d, want 4", len(recs))
	}
}

func TestGetAll_EmptyCollection(t *testing.T) {
	client, _ := testClient(t)

	recs, err := client.GetAll(context.Background(), "empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("len = %d, want 0", len(recs))
	}
}

// End-to-end scenario: create, update, read back with both timestamps.
func TestCreateUpdateRead_Scenario(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "users", Record{"name": "Al"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	id := created.ID()
	if id == "" {
		t.Fatal("expected a generated id")
	}
	t0, ok := created[FieldCreatedAt].(time.Time)
	if !ok {
		t.Fatalf("created_at = %v, want time.Time", created[FieldCreatedAt])
	}

	if err := client.Update(ctx, "users", id, Record{"name": "Ala"}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	rec, present, err := client.GetOne(ctx, "users", id)
	if err != nil || !present {
		t.Fatalf("GetOne = (%v, %v, %v)", rec, present, err)
	}
	if rec["name"] != "Ala" {
		t.Fatalf("name = %v, want Ala", rec["name"])
	}
	if rec[FieldCreatedAt] != t0 {
		t.Fatalf("created_at changed: %v -> %v", t0, rec[FieldCreatedAt])
	}
	t1, ok := rec[FieldUpdatedAt].(time.Time)
	if !ok {
		t.Fatalf("updated_at = %v, want time.Time", rec[FieldUpdatedAt])
	}
	if t1.Before(t0) {
		t.Fatalf("updated_at %v before created_at %v", t1, t0)
	}
}

func TestNewClient_RequiresBackend(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatal("expected error for nil backend")
	}
}

// failingBackend surfaces a fixed error from every operation.
type failingBackend struct{ err error }

func (f *failingBackend) Insert(context.Context, string, Record) error { return f.err }
func (f *failingBackend) Get(context.Context, string, string) (Record, bool, error) {
	return nil, false, f.err
}
func (f *failingBackend) Merge(context.Context, string, string, Record) error { return f.err }
func (f *failingBackend) Delete(context.Context, string, string) error        { return f.err }
func (f *failingBackend) Query(context.Context, string, QueryOptions) ([]Record, error) {
	return nil, f.err
}

func TestErrorClassification_PreservesCause(t *testing.T) {
	cause := errors.New("permission denied")
	client, err := NewClient(&failingBackend{err: cause})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	ctx := context.Background()

	if _, err := client.Create(ctx, "users", Record{}); !errors.Is(err, ErrWrite) || !errors.Is(err, cause) {
		t.Fatalf("create error = %v, want ErrWrite wrapping cause", err)
	}
	if err := client.Update(ctx, "users", "u-1", Record{}); !errors.Is(err, ErrWrite) || !errors.Is(err, cause) {
		t.Fatalf("update error = %v, want ErrWrite wrapping cause", err)
	}
	if err := client.HardDelete(ctx, "users", "u-1"); !errors.Is(err, ErrWrite) || !errors.Is(err, cause) {
		t.Fatalf("delete error = %v, want ErrWrite wrapping cause", err)
	}
	if _, _, err := client.GetOne(ctx, "users", "u-1"); !errors.Is(err, ErrQuery) || !errors.Is(err, cause) {
		t.Fatalf("get error = %v, want ErrQuery wrapping cause", err)
	}
	if _, err := client.Query(ctx, "users", QueryOptions{}); !errors.Is(err, ErrQuery) || !errors.Is(err, cause) {
		t.Fatalf("query error = %v, want ErrQuery wrapping cause", err)
	}
}
