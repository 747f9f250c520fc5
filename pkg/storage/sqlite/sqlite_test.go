package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	store, err := New(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "strom_test.db"),
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func seedRecords(t *testing.T, s *Store, n int) {
	t.Helper()
	recs := make([]*api.Record, n)
	for i := range recs {
		recs[i] = &api.Record{
			ID:     fmt.Sprintf("rec_%024d", i),
			Field1: fmt.Sprintf("f1-%d", i),
			Field2: fmt.Sprintf("f2-%d", i),
			Field3: fmt.Sprintf("f3-%d", i),
		}
	}
	if err := s.SaveRecords(context.Background(), recs); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
}

func drain(t *testing.T, ctx context.Context, cur storage.Cursor) []*api.Record {
	t.Helper()
	var recs []*api.Record
	for {
		rec, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			return recs
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		recs = append(recs, rec)
	}
}

func TestRecordsCursor(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	seedRecords(t, store, 25)

	cur, err := store.Records(ctx, storage.RecordsOptions{})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	defer cur.Close(ctx)

	recs := drain(t, ctx, cur)
	if len(recs) != 25 {
		t.Fatalf("cursor yielded %d records, want 25", len(recs))
	}
	for i, rec := range recs {
		if want := fmt.Sprintf("rec_%024d", i); rec.ID != want {
			t.Errorf("record %d ID = %q, want %q", i, rec.ID, want)
		}
	}

	if _, err := cur.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next after exhaustion = %v, want io.EOF", err)
	}
}

func TestRecordsCursorLimit(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	seedRecords(t, store, 10)

	cur, err := store.Records(ctx, storage.RecordsOptions{Limit: 6})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	defer cur.Close(ctx)

	if recs := drain(t, ctx, cur); len(recs) != 6 {
		t.Errorf("cursor yielded %d records, want 6", len(recs))
	}
}

func TestCursorCloseSemantics(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	seedRecords(t, store, 3)

	cur, err := store.Records(ctx, storage.RecordsOptions{})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}

	if err := cur.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cur.Close(ctx); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if _, err := cur.Next(ctx); !errors.Is(err, storage.ErrCursorClosed) {
		t.Errorf("Next after Close = %v, want ErrCursorClosed", err)
	}
}

func TestGetRecord(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	seedRecords(t, store, 1)

	rec, err := store.GetRecord(ctx, fmt.Sprintf("rec_%024d", 0))
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Field3 != "f3-0" {
		t.Errorf("Field3 = %q, want %q", rec.Field3, "f3-0")
	}

	if _, err := store.GetRecord(ctx, "rec_missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetRecord(missing) = %v, want ErrNotFound", err)
	}
}

func TestSaveRecordConflict(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	rec := &api.Record{ID: "rec_dup"}
	if err := store.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := store.SaveRecord(ctx, rec); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate SaveRecord = %v, want ErrConflict", err)
	}
}

func TestSaveRecordsRollbackOnConflict(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	seedRecords(t, store, 1)

	err := store.SaveRecords(ctx, []*api.Record{
		{ID: "rec_new"},
		{ID: fmt.Sprintf("rec_%024d", 0)}, // conflicts with seeded row
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("SaveRecords = %v, want ErrConflict", err)
	}

	// The batch transaction rolled back; the first record must not persist.
	count, err := store.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if count != 1 {
		t.Errorf("CountRecords after failed batch = %d, want 1", count)
	}
}

func TestHealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
