package storage

import (
	"context"

	"github.com/strom-dev/strom/pkg/api"
)

// RecordsOptions controls a cursor opened by Store.Records.
type RecordsOptions struct {
	// Limit caps the number of records the cursor yields. Zero means
	// no cap: the cursor runs to the end of the collection.
	Limit int
}

// Cursor is a pull-based handle over a sequence of records.
//
// Next returns the next record in store order, io.EOF once the sequence
// is exhausted (and on every pull thereafter), or ErrCursorClosed after
// Close has been called. A cursor is not restartable; a new export needs
// a new cursor.
//
// Close releases the backing resource (rows, transaction, pooled
// connection). It is idempotent: calling it a second time is a no-op
// returning nil.
type Cursor interface {
	Next(ctx context.Context) (*api.Record, error)
	Close(ctx context.Context) error
}

// Store is a record collection that can be read incrementally.
//
// Records opens a cursor over the collection. For the database backends
// this checks a connection out of the pool and begins a read transaction
// that stays open until the cursor is closed; under pool saturation the
// call blocks or fails, which callers must treat as an expected operating
// condition rather than a fault.
type Store interface {
	// Records opens a cursor over the collection in store order.
	Records(ctx context.Context, opts RecordsOptions) (Cursor, error)

	// GetRecord retrieves a single record by ID. Returns ErrNotFound if
	// no record with that ID exists.
	GetRecord(ctx context.Context, id string) (*api.Record, error)

	// SaveRecord persists a record. Returns ErrConflict if the ID is taken.
	SaveRecord(ctx context.Context, rec *api.Record) error

	// SaveRecords persists a batch of records in one round trip where the
	// backend supports it. Used by the startup seeder.
	SaveRecords(ctx context.Context, recs []*api.Record) error

	// CountRecords returns the number of records in the collection.
	CountRecords(ctx context.Context) (int64, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
