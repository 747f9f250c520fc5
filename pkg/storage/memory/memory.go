// Package memory provides an in-memory implementation of storage.Store
// for testing and lightweight deployments. Records are stored in memory
// and lost when the process restarts.
package memory

import (
	"context"
	"io"
	"sync"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

// Store is an in-memory record store. The zero value is not usable;
// create instances with New.
type Store struct {
	mu      sync.RWMutex
	records []*api.Record
	byID    map[string]*api.Record
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new empty in-memory store.
func New() *Store {
	return &Store{
		byID: make(map[string]*api.Record),
	}
}

// Records opens a cursor over a stable snapshot of the collection.
// Appends performed after the cursor is opened are not visible to it,
// mirroring the read-transaction isolation of the database backends.
func (s *Store) Records(ctx context.Context, opts storage.RecordsOptions) (storage.Cursor, error) {
	s.mu.RLock()
	snapshot := s.records[:len(s.records):len(s.records)]
	s.mu.RUnlock()

	return &cursor{records: snapshot, limit: opts.Limit}, nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

// SaveRecord persists a record in memory.
func (s *Store) SaveRecord(ctx context.Context, rec *api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(rec)
}

// SaveRecords persists a batch of records. The batch is applied atomically:
// a conflict on any record leaves the store unchanged.
func (s *Store) SaveRecords(ctx context.Context, recs []*api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range recs {
		if _, exists := s.byID[rec.ID]; exists {
			return storage.ErrConflict
		}
	}
	for _, rec := range recs {
		if err := s.save(rec); err != nil {
			return err
		}
	}
	return nil
}

// save appends a record. Caller must hold the write lock.
func (s *Store) save(rec *api.Record) error {
	if _, exists := s.byID[rec.ID]; exists {
		return storage.ErrConflict
	}
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec
	return nil
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// cursor iterates a snapshot of the record slice. It is single-use and
// not safe for concurrent access, matching the one-producer-per-session
// model of the streaming pipeline.
type cursor struct {
	records []*api.Record
	limit   int
	pos     int
	closed  bool
}

func (c *cursor) Next(ctx context.Context) (*api.Record, error) {
	if c.closed {
		return nil, storage.ErrCursorClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.records) {
		return nil, io.EOF
	}
	if c.limit > 0 && c.pos >= c.limit {
		return nil, io.EOF
	}

	rec := c.records[c.pos]
	c.pos++
	return rec, nil
}

func (c *cursor) Close(ctx context.Context) error {
	c.closed = true
	return nil
}
