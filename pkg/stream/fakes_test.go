package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

// makeRecords builds n records with deterministic IDs and fields.
func makeRecords(n int) []*api.Record {
	recs := make([]*api.Record, n)
	for i := range recs {
		recs[i] = &api.Record{
			ID:     fmt.Sprintf("rec_%024d", i),
			Field1: fmt.Sprintf("f1-%d", i),
			Field2: fmt.Sprintf("f2-%d", i),
			Field3: fmt.Sprintf("f3-%d", i),
		}
	}
	return recs
}

// fakeStore hands out fakeCursors and records how many were opened.
type fakeStore struct {
	records []*api.Record
	openErr error

	opened  int
	cursors []*fakeCursor

	// onNext, when set, is invoked before each pull with the upcoming
	// position. Used to trigger cancellation mid-stream.
	onNext func(pos int)
}

var _ storage.Store = (*fakeStore)(nil)

func (s *fakeStore) Records(ctx context.Context, opts storage.RecordsOptions) (storage.Cursor, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened++
	cur := &fakeCursor{records: s.records, limit: opts.Limit, onNext: s.onNext}
	s.cursors = append(s.cursors, cur)
	return cur, nil
}

func (s *fakeStore) GetRecord(ctx context.Context, id string) (*api.Record, error) {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) SaveRecord(ctx context.Context, rec *api.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) SaveRecords(ctx context.Context, recs []*api.Record) error {
	s.records = append(s.records, recs...)
	return nil
}

func (s *fakeStore) CountRecords(ctx context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

func (s *fakeStore) HealthCheck(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                          { return nil }

// fakeCursor yields records and records close calls, so tests can
// assert the acquire/release pairing and ordering.
type fakeCursor struct {
	records []*api.Record
	limit   int
	pos     int

	closed     bool
	closeCalls int
	closeErr   error

	onNext func(pos int)
}

func (c *fakeCursor) Next(ctx context.Context) (*api.Record, error) {
	if c.closed {
		return nil, storage.ErrCursorClosed
	}
	if c.onNext != nil {
		c.onNext(c.pos)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.records) || (c.limit > 0 && c.pos >= c.limit) {
		return nil, io.EOF
	}
	rec := c.records[c.pos]
	c.pos++
	return rec, nil
}

func (c *fakeCursor) Close(ctx context.Context) error {
	c.closeCalls++
	c.closed = true
	return c.closeErr
}

// failingWriter rejects writes after the first failAfter bytes, the way
// a broken client connection would.
type failingWriter struct {
	failAfter int
	written   int
}

func (w *failingWriter) Write(b []byte) (int, error) {
	if w.written+len(b) > w.failAfter {
		return 0, fmt.Errorf("broken pipe")
	}
	w.written += len(b)
	return len(b), nil
}

// flushRecorder wraps a writer and counts Flush calls.
type flushRecorder struct {
	io.Writer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}
