// Package sqlite provides a single-file implementation of storage.Store
// backed by database/sql and the mattn/go-sqlite3 driver. It serves
// deployments that want durable records without running a PostgreSQL
// server. Export cursors run inside a transaction so the row set stays
// stable while it is being streamed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/mattn/go-sqlite3"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	field1     TEXT NOT NULL DEFAULT '',
	field2     TEXT NOT NULL DEFAULT '',
	field3     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records (created_at, id);
`

// Config holds SQLite connection settings.
type Config struct {
	// Path is the database file path. ":memory:" is accepted but only
	// safe with a single connection; prefer a file for real use.
	Path string
}

// Store is a SQLite-backed record store.
type Store struct {
	db *sql.DB
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New opens (creating if necessary) the database file and ensures the
// schema exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Records opens a cursor over the records table inside a transaction.
func (s *Store) Records(ctx context.Context, opts storage.RecordsOptions) (storage.Cursor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	query := "SELECT id, field1, field2, field3 FROM records ORDER BY created_at, id"
	args := []any{}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("querying records: %w", err)
	}

	return &cursor{rows: rows, tx: tx}, nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*api.Record, error) {
	var rec api.Record
	err := s.db.QueryRowContext(ctx,
		"SELECT id, field1, field2, field3 FROM records WHERE id = ?", id,
	).Scan(&rec.ID, &rec.Field1, &rec.Field2, &rec.Field3)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	return &rec, nil
}

// SaveRecord inserts a single record.
func (s *Store) SaveRecord(ctx context.Context, rec *api.Record) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO records (id, field1, field2, field3) VALUES (?, ?, ?, ?)",
		rec.ID, rec.Field1, rec.Field2, rec.Field3,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// SaveRecords inserts a batch of records in a single transaction with a
// prepared statement.
func (s *Store) SaveRecords(ctx context.Context, recs []*api.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (id, field1, field2, field3) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Field1, rec.Field2, rec.Field3); err != nil {
			if isConstraintViolation(err) {
				return storage.ErrConflict
			}
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// CountRecords returns the number of rows in the records table.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// cursor pulls rows from an open sql.Rows result set.
type cursor struct {
	rows   *sql.Rows
	tx     *sql.Tx
	closed bool
	done   bool
}

func (c *cursor) Next(ctx context.Context) (*api.Record, error) {
	if c.closed {
		return nil, storage.ErrCursorClosed
	}
	if c.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !c.rows.Next() {
		c.done = true
		if err := c.rows.Err(); err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		return nil, io.EOF
	}

	var rec api.Record
	if err := c.rows.Scan(&rec.ID, &rec.Field1, &rec.Field2, &rec.Field3); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}
	return &rec, nil
}

func (c *cursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.rows.Close()
	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("releasing transaction: %w", err)
	}
	return nil
}

// isConstraintViolation checks for a SQLite primary key / unique violation.
func isConstraintViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}
