// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling. Export cursors run inside a
// read-only transaction so that the row set stays consistent for the
// whole stream; the transaction (and its pooled connection) is held until
// the cursor is closed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/debug"
	"github.com/strom-dev/strom/pkg/storage"
)

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Records opens a cursor over the records table inside a read-only
// transaction. The transaction and its connection are checked out of the
// pool for the lifetime of the cursor; under pool saturation this call
// blocks until a connection frees up or ctx expires.
func (s *Store) Records(ctx context.Context, opts storage.RecordsOptions) (storage.Cursor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	query := "SELECT id, field1, field2, field3 FROM records ORDER BY created_at, id"
	args := []any{}
	if opts.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, opts.Limit)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("querying records: %w", err)
	}

	debug.Log("storage", "read transaction opened", "limit", opts.Limit)
	return &cursor{rows: rows, tx: tx}, nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*api.Record, error) {
	var rec api.Record
	err := s.pool.QueryRow(ctx,
		"SELECT id, field1, field2, field3 FROM records WHERE id = $1", id,
	).Scan(&rec.ID, &rec.Field1, &rec.Field2, &rec.Field3)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	return &rec, nil
}

// SaveRecord inserts a single record.
func (s *Store) SaveRecord(ctx context.Context, rec *api.Record) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO records (id, field1, field2, field3) VALUES ($1, $2, $3, $4)",
		rec.ID, rec.Field1, rec.Field2, rec.Field3,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// SaveRecords bulk-inserts records using the PostgreSQL COPY protocol.
func (s *Store) SaveRecords(ctx context.Context, recs []*api.Record) error {
	if len(recs) == 0 {
		return nil
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"records"},
		[]string{"id", "field1", "field2", "field3"},
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			r := recs[i]
			return []any{r.ID, r.Field1, r.Field2, r.Field3}, nil
		}),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("copying records: %w", err)
	}
	return nil
}

// CountRecords returns the number of rows in the records table.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// cursor pulls rows from an open pgx result set. The enclosing read
// transaction is rolled back when the cursor is closed, returning the
// connection to the pool.
type cursor struct {
	rows   pgx.Rows
	tx     pgx.Tx
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
	if err := c.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("releasing read transaction: %w", err)
	}
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
