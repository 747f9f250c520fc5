// Package seed fills a record store with generated data. It backs the
// optional startup seeding used for demos and load testing, where the
// interesting part of the system is streaming a large table, not the
// table's content.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

// DefaultBatchSize is the number of records saved per batch.
const DefaultBatchSize = 500

// Seeder generates records and writes them to a store in batches.
type Seeder struct {
	store     storage.Store
	faker     *gofakeit.Faker
	batchSize int
	logger    *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithBatchSize sets the per-batch record count.
func WithBatchSize(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSeed makes generation deterministic for the given seed value.
func WithSeed(seed uint64) Option {
	return func(s *Seeder) { s.faker = gofakeit.New(seed) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// New creates a Seeder over the given store.
func New(store storage.Store, opts ...Option) *Seeder {
	s := &Seeder{
		store:     store,
		faker:     gofakeit.New(0),
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed writes count generated records to the store and returns the
// number written. Seeding is skipped entirely when the store already
// holds records, so a restart does not double the table.
func (s *Seeder) Seed(ctx context.Context, count int) (int, error) {
	existing, err := s.store.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting existing records: %w", err)
	}
	if existing > 0 {
		s.logger.Info("seeding skipped, store already populated",
			slog.Int64("existing", existing))
		return 0, nil
	}

	start := time.Now()
	written := 0
	for written < count {
		n := s.batchSize
		if remaining := count - written; remaining < n {
			n = remaining
		}

		batch := make([]*api.Record, n)
		for i := range batch {
			batch[i] = s.generate()
		}
		if err := s.store.SaveRecords(ctx, batch); err != nil {
			return written, fmt.Errorf("saving seed batch at %d: %w", written, err)
		}
		written += n
	}

	s.logger.Info("seeding complete",
		slog.Int("records", written),
		slog.Duration("duration", time.Since(start)))
	return written, nil
}

// generate produces one record with fabricated field values.
func (s *Seeder) generate() *api.Record {
	return &api.Record{
		ID:     api.NewRecordID(),
		Field1: s.faker.Name(),
		Field2: s.faker.City(),
		Field3: s.faker.Company(),
	}
}
