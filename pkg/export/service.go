package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
	"github.com/strom-dev/strom/pkg/stream"
	"github.com/strom-dev/strom/pkg/transport"
)

// Config holds export service settings.
type Config struct {
	// MaxSessionDuration bounds how long a single stream session may
	// hold its cursor. Zero means no bound beyond the request context.
	MaxSessionDuration time.Duration

	// MaxLimit caps the per-request limit parameter. Zero means no cap.
	MaxLimit int

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Service plans record exports over a storage backend. It implements
// transport.RecordStreamer.
type Service struct {
	store  storage.Store
	cfg    Config
	logger *slog.Logger
}

var _ transport.RecordStreamer = (*Service)(nil)

// New creates a new export service. The store must not be nil.
func New(store storage.Store, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("export: store must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// OpenStream validates the request and returns a pending dispatch for
// it. No store access happens here: the dispatch's producer acquires
// the cursor on its own goroutine when the transport runs it.
func (s *Service) OpenStream(ctx context.Context, req *api.StreamRequest) (*stream.Dispatch, error) {
	if req == nil {
		req = &api.StreamRequest{}
	}
	if req.Limit < 0 {
		return nil, api.NewInvalidRequestError("limit", "limit must not be negative")
	}
	if s.cfg.MaxLimit > 0 && req.Limit > s.cfg.MaxLimit {
		return nil, api.NewInvalidRequestError("limit",
			fmt.Sprintf("limit must not exceed %d", s.cfg.MaxLimit))
	}

	logger := s.logger
	if rid := transport.RequestIDFromContext(ctx); rid != "" {
		logger = logger.With(slog.String("request_id", rid))
	}

	guard := stream.NewGuard(s.store, storage.RecordsOptions{Limit: req.Limit})
	session := stream.NewSession(guard, stream.SessionConfig{
		MaxDuration: s.cfg.MaxSessionDuration,
		Logger:      logger,
	})

	return stream.NewDispatch(session.Run, logger), nil
}
