package stream

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/strom-dev/strom/pkg/debug"
	"github.com/strom-dev/strom/pkg/observability"
)

// SessionConfig holds optional session settings.
type SessionConfig struct {
	// MaxDuration bounds how long the session may hold its backing
	// resource. Zero means no bound beyond the caller's context.
	MaxDuration time.Duration

	// Serializer overrides the default JSON array serializer.
	Serializer *Serializer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Session is the runtime unit of one streamed export: one guard, one
// cursor, one output writer. Exactly one goroutine runs a session; the
// records are written in cursor order with no buffering across records.
type Session struct {
	guard       *Guard
	serializer  *Serializer
	maxDuration time.Duration
	logger      *slog.Logger
}

// NewSession creates a session around an unacquired guard. The cursor
// is not opened until Run executes, so the backing resource is acquired
// by the producing goroutine, not by the caller that built the session.
func NewSession(guard *Guard, cfg SessionConfig) *Session {
	s := &Session{
		guard:       guard,
		serializer:  cfg.Serializer,
		maxDuration: cfg.MaxDuration,
		logger:      cfg.Logger,
	}
	if s.serializer == nil {
		s.serializer = NewSerializer()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run acquires the cursor, streams the envelope to w, and releases the
// guard on every exit path. The error, if any, classifies the failure:
// *AcquireError before any byte was written, *EncodeError or *WriteError
// or a cursor error mid-stream, or a context error on cancellation.
func (s *Session) Run(ctx context.Context, w io.Writer) error {
	if s.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.maxDuration)
		defer cancel()
	}

	cur, err := s.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	debug.Log("stream", "record source acquired")
	defer func() {
		// The session context may already be cancelled or expired here;
		// the release must still run so the pooled connection goes back.
		if rerr := s.guard.Release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Error("releasing record source", slog.String("error", rerr.Error()))
		}
	}()

	start := time.Now()
	n, err := s.serializer.EncodeArray(ctx, w, cur)
	observability.RecordsStreamed.Add(float64(n))
	if err != nil {
		return err
	}

	s.logger.Debug("stream session completed",
		slog.Int("records", n),
		slog.Duration("duration", time.Since(start)))
	return nil
}
