package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/strom-dev/strom/pkg/observability"
	"github.com/strom-dev/strom/pkg/storage"
)

// State is the lifecycle state of a Dispatch.
type State int

const (
	// StatePending means the producer has been handed over but not started.
	StatePending State = iota
	// StateRunning means the transport is executing the producer.
	StateRunning
	// StateCompleted means the full envelope was written.
	StateCompleted
	// StateFailed means the session aborted on a pull, encode, or
	// server-side error; the envelope is incomplete.
	StateFailed
	// StateCancelled means the client went away before completion.
	StateCancelled
)

// String returns the lowercase state name, used as a metric label.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Producer writes a complete response body to w, or fails trying.
// A Session's Run method is the canonical producer.
type Producer func(ctx context.Context, w io.Writer) error

// Dispatch decouples the decision to stream from the actual byte
// production. A handler builds a Dispatch (Pending) and hands it to the
// transport, which executes it (Running) whenever the output channel is
// ready — possibly on a different goroutine than the one that decided.
// The producer runs at most once. Errors never propagate to the code
// that created the dispatch; they are logged, counted, and retrievable
// via Err, and Done lets tests and callers synchronize on completion.
type Dispatch struct {
	producer Producer
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// NewDispatch creates a pending dispatch around the producer.
func NewDispatch(p Producer, logger *slog.Logger) *Dispatch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatch{
		producer: p,
		logger:   logger,
		state:    StatePending,
		done:     make(chan struct{}),
	}
}

// Run executes the producer against w and drives the state machine to a
// terminal state. A second call is a no-op logged at error level: the
// producer runs at most once per request.
func (d *Dispatch) Run(ctx context.Context, w io.Writer) {
	d.mu.Lock()
	if d.state != StatePending {
		d.mu.Unlock()
		d.logger.Error("dispatch executed more than once", slog.String("state", d.state.String()))
		return
	}
	d.state = StateRunning
	d.mu.Unlock()

	observability.StreamSessionsActive.Inc()
	start := time.Now()

	err := d.runProducer(ctx, w)

	state := classify(err)
	duration := time.Since(start)

	d.mu.Lock()
	d.state = state
	d.err = err
	d.mu.Unlock()
	close(d.done)

	observability.StreamSessionsActive.Dec()
	observability.StreamSessionsTotal.WithLabelValues(state.String()).Inc()
	observability.StreamSessionDuration.Observe(duration.Seconds())

	d.log(ctx, err, state, duration)
}

// runProducer invokes the producer, converting a panic into an error so
// a single broken session cannot take down the server.
func (d *Dispatch) runProducer(ctx context.Context, w io.Writer) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("producer panicked: %v", r)
		}
	}()
	return d.producer(ctx, w)
}

// State returns the current lifecycle state.
func (d *Dispatch) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the producer's error once the dispatch is terminal. It is
// nil while the dispatch is pending or running and after completion.
func (d *Dispatch) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Done returns a channel closed when the dispatch reaches a terminal
// state. Tests synchronize on it instead of polling State.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// classify maps a producer error to its terminal state. Client
// disconnects (rejected writes, cancelled contexts) are Cancelled;
// everything else that is not success is Failed.
func classify(err error) State {
	if err == nil {
		return StateCompleted
	}

	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return StateCancelled
	}
	if errors.Is(err, context.Canceled) {
		return StateCancelled
	}
	return StateFailed
}

// log reports the outcome at a severity matching its nature: cursor
// lifecycle violations loud, client disconnects quiet.
func (d *Dispatch) log(ctx context.Context, err error, state State, duration time.Duration) {
	attrs := []slog.Attr{
		slog.String("state", state.String()),
		slog.Duration("duration", duration),
	}

	switch {
	case err == nil:
		d.logger.LogAttrs(ctx, slog.LevelInfo, "stream session completed", attrs...)

	case errors.Is(err, storage.ErrCursorClosed):
		// A pull after release means the guard's lifecycle was violated.
		attrs = append(attrs, slog.String("error", err.Error()))
		d.logger.LogAttrs(ctx, slog.LevelError, "stream session pulled from closed cursor", attrs...)

	case state == StateCancelled:
		attrs = append(attrs, slog.String("error", err.Error()))
		d.logger.LogAttrs(ctx, slog.LevelInfo, "stream session cancelled by client", attrs...)

	default:
		attrs = append(attrs, slog.String("error", err.Error()))
		d.logger.LogAttrs(ctx, slog.LevelError, "stream session failed", attrs...)
	}
}
