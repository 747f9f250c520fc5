package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/strom-dev/strom/pkg/storage"
)

func TestDispatchStartsPending(t *testing.T) {
	d := NewDispatch(func(ctx context.Context, w io.Writer) error { return nil }, nil)

	if got := d.State(); got != StatePending {
		t.Errorf("initial state = %v, want %v", got, StatePending)
	}
	select {
	case <-d.Done():
		t.Error("Done closed before Run")
	default:
	}
}

func TestDispatchCompleted(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write([]byte("[]"))
		return err
	}, nil)

	d.Run(context.Background(), &buf)

	waitDone(t, d)
	if got := d.State(); got != StateCompleted {
		t.Errorf("state = %v, want %v", got, StateCompleted)
	}
	if err := d.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	if buf.String() != "[]" {
		t.Errorf("output = %q, want %q", buf.String(), "[]")
	}
}

func TestDispatchFailed(t *testing.T) {
	boom := errors.New("pull failed")
	d := NewDispatch(func(ctx context.Context, w io.Writer) error { return boom }, nil)

	d.Run(context.Background(), io.Discard)

	waitDone(t, d)
	if got := d.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
	if !errors.Is(d.Err(), boom) {
		t.Errorf("Err() = %v, want %v", d.Err(), boom)
	}
}

func TestDispatchCancelledOnWriteError(t *testing.T) {
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		return &WriteError{Err: errors.New("broken pipe")}
	}, nil)

	d.Run(context.Background(), io.Discard)

	waitDone(t, d)
	if got := d.State(); got != StateCancelled {
		t.Errorf("state = %v, want %v", got, StateCancelled)
	}
}

func TestDispatchCancelledOnContextCancel(t *testing.T) {
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		return context.Canceled
	}, nil)

	d.Run(context.Background(), io.Discard)

	waitDone(t, d)
	if got := d.State(); got != StateCancelled {
		t.Errorf("state = %v, want %v", got, StateCancelled)
	}
}

func TestDispatchFailedOnDeadline(t *testing.T) {
	// A server-imposed session timeout is a failure, not a client cancel.
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		return context.DeadlineExceeded
	}, nil)

	d.Run(context.Background(), io.Discard)

	waitDone(t, d)
	if got := d.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
}

func TestDispatchRunsProducerAtMostOnce(t *testing.T) {
	var runs int
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		runs++
		return nil
	}, nil)

	d.Run(context.Background(), io.Discard)
	d.Run(context.Background(), io.Discard)

	if runs != 1 {
		t.Errorf("producer ran %d times, want 1", runs)
	}
	if got := d.State(); got != StateCompleted {
		t.Errorf("state after duplicate Run = %v, want %v", got, StateCompleted)
	}
}

func TestDispatchRecoversProducerPanic(t *testing.T) {
	d := NewDispatch(func(ctx context.Context, w io.Writer) error {
		panic("corrupt record")
	}, nil)

	d.Run(context.Background(), io.Discard)

	waitDone(t, d)
	if got := d.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
	if d.Err() == nil {
		t.Error("Err() = nil, want panic error")
	}
}

func TestDispatchDrivesSessionAndReleasesGuard(t *testing.T) {
	// End-to-end through the pipeline: dispatch → session → guard →
	// cursor, with the dispatch executed on a separate goroutine the
	// way an output transport would.
	store := &fakeStore{records: makeRecords(20)}
	guard := NewGuard(store, storage.RecordsOptions{})
	sess := NewSession(guard, SessionConfig{})

	var buf bytes.Buffer
	d := NewDispatch(sess.Run, nil)

	go d.Run(context.Background(), &buf)

	waitDone(t, d)
	if got := d.State(); got != StateCompleted {
		t.Fatalf("state = %v, want %v", got, StateCompleted)
	}
	if !guard.Released() {
		t.Error("guard not released after completed dispatch")
	}
	if got := store.cursors[0].closeCalls; got != 1 {
		t.Errorf("cursor closed %d times, want 1", got)
	}
}

func waitDone(t *testing.T, d *Dispatch) {
	t.Helper()
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not reach a terminal state")
	}
}
