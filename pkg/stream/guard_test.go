package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/strom-dev/strom/pkg/storage"
)

func TestGuardAcquireRelease(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{records: makeRecords(3)}
	guard := NewGuard(store, storage.RecordsOptions{})

	cur, err := guard.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if cur == nil {
		t.Fatal("Acquire returned nil cursor")
	}
	if store.opened != 1 {
		t.Errorf("store opened %d cursors, want 1", store.opened)
	}

	if err := guard.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !guard.Released() {
		t.Error("Released() = false after Release")
	}
	if got := store.cursors[0].closeCalls; got != 1 {
		t.Errorf("cursor closed %d times, want 1", got)
	}
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{records: makeRecords(1)}
	guard := NewGuard(store, storage.RecordsOptions{})

	if _, err := guard.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := guard.Release(ctx); err != nil {
			t.Fatalf("Release #%d: %v", i+1, err)
		}
	}
	if got := store.cursors[0].closeCalls; got != 1 {
		t.Errorf("cursor closed %d times, want 1", got)
	}
}

func TestGuardAcquireAfterRelease(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(&fakeStore{}, storage.RecordsOptions{})

	if err := guard.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}

	_, err := guard.Acquire(ctx)
	var acquireErr *AcquireError
	if !errors.As(err, &acquireErr) {
		t.Fatalf("Acquire after Release = %v, want *AcquireError", err)
	}
	if !errors.Is(err, ErrGuardReleased) {
		t.Errorf("Acquire after Release = %v, want ErrGuardReleased", err)
	}
}

func TestGuardDoubleAcquire(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(&fakeStore{records: makeRecords(1)}, storage.RecordsOptions{})

	if _, err := guard.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if _, err := guard.Acquire(ctx); !errors.Is(err, ErrGuardAcquired) {
		t.Errorf("second Acquire = %v, want ErrGuardAcquired", err)
	}
}

func TestGuardAcquireFailure(t *testing.T) {
	ctx := context.Background()
	openErr := errors.New("pool exhausted")
	guard := NewGuard(&fakeStore{openErr: openErr}, storage.RecordsOptions{})

	_, err := guard.Acquire(ctx)
	var acquireErr *AcquireError
	if !errors.As(err, &acquireErr) {
		t.Fatalf("Acquire = %v, want *AcquireError", err)
	}
	if !errors.Is(err, openErr) {
		t.Errorf("AcquireError does not wrap the store error: %v", err)
	}

	// A failed acquisition can still be released without effect.
	if err := guard.Release(ctx); err != nil {
		t.Errorf("Release after failed Acquire = %v, want nil", err)
	}
}
