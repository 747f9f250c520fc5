package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/strom-dev/strom/pkg/storage"
)

// ErrGuardReleased is returned by Acquire after the guard has been released.
var ErrGuardReleased = errors.New("guard already released")

// ErrGuardAcquired is returned by a second Acquire on the same guard.
// A guard scopes exactly one cursor to one session.
var ErrGuardAcquired = errors.New("guard already acquired")

// Guard owns the backing resource of a single stream session. The
// cursor is opened on Acquire, not when the guard is created, so the
// acquisition happens in whichever goroutine actually produces the
// output. Release closes the cursor and is safe to call any number of
// times, from any exit path.
type Guard struct {
	store storage.Store
	opts  storage.RecordsOptions

	mu       sync.Mutex
	cursor   storage.Cursor
	acquired bool
	released bool
}

// NewGuard creates an unacquired guard over the given store.
func NewGuard(store storage.Store, opts storage.RecordsOptions) *Guard {
	return &Guard{store: store, opts: opts}
}

// Acquire opens the cursor. It may block on the store's connection pool
// under contention; callers bound the wait through ctx. Acquire fails
// with ErrGuardReleased after Release and with ErrGuardAcquired if the
// guard already holds a cursor.
func (g *Guard) Acquire(ctx context.Context) (storage.Cursor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil, &AcquireError{Err: ErrGuardReleased}
	}
	if g.acquired {
		return nil, &AcquireError{Err: ErrGuardAcquired}
	}

	cur, err := g.store.Records(ctx, g.opts)
	if err != nil {
		return nil, &AcquireError{Err: err}
	}

	g.cursor = cur
	g.acquired = true
	return cur, nil
}

// Release closes the cursor, returning the backing resource to its
// pool. It is idempotent: the first call releases, every later call is
// a no-op returning nil. Releasing a guard that was never acquired just
// marks it released.
func (g *Guard) Release(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil
	}
	g.released = true

	if g.cursor == nil {
		return nil
	}
	return g.cursor.Close(ctx)
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}
