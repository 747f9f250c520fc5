package transport

import (
	"context"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/stream"
)

// RecordStreamer plans streamed exports. OpenStream validates the
// request and returns a pending dispatch whose producer, when executed,
// acquires a cursor and writes the full record envelope. OpenStream
// itself must not touch the backing store: the first pull happens
// inside the dispatch, in whichever goroutine the transport runs it on.
type RecordStreamer interface {
	OpenStream(ctx context.Context, req *api.StreamRequest) (*stream.Dispatch, error)
}

// RecordStreamerFunc is an adapter that allows using an ordinary
// function as a RecordStreamer.
type RecordStreamerFunc func(ctx context.Context, req *api.StreamRequest) (*stream.Dispatch, error)

// OpenStream calls f(ctx, req).
func (f RecordStreamerFunc) OpenStream(ctx context.Context, req *api.StreamRequest) (*stream.Dispatch, error) {
	return f(ctx, req)
}

// RecordReader serves point reads and health probes. Implemented by
// every storage.Store backend.
type RecordReader interface {
	// GetRecord retrieves a record by ID. Returns storage.ErrNotFound
	// if no record with that ID exists.
	GetRecord(ctx context.Context, id string) (*api.Record, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error
}
