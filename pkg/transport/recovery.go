package transport

import (
	"context"
	"fmt"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/stream"
)

// Recovery returns middleware that catches panics while planning a
// stream and converts them to server error responses. Panics inside a
// running dispatch are recovered by the dispatch itself; this guards
// the synchronous OpenStream path so the server keeps accepting new
// requests after a handler panic.
func Recovery() Middleware {
	return func(next RecordStreamer) RecordStreamer {
		return RecordStreamerFunc(func(ctx context.Context, req *api.StreamRequest) (d *stream.Dispatch, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					d = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.OpenStream(ctx, req)
		})
	}
}
