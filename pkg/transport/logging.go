package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/stream"
)

// Logging returns middleware that emits structured log entries for each
// opened stream. The log entry includes the request ID (from context),
// the requested limit, and the planning duration.
//
// Only the planning call is logged here; the body of the stream runs
// later inside the dispatch, which reports its own outcome. For full
// HTTP-level logging (including status codes), use HTTP-level
// middleware in the adapter.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next RecordStreamer) RecordStreamer {
		return RecordStreamerFunc(func(ctx context.Context, req *api.StreamRequest) (*stream.Dispatch, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			d, err := next.OpenStream(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.Int("limit", req.Limit),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "stream rejected", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "stream opened", attrs...)
			}

			return d, err
		})
	}
}
