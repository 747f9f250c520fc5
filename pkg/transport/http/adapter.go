package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/observability"
	"github.com/strom-dev/strom/pkg/storage"
	"github.com/strom-dev/strom/pkg/stream"
	"github.com/strom-dev/strom/pkg/transport"
)

// Adapter serves the record export API over HTTP. It routes requests,
// runs stream dispatches against the client connection, and serializes
// error responses for failures that happen before the first byte.
type Adapter struct {
	streamer transport.RecordStreamer
	reader   transport.RecordReader
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
}

// NewAdapter creates an HTTP adapter with the given RecordStreamer.
// The RecordReader serves point reads and health probes. Middleware is
// applied to the RecordStreamer in the given order.
func NewAdapter(streamer transport.RecordStreamer, reader transport.RecordReader, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		streamer = transport.Chain(middlewares...)(streamer)
	}

	a := &Adapter{
		streamer: streamer,
		reader:   reader,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
	}

	a.mux.HandleFunc("GET /v1/records", a.handleStreamRecords)
	a.mux.HandleFunc("GET /v1/records/{id}", a.handleGetRecord)
	a.mux.HandleFunc("DELETE /v1/streams/{request_id}", a.handleCancelStream)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to
// integrate with an http.Server or test with httptest. The returned
// handler includes HTTP-level middleware for request ID propagation
// and request metrics.
func (a *Adapter) Handler() http.Handler {
	return requestIDMiddleware(observability.MetricsMiddleware(a.mux))
}

// requestIDMiddleware assigns every request an ID, taking the client's
// X-Request-ID header when present, and echoes it on the response. The
// header is set before the handler runs so it survives streaming
// responses, whose headers go out on the first body write.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		ctx := transport.ContextWithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleStreamRecords handles GET /v1/records. The response body is a
// JSON array streamed element by element. If the stream fails after
// the first byte is written, the connection is closed mid-array and
// the client sees a truncated body; no trailing error marker is sent.
func (a *Adapter) handleStreamRecords(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseStreamRequest(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	d, err := a.streamer.OpenStream(ctx, req)
	if err != nil {
		a.writePlanError(w, err)
		return
	}

	requestID := transport.RequestIDFromContext(ctx)
	if !a.inflight.Register(requestID, cancel) {
		// A second stream reusing a request ID still in flight would
		// hijack the first one's cancellation slot.
		transport.WriteAPIError(w, api.NewInvalidRequestError("request_id", "a stream with this request ID is already running"))
		return
	}
	defer a.inflight.Remove(requestID)

	sw := newStreamWriter(w)
	d.Run(ctx, sw)

	if err := d.Err(); err != nil && !sw.started() {
		// Nothing is on the wire yet, so a regular error response
		// can still be sent.
		var acquireErr *stream.AcquireError
		if errors.As(err, &acquireErr) {
			transport.WriteAPIError(w, api.NewUnavailableError("cannot open record stream: "+acquireErr.Unwrap().Error()))
			return
		}
		transport.WriteAPIError(w, api.NewServerError(err.Error()))
	}
}

// handleGetRecord handles GET /v1/records/{id}.
func (a *Adapter) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateRecordID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed record ID"),
			http.StatusBadRequest,
		)
		return
	}

	rec, err := a.reader.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("record "+id+" not found"))
		} else {
			transport.WriteAPIError(w, api.NewServerError(err.Error()))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// handleCancelStream handles DELETE /v1/streams/{request_id}. It aborts
// a running stream session by request ID. The aborted stream's client
// sees a truncated array; this endpoint returns 204 to the caller.
func (a *Adapter) handleCancelStream(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")

	if !a.inflight.Cancel(requestID) {
		transport.WriteAPIError(w, api.NewNotFoundError("no running stream for request "+requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz handles GET /healthz. It probes the backing store so
// load balancers stop routing to an instance whose database is gone.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := a.reader.HealthCheck(r.Context()); err != nil {
		transport.WriteErrorResponse(w,
			api.NewUnavailableError("store health check failed: "+err.Error()),
			http.StatusServiceUnavailable,
		)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// parseStreamRequest extracts stream parameters from the query string.
func parseStreamRequest(r *http.Request) (*api.StreamRequest, *api.APIError) {
	req := &api.StreamRequest{}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return nil, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		req.Limit = limit
	}

	return req, nil
}

// writePlanError maps an OpenStream failure to a JSON error response.
// Planning never writes body bytes, so the full error surface is still
// available here.
func (a *Adapter) writePlanError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}
	transport.WriteAPIError(w, apiErr)
}
