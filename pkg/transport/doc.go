// Package transport defines the handler contracts between the HTTP
// layer and the export service, plus the middleware chain applied to
// them (recovery, request IDs, logging).
//
// The central contract is RecordStreamer: a handler does not write the
// stream itself, it returns a pending stream.Dispatch. The transport
// executes the dispatch once the client's output channel is ready,
// which keeps the backing-resource acquisition inside the producing
// call path rather than the planning one.
package transport
