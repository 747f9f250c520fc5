// Package stream implements the streaming response pipeline: pulling
// records lazily from a storage cursor and writing them to the client as
// an incrementally produced JSON array, while keeping the cursor's
// backing resource (transaction, pooled connection) alive for exactly
// the duration of production.
//
// The pieces are:
//
//   - Guard: acquires the cursor on first use and guarantees idempotent
//     release on every exit path. Acquisition is deliberately deferred to
//     the goroutine that produces the bytes, so the resource's lifetime
//     is tied to the producing context rather than the handler call that
//     merely scheduled it.
//   - Serializer: emits "[", per-record encodings with separators, and
//     "]", holding one record in memory at a time.
//   - Session: binds one guard, one cursor, and one output writer; runs
//     the pull/encode/write loop.
//   - Dispatch: the deferred execution wrapper with an explicit
//     Pending → Running → {Completed, Failed, Cancelled} state machine.
//
// When a session fails mid-stream, the bytes already sent form a
// truncated, syntactically incomplete array. That is inherent to
// streaming: once the envelope is open no error status can be sent, so
// the connection is closed and the failure is reported through logs and
// metrics instead. Clients of stream+json endpoints must be prepared
// for truncation.
package stream
