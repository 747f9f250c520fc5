// Package api defines the wire-level types of the strom record export
// service: the Record model, record identifiers, and the structured
// error format returned on non-streaming endpoints.
//
// Streamed responses are JSON arrays of Record values with the
// application/stream+json media type, signalling to clients that the
// body should be parsed incrementally rather than buffered whole.
package api
