// Package export plans streamed record exports. It sits between the
// transport layer and the storage backends: OpenStream validates the
// request and assembles a guard, session, and dispatch, but never
// touches the store itself. The cursor is opened later, inside the
// dispatch, by whichever goroutine the transport runs it on.
package export
