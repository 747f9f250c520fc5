package stream

import "fmt"

// AcquireError reports that the backing resource for a session could not
// be obtained (pool exhausted, connectivity failure). The session never
// started producing and no bytes were written, so the transport may
// still send a proper error response.
type AcquireError struct {
	Err error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquiring record source: %v", e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// EncodeError reports that a specific record failed to encode.
// Position is the record's 0-based index in the stream. The error is
// fatal to the session: the envelope is left incomplete and the
// connection is closed.
type EncodeError struct {
	Position int
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding record at position %d: %v", e.Position, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// WriteError reports that the output channel rejected a write, which
// under normal operation means the client disconnected. It is expected
// behavior, not a server fault, and is logged accordingly.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing to output: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
