package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/strom-dev/strom/pkg/api"
	"github.com/strom-dev/strom/pkg/storage"
)

var (
	openArray  = []byte("[")
	closeArray = []byte("]")
	separator  = []byte(",")
)

// Flusher is implemented by output writers that can push buffered bytes
// to the client. The serializer flushes after every element so clients
// of stream+json endpoints see records as they are produced.
type Flusher interface {
	Flush() error
}

// EncodeFunc converts one record to its wire representation.
type EncodeFunc func(*api.Record) ([]byte, error)

// Serializer writes a cursor's records to an output writer as a JSON
// array, element by element. It holds exactly one record in memory at a
// time; peak memory does not grow with the number of records.
type Serializer struct {
	encode EncodeFunc
}

// NewSerializer creates a Serializer using encoding/json for records.
func NewSerializer() *Serializer {
	return &Serializer{
		encode: func(rec *api.Record) ([]byte, error) {
			return json.Marshal(rec)
		},
	}
}

// WithEncoder replaces the per-record encoding function. Used by tests
// and by callers that emit a projection of the record.
func (s *Serializer) WithEncoder(enc EncodeFunc) *Serializer {
	s.encode = enc
	return s
}

// EncodeArray pulls records from cur until exhaustion and writes the
// framed array to w, returning the number of element encodings written.
//
// On error the envelope is left as-is: no closing bracket is emitted and
// no fix-up is attempted, so the client observes a truncated array and
// must treat the export as failed. Error types distinguish the cause:
// *EncodeError for a record that failed to encode (carrying its
// position), *WriteError for a rejected write, and the cursor's own
// error for a failed pull.
func (s *Serializer) EncodeArray(ctx context.Context, w io.Writer, cur storage.Cursor) (int, error) {
	if err := writeChunk(w, openArray); err != nil {
		return 0, err
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		rec, err := cur.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("pulling record %d: %w", n, err)
		}

		data, err := s.encode(rec)
		if err != nil {
			return n, &EncodeError{Position: n, Err: err}
		}

		if n > 0 {
			if err := writeChunk(w, separator); err != nil {
				return n, err
			}
		}
		if err := writeChunk(w, data); err != nil {
			return n, err
		}
		n++

		if err := flush(w); err != nil {
			return n, err
		}
	}

	if err := writeChunk(w, closeArray); err != nil {
		return n, err
	}
	return n, flush(w)
}

// writeChunk writes b fully, mapping failure to *WriteError.
func writeChunk(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// flush pushes buffered bytes to the client when the writer supports it.
func flush(w io.Writer) error {
	f, ok := w.(Flusher)
	if !ok {
		return nil
	}
	if err := f.Flush(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
