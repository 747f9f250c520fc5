package http

import (
	"net/http"
	"sync"

	"github.com/strom-dev/strom/pkg/observability"
)

// streamWriter adapts an http.ResponseWriter into the io.Writer plus
// Flush contract the stream serializer expects. Headers are deferred to
// the first write so that a stream which fails before producing any
// output can still send a regular JSON error response.
type streamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu          sync.Mutex
	wroteHeader bool
	bytes       int64
}

// newStreamWriter creates a streamWriter over w. No headers are sent
// until the first Write call.
func newStreamWriter(w http.ResponseWriter) *streamWriter {
	return &streamWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// Write sends p to the client. The first call sets the streaming
// response headers.
func (s *streamWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wroteHeader {
		s.w.Header().Set("Content-Type", "application/stream+json")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.wroteHeader = true
	}

	n, err := s.w.Write(p)
	if n > 0 {
		s.bytes += int64(n)
		observability.BytesStreamed.Add(float64(n))
	}
	return n, err
}

// Flush pushes buffered output to the client.
func (s *streamWriter) Flush() error {
	return s.rc.Flush()
}

// started reports whether any body bytes have been written. Once true,
// the response status and headers are on the wire and no error body
// can be sent.
func (s *streamWriter) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wroteHeader
}

// bytesWritten reports the number of body bytes written so far.
func (s *streamWriter) bytesWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}
