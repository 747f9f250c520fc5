package http

import (
	"net/http/httptest"
	"testing"
)

func TestStreamWriterDefersHeadersUntilFirstWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStreamWriter(rec)

	if sw.started() {
		t.Error("started() = true before any write")
	}
	if got := rec.Header().Get("Content-Type"); got != "" {
		t.Errorf("Content-Type set before first write: %q", got)
	}

	n, err := sw.Write([]byte("["))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1 {
		t.Errorf("Write returned %d, want 1", n)
	}

	if !sw.started() {
		t.Error("started() = false after write")
	}
	if got := rec.Header().Get("Content-Type"); got != "application/stream+json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/stream+json")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-cache")
	}
}

func TestStreamWriterCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStreamWriter(rec)

	sw.Write([]byte("[1,2"))
	sw.Write([]byte(",3]"))

	if got := sw.bytesWritten(); got != 7 {
		t.Errorf("bytesWritten() = %d, want 7", got)
	}
	if got := rec.Body.String(); got != "[1,2,3]" {
		t.Errorf("body = %q, want %q", got, "[1,2,3]")
	}
}

func TestStreamWriterFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStreamWriter(rec)

	sw.Write([]byte("[]"))
	if err := sw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !rec.Flushed {
		t.Error("underlying writer was not flushed")
	}
}
