package api

// Record is a single exported row. Records are immutable once produced
// by a source; the service never mutates them in flight.
type Record struct {
	ID     string `json:"id"`
	Field1 string `json:"field1"`
	Field2 string `json:"field2"`
	Field3 string `json:"field3"`
}

// StreamRequest carries the client-controlled parameters of a stream
// export. A zero Limit means the full collection is streamed.
type StreamRequest struct {
	Limit int
}
