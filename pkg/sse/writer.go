// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// writer for the wireline gateway. It renders the gateway's streaming chunk
// objects as `data:` events for downstream Chat Completions clients and
// terminates streams with the literal [DONE] marker those clients expect.
//
// This package intentionally does NOT provide SSE reader or client
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"encoding/json"
	"io"
)

// doneMarker is the end-of-stream sentinel of the Chat Completions dialect.
const doneMarker = "[DONE]"

// Writer emits SSE data events to an underlying io.Writer. When the
// underlying writer is one end of an io.Pipe, each event propagates to the
// client as its own chunk with natural backpressure.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent marshals v as JSON and emits it as one data event.
func (s *Writer) WriteEvent(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeData(payload)
}

// WriteDone emits the end-of-stream marker.
func (s *Writer) WriteDone() error {
	return s.writeData([]byte(doneMarker))
}

// writeData writes one `data:` line terminated by the blank line that
// delimits SSE events.
func (s *Writer) writeData(payload []byte) error {
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	_, err := s.w.Write(buf)
	return err
}
