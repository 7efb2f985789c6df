// Package sse implements the server-sent-event wire framing described in
// spec.md §6: optional event/id/retry lines, one or more data lines, and
// a terminating blank line, with non-string payloads compact-JSON
// encoded and multi-line string payloads split across multiple data:
// lines. Grounded on the teacher's chunked-streaming shape in
// internal/web/stream/streamer.go, specialized to the SSE wire format.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Event is one server-sent event. Data may be a string (written verbatim,
// split on newlines into multiple "data:" lines) or any other value
// (compact-JSON encoded onto a single "data:" line).
type Event struct {
	Event string
	ID    string
	Retry int // milliseconds; 0 means omit the retry: line
	Data  any
}

// Writer frames Events onto an http.ResponseWriter as text/event-stream,
// flushing after each event.
type Writer struct {
	w       *bufio.Writer
	flusher http.Flusher
}

// NewWriter prepares w for SSE streaming: sets headers and wraps it in a
// buffered writer that flushes per event.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: streaming not supported by response writer")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	return &Writer{w: bufio.NewWriter(w), flusher: flusher}, nil
}

// WriteEvent frames and flushes one event.
func (sw *Writer) WriteEvent(ev Event) error {
	if ev.Event != "" {
		fmt.Fprintf(sw.w, "event: %s\n", ev.Event)
	}
	if ev.ID != "" {
		fmt.Fprintf(sw.w, "id: %s\n", ev.ID)
	}
	if ev.Retry > 0 {
		fmt.Fprintf(sw.w, "retry: %s\n", strconv.Itoa(ev.Retry))
	}

	switch data := ev.Data.(type) {
	case nil:
		// no data: line at all — a bare event/id pair (e.g. "close").
	case string:
		for _, line := range strings.Split(data, "\n") {
			fmt.Fprintf(sw.w, "data: %s\n", line)
		}
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(sw.w, "data: %s\n", encoded)
	}

	fmt.Fprint(sw.w, "\n")
	if err := sw.w.Flush(); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}
