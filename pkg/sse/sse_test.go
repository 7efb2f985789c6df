package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEventFramesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(Event{Event: "start"}))
	require.NoError(t, w.WriteEvent(Event{Event: "update", ID: "0", Data: map[string]int{"count": 0}}))
	require.NoError(t, w.WriteEvent(Event{Event: "close", ID: "final"}))

	body := rec.Body.String()
	assert.Contains(t, body, "event: start\n\n")
	assert.Contains(t, body, "event: update\nid: 0\ndata: {\"count\":0}\n\n")
	assert.Contains(t, body, "event: close\nid: final\n\n")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestWriteEventSplitsMultilineStringData(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(Event{Data: "line one\nline two"}))

	body := rec.Body.String()
	assert.Contains(t, body, "data: line one\ndata: line two\n\n")
}
