// ABOUTME: Tests for SSE segmentation and the emitter state machine.
// ABOUTME: Parses recorded event streams to verify order and terminal events.

package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"two words", "hello world", []string{"hello ", "world"}},
		{"single word", "hello", []string{"hello"}},
		{"empty", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"collapses runs", "a  b\tc", []string{"a ", "b ", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.content))
		})
	}
}

// sseEvent is one parsed event from a recorded stream.
type sseEvent struct {
	name string
	data string
}

// parseSSE parses "event: X\ndata: Y\n\n" blocks from a recorded body.
func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			}
		}
		require.NotEmpty(t, ev.name, "malformed SSE block: %q", block)
		events = append(events, ev)
	}
	return events
}

func TestEmitter_StreamResponse_HelloWorld(t *testing.T) {
	rec := httptest.NewRecorder()
	e, err := NewEmitter(rec, nil)
	require.NoError(t, err)

	e.StreamResponse(context.Background(), "msg-123", "hello world")

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)

	assert.Equal(t, EventToken, events[0].name)
	assert.JSONEq(t, `{"delta":"hello "}`, events[0].data)
	assert.Equal(t, EventToken, events[1].name)
	assert.JSONEq(t, `{"delta":"world"}`, events[1].data)

	assert.Equal(t, EventMessageEnd, events[2].name)
	var end MessageEndEvent
	require.NoError(t, json.Unmarshal([]byte(events[2].data), &end))
	assert.Equal(t, "msg-123", end.MessageID)
	assert.Equal(t, 0, end.Usage.InputTokens)
	assert.Equal(t, 2, end.Usage.OutputTokens)
}

func TestEmitter_StreamResponse_EmptyContent(t *testing.T) {
	rec := httptest.NewRecorder()
	e, err := NewEmitter(rec, nil)
	require.NoError(t, err)

	e.StreamResponse(context.Background(), "msg-empty", "")

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 1, "empty content goes straight to the terminal event")
	assert.Equal(t, EventMessageEnd, events[0].name)

	var end MessageEndEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &end))
	assert.Equal(t, 0, end.Usage.OutputTokens)
}

func TestEmitter_Error_IsTerminal(t *testing.T) {
	rec := httptest.NewRecorder()
	e, err := NewEmitter(rec, nil)
	require.NoError(t, err)

	e.Error("INTERNAL_ERROR", "engine failed", "trace-1")

	// Nothing after a terminal event
	e.StreamResponse(context.Background(), "msg-1", "should not appear")
	e.Error("INTERNAL_ERROR", "again", "trace-2")

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].name)
	assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"engine failed","trace_id":"trace-1"}`, events[0].data)
}

func TestEmitter_CancelledContext_StopsEmission(t *testing.T) {
	rec := httptest.NewRecorder()
	e, err := NewEmitter(rec, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e.StreamResponse(ctx, "msg-1", "these words never go out")

	assert.Empty(t, strings.TrimSpace(rec.Body.String()))
}

// plainWriter has no Flush; streaming must be refused before any write.
type plainWriter struct {
	header  http.Header
	written bool
}

func (w *plainWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}
func (w *plainWriter) Write([]byte) (int, error) { w.written = true; return 0, nil }
func (w *plainWriter) WriteHeader(int)           { w.written = true }

func TestNewEmitter_NoFlusher(t *testing.T) {
	w := &plainWriter{}
	_, err := NewEmitter(w, nil)
	require.ErrorIs(t, err, ErrStreamingUnsupported)
	assert.False(t, w.written, "must fail before committing the response")
}
