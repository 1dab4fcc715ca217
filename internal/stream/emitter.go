// ABOUTME: SSE emitter that turns one completed response into ordered named events.
// ABOUTME: Segments content into token deltas, terminated by message_end or error.

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Event names on the wire.
const (
	EventToken      = "token"
	EventMessageEnd = "message_end"
	EventError      = "error"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush,
// so no event stream can be opened.
var ErrStreamingUnsupported = errors.New("streaming not supported by transport")

// Usage is the token accounting attached to message_end. InputTokens is
// always zero here: true token accounting is an engine-internal concern
// this layer does not see. OutputTokens is the segmented word count.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TokenEvent carries one incremental content delta.
type TokenEvent struct {
	Delta string `json:"delta"`
}

// MessageEndEvent closes a successful stream.
type MessageEndEvent struct {
	MessageID string `json:"message_id"`
	Usage     Usage  `json:"usage"`
}

// ErrorEvent closes a failed stream. Same envelope shape as the JSON error
// body, since the HTTP status line is already committed once streaming starts.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

// Segment splits content on whitespace into deltas. Every delta carries a
// trailing space except the last; empty content segments to nothing.
func Segment(content string) []string {
	words := strings.Fields(content)
	deltas := make([]string, len(words))
	for i, word := range words {
		if i < len(words)-1 {
			deltas[i] = word + " "
		} else {
			deltas[i] = word
		}
	}
	return deltas
}

// emitter state machine: start -> streaming* -> {end | errored}
type state int

const (
	stateStart state = iota
	stateStreaming
	stateEnd
	stateErrored
)

// Emitter writes named SSE events to one response, flushing per event so
// transport-level flow control is honored: the next event is not produced
// until the previous one has been accepted by the writer. An Emitter is
// single-use and is not safe for concurrent use.
//
// This is synthetic streaming — the input is one completed response, not
// live model output. If the engine ever exposes incremental deltas, this
// type's input becomes a delta sequence and Segment goes away; nothing on
// the wire would change.
type Emitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *slog.Logger
	state   state
}

// NewEmitter prepares an event stream on w and writes the SSE headers.
// Fails before committing the response if the transport cannot stream.
func NewEmitter(w http.ResponseWriter, logger *slog.Logger) (*Emitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	if logger == nil {
		logger = slog.Default()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Emitter{
		w:       w,
		flusher: flusher,
		logger:  logger.With("component", "stream"),
	}, nil
}

// StreamResponse emits the full event sequence for one completed response:
// zero or more token events, then exactly one message_end. If ctx is done
// (client disconnected) emission stops; whatever was persisted before the
// stream began stays persisted, and nothing further is written.
func (e *Emitter) StreamResponse(ctx context.Context, messageID, content string) {
	if e.terminal() {
		return
	}

	deltas := Segment(content)
	for _, delta := range deltas {
		select {
		case <-ctx.Done():
			e.logger.Debug("client disconnected mid-stream", "message_id", messageID)
			e.state = stateEnd
			return
		default:
		}
		e.state = stateStreaming
		e.writeEvent(EventToken, TokenEvent{Delta: delta})
	}

	e.state = stateEnd
	e.writeEvent(EventMessageEnd, MessageEndEvent{
		MessageID: messageID,
		Usage: Usage{
			InputTokens:  0,
			OutputTokens: len(deltas),
		},
	})
}

// Error emits the terminal error event. After this nothing else is emitted.
func (e *Emitter) Error(code, message, traceID string) {
	if e.terminal() {
		return
	}
	e.state = stateErrored
	e.writeEvent(EventError, ErrorEvent{Code: code, Message: message, TraceID: traceID})
}

func (e *Emitter) terminal() bool {
	return e.state == stateEnd || e.state == stateErrored
}

// writeEvent writes a single SSE event and flushes it through the transport.
func (e *Emitter) writeEvent(event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		e.logger.Error("failed to marshal SSE data", "error", err, "event", event)
		return
	}

	fmt.Fprintf(e.w, "event: %s\n", event)
	fmt.Fprintf(e.w, "data: %s\n\n", dataJSON)
	e.flusher.Flush()
}
