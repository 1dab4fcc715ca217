// ABOUTME: Error taxonomy and the uniform JSON error envelope.
// ABOUTME: Maps internal failures to {error:{code,message,trace_id}} without stack detail.

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Error codes carried in the envelope and in streamed error events.
const (
	CodeBadRequest  = "BAD_REQUEST"    // malformed or incomplete request
	CodeEngineError = "ENGINE_ERROR"   // reasoning engine failed or returned unusable output
	CodeNotFound    = "NOT_FOUND"      // unknown resource (e.g. unmatched symbol)
	CodeInternal    = "INTERNAL_ERROR" // anything unanticipated
)

// ErrorDetail is the inner error object.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

// ErrorBody is the uniform error envelope for non-streaming responses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// traceID returns the caller-supplied X-Request-ID, or a fresh identifier
// if the caller sent none. Echoed back on every error path.
func traceID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// writeError writes the JSON error envelope with the given status. Only the
// message string leaks outward; internal error chains stay in the logs.
func (g *Gateway) writeError(w http.ResponseWriter, status int, code, message, trace string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorBody{
		Error: ErrorDetail{Code: code, Message: message, TraceID: trace},
	}); err != nil {
		g.logger.Error("failed to encode error body", "error", err)
	}
}

// writeJSON writes a 200 JSON response.
func (g *Gateway) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}
