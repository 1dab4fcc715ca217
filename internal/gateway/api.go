// ABOUTME: HTTP handlers for the public /v1 API surface.
// ABOUTME: Chat (sync + SSE), conversation history, deletion, health, stock data.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/finsight/finsight-gateway/internal/engine"
	"github.com/finsight/finsight-gateway/internal/marketdata"
	"github.com/finsight/finsight-gateway/internal/session"
	"github.com/finsight/finsight-gateway/internal/stream"
)

// ChatMessage is one message in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of /v1/chat and /v1/chat/stream. The full messages
// array is accepted for interface compatibility, but only the most recent
// user message is executed - server-side history is the source of truth.
type ChatRequest struct {
	SessionID      string        `json:"session_id"`
	ConversationID string        `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
}

// ChatResponse is the non-streaming answer for one turn.
type ChatResponse struct {
	ID      string       `json:"id"`
	Role    string       `json:"role"`
	Content string       `json:"content"`
	Events  []any        `json:"events"`
	Usage   stream.Usage `json:"usage"`
}

// parseChatRequest decodes and validates a chat body. On failure the
// response has already been written and ok is false.
func (g *Gateway) parseChatRequest(w http.ResponseWriter, r *http.Request) (req ChatRequest, utterance string, ok bool) {
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body", traceID(r))
		return req, "", false
	}
	if req.SessionID == "" || req.ConversationID == "" {
		g.writeError(w, http.StatusBadRequest, CodeBadRequest, "session_id and conversation_id are required", traceID(r))
		return req, "", false
	}

	// Most recent user message wins; earlier messages are client-side echo.
	// An empty latest user message is rejected, never skipped over.
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == string(session.RoleUser) {
			utterance = req.Messages[i].Content
			break
		}
	}
	if utterance == "" {
		g.writeError(w, http.StatusBadRequest, CodeBadRequest, "no user message found", traceID(r))
		return req, "", false
	}

	return req, utterance, true
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed", traceID(r))
		return
	}
	g.writeJSON(w, map[string]string{
		"status":    "healthy",
		"version":   g.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleChat executes one turn and returns the complete assistant message.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed", traceID(r))
		return
	}

	req, utterance, ok := g.parseChatRequest(w, r)
	if !ok {
		return
	}
	key := session.Key{SessionID: req.SessionID, ConversationID: req.ConversationID}

	exchange, err := g.conversation.Send(r.Context(), key, utterance)
	if err != nil {
		status, code := classifyTurnError(err)
		g.writeError(w, status, code, "failed to process chat request", traceID(r))
		return
	}

	g.writeJSON(w, ChatResponse{
		ID:      exchange.MessageID,
		Role:    string(session.RoleAssistant),
		Content: exchange.Content,
		Events:  []any{},
		Usage:   stream.Usage{},
	})
}

// handleChatStream executes one turn and replays the completed answer as an
// SSE event stream. Validation failures are rejected with a plain JSON 400
// before the stream opens; once streaming starts, failures become a terminal
// error event because the status line is already committed.
func (g *Gateway) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed", traceID(r))
		return
	}

	req, utterance, ok := g.parseChatRequest(w, r)
	if !ok {
		return
	}
	key := session.Key{SessionID: req.SessionID, ConversationID: req.ConversationID}

	emitter, err := stream.NewEmitter(w, g.logger)
	if err != nil {
		g.writeError(w, http.StatusInternalServerError, CodeInternal, "streaming not supported", traceID(r))
		return
	}

	exchange, err := g.conversation.Send(r.Context(), key, utterance)
	if err != nil {
		_, code := classifyTurnError(err)
		emitter.Error(code, "failed to process chat request", traceID(r))
		return
	}

	emitter.StreamResponse(r.Context(), exchange.MessageID, exchange.Content)
}

// handleConversations routes /v1/conversations/{id}/messages (GET) and
// /v1/conversations/{id} (DELETE).
func (g *Gateway) handleConversations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/messages"):
		g.handleConversationMessages(w, r, strings.TrimSuffix(path, "/messages"))
	case r.Method == http.MethodDelete && !strings.Contains(path, "/"):
		g.handleDeleteConversation(w, r, path)
	default:
		g.writeError(w, http.StatusNotFound, CodeNotFound, "not found", traceID(r))
	}
}

// sessionKey resolves the session identity for conversation endpoints from
// the X-Client-Session header. History is scoped per client session, so a
// request without one has no history to address.
func (g *Gateway) sessionKey(w http.ResponseWriter, r *http.Request, conversationID string) (session.Key, bool) {
	sessionID := r.Header.Get("X-Client-Session")
	if sessionID == "" || conversationID == "" {
		g.writeError(w, http.StatusBadRequest, CodeBadRequest, "X-Client-Session header and conversation id are required", traceID(r))
		return session.Key{}, false
	}
	return session.Key{SessionID: sessionID, ConversationID: conversationID}, true
}

func (g *Gateway) handleConversationMessages(w http.ResponseWriter, r *http.Request, conversationID string) {
	key, ok := g.sessionKey(w, r, conversationID)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			g.writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a positive integer", traceID(r))
			return
		}
		if n > 1000 {
			n = 1000
		}
		limit = n
	}

	turns, err := g.conversation.History(r.Context(), key, limit)
	if err != nil {
		g.logger.Error("failed to read history", "error", err, "conversation_id", conversationID)
		g.writeError(w, http.StatusInternalServerError, CodeInternal, "failed to read conversation", traceID(r))
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}

	g.writeJSON(w, map[string][]session.Turn{"messages": turns})
}

func (g *Gateway) handleDeleteConversation(w http.ResponseWriter, r *http.Request, conversationID string) {
	key, ok := g.sessionKey(w, r, conversationID)
	if !ok {
		return
	}

	if err := g.conversation.Delete(r.Context(), key); err != nil {
		g.logger.Error("failed to delete conversation", "error", err, "conversation_id", conversationID)
		g.writeError(w, http.StatusInternalServerError, CodeInternal, "failed to delete conversation", traceID(r))
		return
	}

	g.writeJSON(w, map[string]string{"status": "deleted"})
}

// handleStockData proxies daily candles from the market data source:
// GET /v1/stocks/{symbol}/data?period=1y
func (g *Gateway) handleStockData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed", traceID(r))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/stocks/")
	symbol, found := strings.CutSuffix(path, "/data")
	if !found || symbol == "" || strings.Contains(symbol, "/") {
		g.writeError(w, http.StatusNotFound, CodeNotFound, "not found", traceID(r))
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1y"
	}
	if !marketdata.ValidPeriod(period) {
		g.writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("invalid period %q", period), traceID(r))
		return
	}

	hist, err := g.marketData.History(r.Context(), symbol, period)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			g.writeError(w, http.StatusNotFound, CodeNotFound,
				fmt.Sprintf("no data found for symbol %q", symbol), traceID(r))
			return
		}
		g.logger.Error("market data fetch failed", "error", err, "symbol", symbol)
		g.writeError(w, http.StatusInternalServerError, CodeInternal, "failed to fetch stock data", traceID(r))
		return
	}

	g.writeJSON(w, hist)
}

// classifyTurnError maps a failed turn to an HTTP status and error code.
// Engine failures are distinguished so clients can tell a broken request
// from a broken model backend.
func classifyTurnError(err error) (int, string) {
	var engineErr *engine.Error
	switch {
	case errors.Is(err, engine.ErrEmptyUtterance):
		return http.StatusBadRequest, CodeBadRequest
	case errors.As(err, &engineErr):
		return http.StatusInternalServerError, CodeEngineError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
