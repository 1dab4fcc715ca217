// ABOUTME: Conversation service owning turn execution and persistence ordering.
// ABOUTME: All chat turns flow through here - history is written user-first, assistant after success.

package conversation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finsight/finsight-gateway/internal/engine"
	"github.com/finsight/finsight-gateway/internal/session"
)

// Service coordinates one chat turn: it records the user turn, invokes the
// reasoning engine, and records the assistant turn after success. The store
// is a best-effort side log — store failures are logged, never surfaced —
// while engine failures always propagate, typed, to the caller.
type Service struct {
	store  session.Store
	engine engine.Engine
	logger *slog.Logger
}

// New creates a conversation service.
func New(store session.Store, eng engine.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		engine: eng,
		logger: logger.With("component", "conversation"),
	}
}

// Exchange is the result of one executed turn.
type Exchange struct {
	// MessageID is a fresh identifier for the assistant message.
	MessageID string
	// Content is the assistant's reply.
	Content string
}

// Send executes one user utterance against the engine.
//
// Ordering contract: the user turn is appended BEFORE the engine runs, and
// the assistant turn only after the engine succeeds. A failed exchange
// therefore leaves the user turn (and nothing else) in history, so replay
// still shows what was asked.
//
// The engine call is detached from the caller's cancellation: a client that
// disconnects mid-request stops caring about the result, but the call runs
// to completion or failure on its own terms and a late result is discarded
// by the caller.
func (s *Service) Send(ctx context.Context, key session.Key, utterance string) (*Exchange, error) {
	if utterance == "" {
		return nil, engine.ErrEmptyUtterance
	}

	s.appendTurns(key, session.Turn{Role: session.RoleUser, Content: utterance})

	content, err := s.engine.Execute(context.WithoutCancel(ctx), utterance)
	if err != nil {
		s.logger.Error("engine execution failed",
			"error", err,
			"session_id", key.SessionID,
			"conversation_id", key.ConversationID)
		return nil, err
	}

	s.appendTurns(key, session.Turn{Role: session.RoleAssistant, Content: content})

	exchange := &Exchange{
		MessageID: uuid.New().String(),
		Content:   content,
	}

	s.logger.Debug("turn executed",
		"session_id", key.SessionID,
		"conversation_id", key.ConversationID,
		"message_id", exchange.MessageID)

	return exchange, nil
}

// History returns the most recent limit turns for the key, oldest first.
func (s *Service) History(ctx context.Context, key session.Key, limit int) ([]session.Turn, error) {
	return s.store.Read(ctx, key, limit)
}

// Delete removes the conversation's history. Idempotent.
func (s *Service) Delete(ctx context.Context, key session.Key) error {
	return s.store.Delete(ctx, key)
}

// appendTurns writes turns with a context detached from the request, so
// persistence continues even if the client has already disconnected.
// Store failures are logged, not returned: history is a side log here and
// must never fail a turn the engine could still answer.
func (s *Service) appendTurns(key session.Key, turns ...session.Turn) {
	if err := s.store.Append(context.Background(), key, turns); err != nil {
		s.logger.Error("failed to record turns",
			"error", err,
			"session_id", key.SessionID,
			"conversation_id", key.ConversationID,
			"count", len(turns))
	}
}
