// ABOUTME: Store interface and data types for per-conversation turn history.
// ABOUTME: Defines Turn, Key and the Store contract shared by all backends.

package session

import (
	"context"
	"fmt"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message within a conversation. Immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Key identifies a caller's chat thread. Both parts are opaque,
// caller-supplied strings; the server never generates or validates them
// beyond non-emptiness. Callers that reuse values share history — that is
// a trust-boundary decision, not a collision to detect.
type Key struct {
	SessionID      string
	ConversationID string
}

// String renders the key in "session:conversation" form, matching how
// history is addressed externally.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.SessionID, k.ConversationID)
}

// Store is the contract for turn history persistence.
//
// Guarantees all backends must provide:
//   - Append is atomic per call with respect to other calls on the same key;
//     two concurrent appends never interleave their turns.
//   - Read returns the most recent limit turns, oldest first, in append order.
//     An unknown key reads as empty, never as an error.
//   - Delete is idempotent; deleting an absent key is not an error.
//   - Operations on distinct keys do not serialize against each other.
type Store interface {
	Append(ctx context.Context, key Key, turns []Turn) error
	Read(ctx context.Context, key Key, limit int) ([]Turn, error)
	Delete(ctx context.Context, key Key) error
	Close() error
}
