// Package session provides keyed, append-only storage for conversation
// turn history.
//
// # Overview
//
// History is scoped by a Key — the opaque (session_id, conversation_id)
// pair supplied by the caller. Records are created implicitly on first
// append, mutated only by appends, and destroyed only by an explicit
// Delete (or process restart for the memory backend).
//
// # Backends
//
// Two implementations share the Store contract:
//
//   - MemoryStore: the default. Process-lifetime history with per-key
//     locking so unrelated conversations never contend.
//   - SQLiteStore: durable history on modernc.org/sqlite, selected when a
//     database path is configured. The contract is identical, which is the
//     point: swapping backends is a construction-time decision, not an
//     interface change.
//
// # Ordering
//
// Turns for a key are always returned in append order. Each Append call is
// atomic with respect to other appends on the same key; the memory backend
// uses a per-entry mutex, the sqlite backend a transaction.
package session
