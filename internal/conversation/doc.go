// Package conversation sits between the HTTP handlers and the reasoning
// engine, owning the ordering guarantees around turn history.
//
// # Ordering
//
// When a turn arrives:
//
//  1. The user turn is appended to the session store.
//  2. The engine executes the utterance.
//  3. On success, the assistant turn is appended.
//
// Record first, then act: if the engine fails, the user turn is already in
// history and no assistant turn is ever written. The two appends are
// separate calls ordered user-then-assistant, and each append is atomic per
// the session.Store contract.
//
// # Failure semantics
//
// Engine failures propagate to the caller as typed errors for transport
// translation. Store failures do not — history is a best-effort side log
// (the client replays its own message list), so a broken store degrades
// history without breaking chat.
package conversation
