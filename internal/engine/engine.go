// ABOUTME: Reasoning engine capability boundary and typed execution failures.
// ABOUTME: The gateway only ever sees this interface; implementations are pluggable.

package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyUtterance is returned when Execute is called with empty text.
// Empty input is a caller contract violation and never reaches the provider.
var ErrEmptyUtterance = errors.New("utterance must not be empty")

// Engine produces assistant content from a user utterance. The call is
// synchronous from the caller's perspective; whatever the implementation
// does internally (tools, retrieval, model inference) is opaque here.
type Engine interface {
	Execute(ctx context.Context, utterance string) (string, error)
}

// Error is a typed execution failure from the underlying engine. Failures
// are never swallowed at this boundary; the caller translates them into a
// transport-appropriate shape.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
