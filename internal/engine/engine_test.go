package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel implements llms.Model for tests.
type fakeModel struct {
	content string
	err     error
	called  bool
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.content}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.called = true
	return f.content, f.err
}

func TestLangchainEngine_Execute(t *testing.T) {
	model := &fakeModel{content: "NVDA closed higher."}
	e := &LangchainEngine{llm: model, provider: "openai"}

	content, err := e.Execute(context.Background(), "how did nvidia do today?")
	require.NoError(t, err)
	assert.Equal(t, "NVDA closed higher.", content)
	assert.True(t, model.called)
}

func TestLangchainEngine_Execute_EmptyUtterance(t *testing.T) {
	model := &fakeModel{content: "should not be used"}
	e := &LangchainEngine{llm: model, provider: "openai"}

	_, err := e.Execute(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyUtterance)
	assert.False(t, model.called, "empty input must never reach the provider")
}

func TestLangchainEngine_Execute_ProviderFailure(t *testing.T) {
	providerErr := errors.New("rate limited")
	model := &fakeModel{err: providerErr}
	e := &LangchainEngine{llm: model, provider: "anthropic"}

	_, err := e.Execute(context.Background(), "hello")
	require.Error(t, err)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "anthropic", engErr.Provider)
	assert.ErrorIs(t, err, providerErr)
}
