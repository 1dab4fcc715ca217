// ABOUTME: langchaingo-backed Engine implementation with provider selection.
// ABOUTME: Supports openai, anthropic and ollama, chosen by configuration.

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/finsight/finsight-gateway/internal/config"
)

// LangchainEngine wraps a langchaingo model behind the Engine interface.
// Every call carries the finance analyst system prompt and an execution
// timeout; the model never sees an empty utterance.
type LangchainEngine struct {
	llm      llms.Model
	provider string
	timeout  time.Duration
}

// NewLangchainEngine creates an engine for the configured provider.
func NewLangchainEngine(cfg config.EngineConfig) (*LangchainEngine, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.OllamaHost != "" {
			opts = append(opts, ollama.WithServerURL(cfg.OllamaHost))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported engine provider: %s", cfg.Provider)
	}

	return &LangchainEngine{
		llm:      model,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
	}, nil
}

// Execute runs one utterance through the model and returns the assistant
// content. Provider failures come back as *Error.
func (e *LangchainEngine) Execute(ctx context.Context, utterance string) (string, error) {
	if utterance == "" {
		return "", ErrEmptyUtterance
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, analystSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, utterance),
	}

	response, err := e.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", &Error{Provider: e.provider, Err: err}
	}

	if len(response.Choices) == 0 {
		return "", &Error{Provider: e.provider, Err: fmt.Errorf("no response choices")}
	}

	return response.Choices[0].Content, nil
}
