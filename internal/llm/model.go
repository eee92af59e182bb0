// Package llm wraps the chat model behind a provider-agnostic API with
// tool-calling support.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/coursechat-go/internal/config"
)

// Generation parameters. Answers are deterministic and bounded so repeated
// questions stay reproducible and responses stay scannable.
const (
	Temperature     = 0.0
	MaxAnswerTokens = 800
)

// Model wraps a langchaingo chat model.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates a chat model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Model returns the chat model name.
func (m *Model) Model() string {
	return m.modelName
}

// GenerateContent runs one generation over the message sequence. Tools, if
// any, are offered to the model; the caller inspects the response for tool
// calls. Fatal API failures (bad key, exhausted quota) are wrapped so
// callers can distinguish them from transient ones.
func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentResponse, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(Temperature),
		llms.WithMaxTokens(MaxAnswerTokens),
	}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}

	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, wrapBackendError("generate", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("generate: %w: no response choices", ErrModelBackend)
	}
	return resp, nil
}
