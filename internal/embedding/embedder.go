// Package embedding provides text embedding generation with multiple backend support.
package embedding

import (
	"context"
	"fmt"
)

// Embedder defines the interface for text embedding providers.
// Implementations include Ollama (local) and OpenAI (API).
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// More efficient than multiple Embed calls for bulk ingestion.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// CRITICAL: Must match the HNSW index dimension in the corpus schema.
	Dimension() int
}

// ProviderType identifies the embedding provider.
type ProviderType string

const (
	// ProviderOllama uses a local Ollama server for embeddings.
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI ProviderType = "openai"
)

// Config holds configuration for creating an Embedder.
type Config struct {
	// Provider specifies which embedding backend to use.
	Provider ProviderType

	// Model is the embedding model name (provider-specific).
	// Ollama: "all-minilm:l6-v2" (384-dim), "nomic-embed-text" (768-dim)
	// OpenAI: "text-embedding-3-small" (1536-dim)
	Model string

	// ExpectedDimension is the required output dimension.
	// Set to 0 to use the provider's default.
	ExpectedDimension int

	// OpenAI-specific
	OpenAIAPIKey string

	// Ollama-specific (uses OLLAMA_HOST env var if empty)
	OllamaHost string
}

// New creates an Embedder based on the provided configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		// Default to Ollama
		return NewOllamaClient(cfg.Model, cfg.ExpectedDimension)

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires API key")
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model, cfg.ExpectedDimension)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// DefaultOllama returns the default Ollama embedder (all-minilm:l6-v2, 384-dim).
func DefaultOllama() (Embedder, error) {
	return NewOllamaClient("", 0)
}
