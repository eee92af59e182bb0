package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// DefaultOpenAIModel is the OpenAI embedding model used when none is configured.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension is the dimension for text-embedding-3-small.
	DefaultOpenAIDimension = 1536
)

// OpenAIClient implements Embedder using the OpenAI embeddings API via langchaingo.
type OpenAIClient struct {
	embedder  embeddings.Embedder
	model     string
	dimension int
}

var _ Embedder = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI embedding client.
func NewOpenAIClient(apiKey, model string, expectedDimension int) (*OpenAIClient, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if expectedDimension == 0 {
		expectedDimension = DefaultOpenAIDimension
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	return &OpenAIClient{
		embedder:  embedder,
		model:     model,
		dimension: expectedDimension,
	}, nil
}

// Model returns the configured embedding model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Dimension returns the expected embedding dimension.
func (c *OpenAIClient) Dimension() int {
	return c.dimension
}

// Embed generates an embedding vector for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := vectors[0]
	if len(embedding) != c.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(embedding), c.dimension, c.model)
	}
	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}

	for i, v := range vectors {
		if len(v) != c.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d",
				i, len(v), c.dimension)
		}
	}
	return vectors, nil
}
