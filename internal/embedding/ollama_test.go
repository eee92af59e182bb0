// Package embedding_test contains integration tests for embedding clients.
package embedding_test

import (
	"context"
	"testing"
	"time"

	"github.com/raphaelgruber/coursechat-go/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaClient(t *testing.T) {
	client, err := embedding.NewOllamaClient("", 0)
	require.NoError(t, err, "should create client with default model")
	assert.Equal(t, embedding.DefaultOllamaModel, client.Model())
	assert.Equal(t, embedding.DefaultOllamaDimension, client.Dimension())
}

func TestNewOllamaClientCustomModel(t *testing.T) {
	client, err := embedding.NewOllamaClient("nomic-embed-text", 768)
	require.NoError(t, err, "should create client with custom model")
	assert.Equal(t, "nomic-embed-text", client.Model())
	assert.Equal(t, 768, client.Dimension())
}

func TestNewEmbedderFactory(t *testing.T) {
	embedder, err := embedding.New(embedding.Config{
		Provider: embedding.ProviderOllama,
	})
	require.NoError(t, err, "should create Ollama embedder via factory")
	assert.Equal(t, embedding.DefaultOllamaModel, embedder.Model())
}

func TestNewEmbedderFactoryOpenAIRequiresKey(t *testing.T) {
	_, err := embedding.New(embedding.Config{
		Provider: embedding.ProviderOpenAI,
	})
	require.Error(t, err, "openai provider without key must fail")
}

func TestEmbedBatchEmpty(t *testing.T) {
	client, err := embedding.NewOllamaClient("", 0)
	require.NoError(t, err, "should create client")

	embeddings, err := client.EmbedBatch(context.Background(), []string{})
	require.NoError(t, err, "should handle empty batch")
	assert.Len(t, embeddings, 0, "should return empty slice")
}

func TestEmbed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := embedding.NewOllamaClient("", 0)
	require.NoError(t, err, "should create client")

	emb, err := client.Embed(ctx, "Cats are mammals. Dogs are mammals too.")
	require.NoError(t, err, "should generate embedding")

	// CRITICAL: Verify dimension matches expected
	assert.Len(t, emb, client.Dimension(),
		"embedding must be exactly %d dimensions", client.Dimension())
}
