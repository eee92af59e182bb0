// Package main provides the entry point for the coursechat MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/coursechat-go/internal/config"
	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/embedding"
	"github.com/raphaelgruber/coursechat-go/internal/parser"
	"github.com/raphaelgruber/coursechat-go/internal/server"
	"github.com/raphaelgruber/coursechat-go/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	if err := cfg.Validate(logger); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("coursechat-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"embedding_provider", cfg.EmbeddingProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create embedder
	embedder, err := embedding.New(embedding.Config{
		Provider:          embedding.ProviderType(cfg.EmbeddingProvider),
		Model:             cfg.EmbeddingModel,
		ExpectedDimension: cfg.EmbeddingDimension,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OllamaHost:        cfg.OllamaHost,
	})
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	logger.Info("embedder initialized", "model", embedder.Model())

	// Connect to database
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.InitSchema(ctx, embedder.Dimension()); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Build the corpus store and tool registry
	store := corpus.NewStore(dbClient, embedder, corpus.Options{
		MaxResults: cfg.MaxResults,
		Chunking: parser.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		},
	}, logger)

	deps := &tools.Dependencies{Store: store, Logger: logger}
	registry := tools.NewRegistry(deps)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()
	tools.RegisterMCP(srv.MCPServer(), registry, deps)
	logger.Info("tools registered", "count", 3)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
