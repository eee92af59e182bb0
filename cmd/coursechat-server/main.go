// Package main provides the HTTP API server for coursechat.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/coursechat-go/internal/config"
	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/embedding"
	"github.com/raphaelgruber/coursechat-go/internal/llm"
	"github.com/raphaelgruber/coursechat-go/internal/metrics"
	"github.com/raphaelgruber/coursechat-go/internal/parser"
	"github.com/raphaelgruber/coursechat-go/internal/server"
	"github.com/raphaelgruber/coursechat-go/internal/service"
	"github.com/raphaelgruber/coursechat-go/internal/session"
	"github.com/raphaelgruber/coursechat-go/internal/tools"
)

const version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	skipSync := flag.Bool("no-sync", false, "skip syncing the docs directory on startup")
	flag.Parse()

	cfg := config.Load()
	if *configFile != "" {
		if err := cfg.ApplyFile(*configFile); err != nil {
			os.Stderr.WriteString("Error: " + err.Error() + "\n")
			os.Exit(1)
		}
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	if err := cfg.Validate(logger); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("coursechat-server starting",
		"version", version,
		"addr", cfg.HTTPAddr,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

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
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.InitSchema(ctx, embedder.Dimension()); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// One collector for the whole process so /api/metrics covers
	// embedding, search, ingestion and generation alike.
	collector := metrics.NewCollector()

	store := corpus.NewStore(dbClient, embedder, corpus.Options{
		MaxResults: cfg.MaxResults,
		Chunking: parser.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		},
		Metrics: collector,
	}, logger)

	// Sync course documents on startup so a fresh deployment serves content
	// immediately. Failures are logged per file, not fatal.
	if !*skipSync && cfg.DocsDir != "" {
		if _, err := os.Stat(cfg.DocsDir); err == nil {
			ingestor := service.NewIngestor(store, collector, logger)
			if _, err := ingestor.SyncDirectory(ctx, cfg.DocsDir, false); err != nil {
				logger.Error("startup sync failed", "dir", cfg.DocsDir, "error", err)
			}
		} else {
			logger.Warn("docs directory not found, skipping startup sync", "dir", cfg.DocsDir)
		}
	}

	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create chat model", "error", err)
		os.Exit(1)
	}

	registry := tools.NewRegistry(&tools.Dependencies{Store: store, Logger: logger})
	assistant := service.NewAssistant(model, registry,
		session.NewStore(cfg.MaxHistory), collector, logger)

	httpSrv := server.NewHTTP(cfg.HTTPAddr, assistant, store, logger)
	if err := httpSrv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
