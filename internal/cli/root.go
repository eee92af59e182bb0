// Package cli provides the command-line interface for coursechat.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/coursechat-go/internal/config"
	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/corpus/memory"
	"github.com/raphaelgruber/coursechat-go/internal/db"
	"github.com/raphaelgruber/coursechat-go/internal/embedding"
	"github.com/raphaelgruber/coursechat-go/internal/llm"
	"github.com/raphaelgruber/coursechat-go/internal/metrics"
	"github.com/raphaelgruber/coursechat-go/internal/service"
	"github.com/raphaelgruber/coursechat-go/internal/session"
	"github.com/raphaelgruber/coursechat-go/internal/tools"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Wired in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	dbClient   *db.Client
	store      *corpus.Store
	registry   *tools.Registry
	collector  *metrics.Collector

	// Lazy-initialized chat components
	assistant *service.Assistant
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "Retrieval-augmented assistant for course materials",
	Long: `Coursechat answers questions about course materials by searching an
embedded corpus of course documents and grounding the chat model's
answers in what it finds.

Ingest course documents once, then ask questions about their content,
structure and lessons.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip wiring for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		// Remote commands talk to a running server over HTTP and need no
		// local embedder or index.
		if coursesRemote {
			return nil
		}

		cfg = config.Load()
		if configFile != "" {
			if err := cfg.ApplyFile(configFile); err != nil {
				return err
			}
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		if err := cfg.Validate(logger); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		embedder, err := embedding.New(embedding.Config{
			Provider:          embedding.ProviderType(cfg.EmbeddingProvider),
			Model:             cfg.EmbeddingModel,
			ExpectedDimension: cfg.EmbeddingDimension,
			OpenAIAPIKey:      cfg.OpenAIAPIKey,
			OllamaHost:        cfg.OllamaHost,
		})
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}

		var index corpus.Index
		switch cfg.IndexBackend {
		case config.BackendMemory:
			index = memory.NewIndex()
		default:
			ctx := context.Background()
			dbClient, err = db.NewClient(ctx, db.Config{
				URL:       cfg.SurrealDBURL,
				Namespace: cfg.SurrealDBNamespace,
				Database:  cfg.SurrealDBDatabase,
				Username:  cfg.SurrealDBUser,
				Password:  cfg.SurrealDBPass,
				AuthLevel: cfg.SurrealDBAuthLevel,
			}, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			if err := dbClient.InitSchema(ctx, embedder.Dimension()); err != nil {
				return fmt.Errorf("initialize schema: %w", err)
			}
			index = dbClient
		}

		collector = metrics.NewCollector()
		store = corpus.NewStore(index, embedder, corpusOptions(), logger)
		registry = tools.NewRegistry(&tools.Dependencies{Store: store, Logger: logger})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// getAssistant creates the assistant with lazy chat model initialization.
// Commands that never talk to the model skip the API key requirement.
func getAssistant() (*service.Assistant, error) {
	if assistant == nil {
		model, err := llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init chat model: %w", err)
		}
		assistant = service.NewAssistant(model, registry,
			session.NewStore(cfg.MaxHistory), collector, logger)
	}
	return assistant, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to YAML config file")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(deleteCmd)
}
