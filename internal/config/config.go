// Package config loads runtime configuration from environment variables
// with an optional YAML overlay, and validates it before anything starts.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported LLM and embedding providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Index backends.
const (
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Index backend: surrealdb (default) or memory (dev/test)
	IndexBackend string `yaml:"index_backend"`

	// Embedding
	EmbeddingProvider  string `yaml:"embedding_provider"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	OllamaHost         string `yaml:"ollama_host"`

	// Chat model
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	// Retrieval and chunking
	MaxResults   int `yaml:"max_results"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Conversation
	MaxHistory int `yaml:"max_history"`

	// Course documents directory for sync on startup
	DocsDir string `yaml:"docs_dir"`

	// HTTP server
	HTTPAddr string `yaml:"http_addr"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "coursechat"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "corpus"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		IndexBackend: getEnv("COURSECHAT_INDEX_BACKEND", BackendSurrealDB),

		EmbeddingProvider:  getEnv("COURSECHAT_EMBEDDING_PROVIDER", ProviderOllama),
		EmbeddingModel:     getEnv("COURSECHAT_EMBEDDING_MODEL", ""),
		EmbeddingDimension: getEnvInt("COURSECHAT_EMBEDDING_DIMENSION", 0),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),

		LLMProvider:     getEnv("COURSECHAT_LLM_PROVIDER", ProviderAnthropic),
		LLMModel:        getEnv("COURSECHAT_LLM_MODEL", "claude-sonnet-4-20250514"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),

		MaxResults:   getEnvInt("COURSECHAT_MAX_RESULTS", 5),
		ChunkSize:    getEnvInt("COURSECHAT_CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("COURSECHAT_CHUNK_OVERLAP", 100),

		MaxHistory: getEnvInt("COURSECHAT_MAX_HISTORY", 2),

		DocsDir: getEnv("COURSECHAT_DOCS_DIR", "docs"),

		HTTPAddr: getEnv("COURSECHAT_HTTP_ADDR", ":8000"),

		LogFile:  getEnv("COURSECHAT_LOG_FILE", "/tmp/coursechat.log"),
		LogLevel: parseLogLevel(getEnv("COURSECHAT_LOG_LEVEL", "INFO")),
	}
}

// ApplyFile overlays values from a YAML file onto the config. Fields absent
// from the file keep their current values.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

// Validate checks invariants that would otherwise fail deep inside a
// request. MaxResults=0 is legal but disables retrieval entirely, so it is
// logged loudly instead of rejected.
func (c *Config) Validate(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.ChunkOverlap, c.ChunkSize)
	}

	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must not be negative, got %d", c.MaxResults)
	}
	if c.MaxResults == 0 {
		logger.Warn("max_results is 0: retrieval is disabled and every search will return no results")
	}

	switch c.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLMProvider)
	}

	switch c.EmbeddingProvider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.EmbeddingProvider)
	}

	switch c.IndexBackend {
	case BackendSurrealDB, BackendMemory:
	default:
		return fmt.Errorf("unsupported index backend: %s", c.IndexBackend)
	}

	if c.MaxHistory < 0 {
		return fmt.Errorf("max_history must not be negative, got %d", c.MaxHistory)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("ignoring non-numeric environment value", "key", key, "value", val)
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
