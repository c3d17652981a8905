// Package config loads the application configuration from defaults, TOML or
// YAML files and DOCQA_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/docqa-go/internal/domain/cost"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `toml:"server" yaml:"server"`
	Logging     LoggingConfig     `toml:"logging" yaml:"logging"`
	Chunking    ChunkingConfig    `toml:"chunking" yaml:"chunking"`
	Query       QueryConfig       `toml:"query" yaml:"query"`
	Embedding   EmbeddingConfig   `toml:"embedding" yaml:"embedding"`
	Completion  CompletionConfig  `toml:"completion" yaml:"completion"`
	VectorStore VectorStoreConfig `toml:"vector_store" yaml:"vector_store"`
	Storage     StorageConfig     `toml:"storage" yaml:"storage"`
	Watch       WatchConfig       `toml:"watch" yaml:"watch"`
	Parser      ParserConfig      `toml:"parser" yaml:"parser"`
	MCP         MCPConfig         `toml:"mcp" yaml:"mcp"`
	Cost        CostConfig        `toml:"cost" yaml:"cost"`
}

type ServerConfig struct {
	Host            string `toml:"host" yaml:"host"`
	Port            int    `toml:"port" yaml:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout" validate:"duration"`
	MaxUploadBytes  int64  `toml:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
	// AllowedOrigin is echoed in Access-Control-Allow-Origin.
	AllowedOrigin string `toml:"allowed_origin" yaml:"allowed_origin"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output" yaml:"output" validate:"dive,oneof=stdout console file"`
	Dir    string   `toml:"dir" yaml:"dir"` // defaults to <data_dir>/logs
}

// ChunkingConfig controls how extracted text is split before embedding.
type ChunkingConfig struct {
	Size    int `toml:"size" yaml:"size" validate:"gt=0"`
	Overlap int `toml:"overlap" yaml:"overlap" validate:"gte=0,ltfield=Size"`
}

type QueryConfig struct {
	TopK         int `toml:"top_k" yaml:"top_k" validate:"gt=0"`
	HistoryLimit int `toml:"history_limit" yaml:"history_limit" validate:"gt=0"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider" yaml:"provider" validate:"oneof=ollama openai gemini"`
	Model      string `toml:"model" yaml:"model"`
	BaseURL    string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey     string `toml:"api_key" yaml:"api_key"`
	Dimensions int    `toml:"dimensions" yaml:"dimensions" validate:"gte=0"` // 0 keeps the model's native size
	Timeout    string `toml:"timeout" yaml:"timeout" validate:"duration"`
	// RequestsPerSecond throttles ingestion; 0 means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
}

// CompletionConfig selects the chat completion provider.
type CompletionConfig struct {
	Provider    string  `toml:"provider" yaml:"provider" validate:"oneof=openai anthropic gemini ollama"`
	Model       string  `toml:"model" yaml:"model"`
	BaseURL     string  `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	Temperature float64 `toml:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	Timeout     string  `toml:"timeout" yaml:"timeout" validate:"duration"`
}

type VectorStoreConfig struct {
	Type   string       `toml:"type" yaml:"type" validate:"oneof=sqlite memory qdrant"`
	Qdrant QdrantConfig `toml:"qdrant" yaml:"qdrant"`
}

type QdrantConfig struct {
	URL        string `toml:"url" yaml:"url" validate:"omitempty,url"`
	APIKey     string `toml:"api_key" yaml:"api_key"`
	Collection string `toml:"collection" yaml:"collection"`
	Timeout    string `toml:"timeout" yaml:"timeout" validate:"duration"`
}

// StorageConfig holds on-disk locations. Relative paths resolve against DataDir.
type StorageConfig struct {
	DataDir    string `toml:"data_dir" yaml:"data_dir" validate:"required"`
	BadgerPath string `toml:"badger_path" yaml:"badger_path"`
	BoltPath   string `toml:"bolt_path" yaml:"bolt_path"`
}

// WatchConfig enables directory sync.
type WatchConfig struct {
	Enabled        bool   `toml:"enabled" yaml:"enabled"`
	Dir            string `toml:"dir" yaml:"dir" validate:"required_if=Enabled true"`
	Settle         string `toml:"settle" yaml:"settle" validate:"duration"`
	RescanSchedule string `toml:"rescan_schedule" yaml:"rescan_schedule" validate:"omitempty,cronspec"`
}

type ParserConfig struct {
	// PDFServiceURL switches PDF extraction to an external service when set.
	PDFServiceURL string `toml:"pdf_service_url" yaml:"pdf_service_url" validate:"omitempty,url"`
	Timeout       string `toml:"timeout" yaml:"timeout" validate:"duration"`
}

type MCPConfig struct {
	Name string `toml:"name" yaml:"name" validate:"required"`
}

// CostConfig adds or overrides per-model prices.
type CostConfig struct {
	Rates map[string]RateConfig `toml:"rates" yaml:"rates" validate:"dive"`
}

type RateConfig struct {
	PromptPerMillion     float64 `toml:"prompt_per_million" yaml:"prompt_per_million" validate:"gte=0"`
	CompletionPerMillion float64 `toml:"completion_per_million" yaml:"completion_per_million" validate:"gte=0"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: "10s",
			MaxUploadBytes:  10 << 20,
			AllowedOrigin:   "*",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Chunking: ChunkingConfig{Size: 512, Overlap: 50},
		Query:    QueryConfig{TopK: 5, HistoryLimit: 10},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
			Timeout:  "60s",
		},
		Completion: CompletionConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     "120s",
		},
		VectorStore: VectorStoreConfig{
			Type: "sqlite",
			Qdrant: QdrantConfig{
				URL:        "http://localhost:6333",
				Collection: "documents",
				Timeout:    "30s",
			},
		},
		Storage: StorageConfig{
			DataDir:    "./data",
			BadgerPath: "documents",
			BoltPath:   "sessions.db",
		},
		Watch: WatchConfig{
			Dir:            "./documents",
			Settle:         "500ms",
			RescanSchedule: "@every 10m",
		},
		Parser: ParserConfig{Timeout: "120s"},
		MCP:    MCPConfig{Name: "docqa"},
	}
}

// LoadFromFiles layers the defaults, each file in order, then environment
// overrides, and validates the result. The format follows the extension:
// .yaml and .yml use YAML, anything else TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	// Server configuration
	setString("DOCQA_SERVER_HOST", &config.Server.Host)
	setInt("DOCQA_SERVER_PORT", &config.Server.Port)

	// Logging configuration
	setString("DOCQA_LOG_LEVEL", &config.Logging.Level)
	if output := os.Getenv("DOCQA_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	// Chunking and query
	setInt("DOCQA_CHUNK_SIZE", &config.Chunking.Size)
	setInt("DOCQA_CHUNK_OVERLAP", &config.Chunking.Overlap)
	setInt("DOCQA_TOP_K", &config.Query.TopK)
	setInt("DOCQA_HISTORY_LIMIT", &config.Query.HistoryLimit)

	// Providers
	setString("DOCQA_EMBEDDING_PROVIDER", &config.Embedding.Provider)
	setString("DOCQA_EMBEDDING_MODEL", &config.Embedding.Model)
	setString("DOCQA_EMBEDDING_BASE_URL", &config.Embedding.BaseURL)
	setInt("DOCQA_EMBEDDING_DIMENSIONS", &config.Embedding.Dimensions)
	setFloat("DOCQA_EMBEDDING_RPS", &config.Embedding.RequestsPerSecond)
	setString("DOCQA_COMPLETION_PROVIDER", &config.Completion.Provider)
	setString("DOCQA_COMPLETION_MODEL", &config.Completion.Model)
	setString("DOCQA_COMPLETION_BASE_URL", &config.Completion.BaseURL)
	setFloat("DOCQA_TEMPERATURE", &config.Completion.Temperature)
	setInt("DOCQA_MAX_TOKENS", &config.Completion.MaxTokens)

	// Storage
	setString("DOCQA_VECTOR_STORE", &config.VectorStore.Type)
	setString("DOCQA_QDRANT_URL", &config.VectorStore.Qdrant.URL)
	setString("DOCQA_QDRANT_API_KEY", &config.VectorStore.Qdrant.APIKey)
	setString("DOCQA_QDRANT_COLLECTION", &config.VectorStore.Qdrant.Collection)
	setString("DOCQA_DATA_DIR", &config.Storage.DataDir)

	// Watch
	if enabled := os.Getenv("DOCQA_WATCH_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Watch.Enabled = b
		}
	}
	setString("DOCQA_WATCH_DIR", &config.Watch.Dir)
	setString("DOCQA_RESCAN_SCHEDULE", &config.Watch.RescanSchedule)

	setString("DOCQA_PDF_SERVICE_URL", &config.Parser.PDFServiceURL)

	// Provider keys fill in only what the files left empty.
	config.Embedding.APIKey = firstNonEmpty(config.Embedding.APIKey, providerKey(config.Embedding.Provider))
	config.Completion.APIKey = firstNonEmpty(config.Completion.APIKey, providerKey(config.Completion.Provider))
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag values, which win over everything else.
func ApplyFlagOverrides(config *Config, port int) {
	if port > 0 {
		config.Server.Port = port
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.ParseDuration(s)
		return err == nil
	})
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		return ValidateSchedule(fl.Field().String()) == nil
	})
	return v
}

// Validate checks field constraints and cross-section rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant.URL == "" {
		return fmt.Errorf("invalid configuration: vector_store.qdrant.url is required for the qdrant store")
	}
	return nil
}

// ValidateSchedule checks a standard cron expression or descriptor such as "@every 10m".
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ResolvePath joins a relative path onto the data directory.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Storage.DataDir, path)
}

// CostRates converts configured rates into the cost package's overrides.
func (c *Config) CostRates() map[string]cost.Rate {
	rates := make(map[string]cost.Rate, len(c.Cost.Rates))
	for name, r := range c.Cost.Rates {
		rates[name] = cost.PerMillion(r.PromptPerMillion, r.CompletionPerMillion)
	}
	return rates
}
