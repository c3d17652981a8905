// Package app wires configuration into adapters and use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/adapters/embedding"
	"github.com/0xcro3dile/docqa-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/docqa-go/internal/adapters/llm"
	"github.com/0xcro3dile/docqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/docqa-go/internal/adapters/parser"
	"github.com/0xcro3dile/docqa-go/internal/adapters/storage/badger"
	"github.com/0xcro3dile/docqa-go/internal/adapters/storage/bolt"
	"github.com/0xcro3dile/docqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/chunking"
	"github.com/0xcro3dile/docqa-go/internal/domain/cost"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
)

// VectorStore is a ports.VectorStore that owns resources.
type VectorStore interface {
	ports.VectorStore
	io.Closer
}

// App holds all application components and dependencies
type App struct {
	Config *config.Config
	Logger arbor.ILogger

	Embedder  *embedding.Negotiator
	Store     VectorStore
	Documents *badger.DocumentStore
	Sessions  *bolt.SessionStore
	Parsers   *parser.Registry
	Loader    *loader.FileLoader

	Ingest *usecases.IngestUseCase
	Query  *usecases.QueryUseCase

	watcher *filewatcher.FSNotifyWatcher
	cron    *cron.Cron
}

// New builds every component from cfg. The embedding dimension is negotiated
// before the vector store is initialized, so an unreachable embedding
// provider fails startup.
func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	a.Embedder = embedding.NewNegotiator(embedder, logger)

	completion, err := newCompletion(ctx, cfg.Completion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}

	if err := a.initStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Parsers = newParsers(cfg.Parser, logger)
	a.Loader = loader.NewFileLoader(a.Parsers.Supports, cfg.Server.MaxUploadBytes)

	a.Ingest = usecases.NewIngestUseCase(
		a.Parsers,
		a.Embedder,
		a.Store,
		a.Documents,
		chunking.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap),
		logger,
		usecases.WithEmbeddingRate(cfg.Embedding.RequestsPerSecond),
	)
	a.Query = usecases.NewQueryUseCase(
		a.Embedder,
		a.Store,
		completion,
		cost.NewModel(cfg.CostRates()),
		cfg.Query.TopK,
		logger,
	)

	logger.Info().
		Str("embedding_provider", cfg.Embedding.Provider).
		Str("completion_provider", cfg.Completion.Provider).
		Str("completion_model", completion.Model()).
		Str("vector_store", cfg.VectorStore.Type).
		Strs("extensions", a.Parsers.SupportedExtensions()).
		Msg("Application initialization complete")

	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	dim, err := a.Embedder.Dimension(ctx)
	if err != nil {
		return err
	}

	switch a.Config.VectorStore.Type {
	case "memory":
		a.Store = vectordb.NewInMemoryStore()
	case "qdrant":
		q := a.Config.VectorStore.Qdrant
		a.Store = vectordb.NewQdrantStore(vectordb.QdrantConfig{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    config.Duration(q.Timeout, 30*time.Second),
		}, a.Logger)
	default:
		store, err := vectordb.NewSQLiteStore(a.Config.Storage.DataDir, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to open vector store: %w", err)
		}
		a.Store = store
	}
	if err := a.Store.Init(ctx, dim); err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}

	a.Documents, err = badger.NewDocumentStore(a.Config.ResolvePath(a.Config.Storage.BadgerPath), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	a.Sessions, err = bolt.NewSessionStore(a.Config.ResolvePath(a.Config.Storage.BoltPath), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	return nil
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger arbor.ILogger) (ports.Embedder, error) {
	model := cfg.Model
	timeout := config.Duration(cfg.Timeout, 60*time.Second)
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, foreignDefault(model, "nomic-embed-text"), cfg.Dimensions, logger)
	case "gemini":
		return embedding.NewGeminiEmbedder(ctx, cfg.APIKey, foreignDefault(model, "nomic-embed-text"), cfg.Dimensions, logger)
	default:
		return embedding.NewOllamaEmbedder(cfg.BaseURL, model, timeout, logger), nil
	}
}

func newCompletion(ctx context.Context, cfg config.CompletionConfig, logger arbor.ILogger) (ports.CompletionProvider, error) {
	opts := llm.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Provider {
	case "anthropic":
		opts.Model = foreignDefault(opts.Model, cost.DefaultModel)
		return llm.NewAnthropicLLM(cfg.APIKey, cfg.BaseURL, opts, logger)
	case "gemini":
		opts.Model = foreignDefault(opts.Model, cost.DefaultModel)
		return llm.NewGeminiLLM(ctx, cfg.APIKey, opts, logger)
	case "ollama":
		opts.Model = foreignDefault(opts.Model, cost.DefaultModel)
		return llm.NewOllamaLLM(cfg.BaseURL, opts, config.Duration(cfg.Timeout, 120*time.Second), logger), nil
	default:
		return llm.NewOpenAILLM(cfg.APIKey, cfg.BaseURL, opts, logger)
	}
}

// foreignDefault drops a default model name that belongs to another provider,
// letting the adapter pick its own.
func foreignDefault(model, otherDefault string) string {
	if model == otherDefault {
		return ""
	}
	return model
}

func newParsers(cfg config.ParserConfig, logger arbor.ILogger) *parser.Registry {
	var pdf ports.DocumentParser = parser.NewPDFParser("", logger)
	if cfg.PDFServiceURL != "" {
		pdf = parser.NewRemotePDFParser(cfg.PDFServiceURL, config.Duration(cfg.Timeout, 120*time.Second), logger)
	}
	return parser.NewRegistry(
		parser.NewTextParser(),
		parser.NewMarkdownParser(),
		parser.NewHTMLParser(),
		pdf,
	)
}

// IngestFile loads and ingests one file, replacing earlier documents with the same name.
func (a *App) IngestFile(ctx context.Context, path string) (int, error) {
	syncer := usecases.NewSyncUseCase(a.Ingest, a.Loader, nil, 0, a.Logger)
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return syncer.Rescan(ctx, path)
	}
	if err := syncer.Reindex(ctx, path); err != nil {
		return 0, err
	}
	return 1, nil
}

// StartSync watches the configured directory and schedules periodic rescans.
// It returns once the initial rescan is done; watching continues until ctx ends.
func (a *App) StartSync(ctx context.Context) error {
	dir, err := filepath.Abs(a.Config.Watch.Dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	a.watcher, err = filewatcher.NewFSNotifyWatcher(a.Parsers.SupportedExtensions(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	syncer := usecases.NewSyncUseCase(a.Ingest, a.Loader, a.watcher,
		config.Duration(a.Config.Watch.Settle, usecases.DefaultSettle), a.Logger)

	if n, err := syncer.Rescan(ctx, dir); err != nil {
		a.Logger.Warn().Err(err).Str("dir", dir).Msg("Initial rescan failed")
	} else {
		a.Logger.Info().Int("ingested", n).Str("dir", dir).Msg("Initial rescan complete")
	}

	go func() {
		if err := syncer.Run(ctx, dir); err != nil {
			a.Logger.Error().Err(err).Msg("Directory sync stopped")
		}
	}()

	if schedule := a.Config.Watch.RescanSchedule; schedule != "" {
		a.cron = cron.New()
		_, err := a.cron.AddFunc(schedule, func() {
			if n, err := syncer.Rescan(ctx, dir); err != nil {
				a.Logger.Warn().Err(err).Msg("Scheduled rescan failed")
			} else if n > 0 {
				a.Logger.Info().Int("ingested", n).Msg("Scheduled rescan ingested new files")
			}
		})
		if err != nil {
			return fmt.Errorf("invalid rescan schedule: %w", err)
		}
		a.cron.Start()
	}
	return nil
}

// Close releases every component. Safe on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Documents != nil {
		errs = append(errs, a.Documents.Close())
	}
	if a.Sessions != nil {
		errs = append(errs, a.Sessions.Close())
	}
	return errors.Join(errs...)
}
