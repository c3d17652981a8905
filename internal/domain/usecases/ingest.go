// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - adapters are injected.
package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/docqa-go/internal/domain/chunking"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// IngestUseCase handles document ingestion, listing and deletion.
type IngestUseCase struct {
	parser    ports.DocumentParser
	embedder  ports.Embedder
	store     ports.VectorStore
	documents ports.DocumentRepository
	splitter  chunking.Splitter
	limiter   *rate.Limiter
	logger    arbor.ILogger
	now       func() time.Time
	newID     func() string
}

// IngestOption customizes an IngestUseCase.
type IngestOption func(*IngestUseCase)

// WithEmbeddingRate throttles embedding calls to perSecond requests.
// Zero or negative means unlimited.
func WithEmbeddingRate(perSecond float64) IngestOption {
	return func(uc *IngestUseCase) {
		if perSecond > 0 {
			uc.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithClock overrides the time source used for ProcessedAt.
func WithClock(now func() time.Time) IngestOption {
	return func(uc *IngestUseCase) { uc.now = now }
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	parser ports.DocumentParser,
	embedder ports.Embedder,
	store ports.VectorStore,
	documents ports.DocumentRepository,
	splitter chunking.Splitter,
	logger arbor.ILogger,
	opts ...IngestOption,
) *IngestUseCase {
	uc := &IngestUseCase{
		parser:    parser,
		embedder:  embedder,
		store:     store,
		documents: documents,
		splitter:  splitter,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SupportedExtensions lists the file extensions Ingest accepts.
func (uc *IngestUseCase) SupportedExtensions() []string {
	return uc.parser.SupportedExtensions()
}

// Supports reports whether filename has an ingestible extension.
func (uc *IngestUseCase) Supports(filename string) bool {
	return slices.Contains(uc.parser.SupportedExtensions(), strings.ToLower(filepath.Ext(filename)))
}

// Ingest extracts, chunks, embeds and indexes src. The document descriptor is
// saved only after every chunk is indexed; on failure, points already written
// are removed and no descriptor exists.
func (uc *IngestUseCase) Ingest(ctx context.Context, src entities.Source) (*entities.Document, error) {
	if !uc.Supports(src.Filename) {
		return nil, failures.Newf(failures.UnsupportedFormat, "unsupported file type %q", filepath.Ext(src.Filename))
	}

	text, err := uc.parser.Parse(ctx, src.Data, src.Filename)
	if err != nil {
		if failures.KindOf(err) != "" {
			return nil, err
		}
		return nil, failures.Wrap(failures.InvalidInput, err, "extracting text from "+src.Filename)
	}

	texts := uc.splitter.Split(text)
	if len(texts) == 1 && texts[0] == "" {
		return nil, failures.Newf(failures.InvalidInput, "%s contains no text", src.Filename)
	}

	doc := &entities.Document{
		ID:       uc.newID(),
		Title:    titleOf(src),
		Filename: src.Filename,
	}
	uc.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", doc.Filename).
		Int("chunks", len(texts)).
		Msg("Ingesting document")

	for i, t := range texts {
		chunk := entities.Chunk{DocumentID: doc.ID, Index: i, Text: t, Title: doc.Title}
		if err := uc.index(ctx, &chunk); err != nil {
			uc.rollback(ctx, doc.ID)
			return nil, err
		}
		if i%10 == 0 || i == len(texts)-1 {
			uc.logger.Debug().
				Str("document_id", doc.ID).
				Int("done", i+1).
				Int("total", len(texts)).
				Msg("Indexed chunks")
		}
	}

	doc.TotalChunks = len(texts)
	doc.ProcessedAt = uc.now().UTC()
	if err := uc.documents.Save(ctx, doc); err != nil {
		uc.rollback(ctx, doc.ID)
		return nil, failures.Wrap(failures.StorageFailure, err, "saving document descriptor")
	}

	uc.logger.Info().
		Str("document_id", doc.ID).
		Int("chunks", doc.TotalChunks).
		Msg("Document ingested")
	return doc, nil
}

func (uc *IngestUseCase) index(ctx context.Context, chunk *entities.Chunk) error {
	if uc.limiter != nil {
		if err := uc.limiter.Wait(ctx); err != nil {
			return failures.Wrap(failures.EmbeddingFailure, err, "waiting for embedding rate limit")
		}
	}

	vector, err := uc.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return failures.Wrap(failures.EmbeddingFailure, err, "embedding chunk")
	}
	chunk.Embedding = vector

	if _, err := uc.store.Upsert(ctx, chunk.Embedding, chunk.Metadata()); err != nil {
		return failures.Wrap(failures.StorageFailure, err, "indexing chunk")
	}
	return nil
}

// rollback removes partially indexed points, even if ctx is already cancelled.
func (uc *IngestUseCase) rollback(ctx context.Context, documentID string) {
	if err := uc.store.DeleteByDocument(context.WithoutCancel(ctx), documentID); err != nil {
		uc.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to remove partially indexed document")
	}
}

// List returns every document, most recently processed first.
func (uc *IngestUseCase) List(ctx context.Context) ([]entities.Document, error) {
	docs, err := uc.documents.List(ctx)
	if err != nil {
		return nil, failures.Wrap(failures.StorageFailure, err, "listing documents")
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ProcessedAt.After(docs[j].ProcessedAt)
	})
	return docs, nil
}

// Get returns one document descriptor.
func (uc *IngestUseCase) Get(ctx context.Context, id string) (*entities.Document, error) {
	doc, err := uc.documents.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, failures.Newf(failures.NotFound, "document %s not found", id)
	}
	if err != nil {
		return nil, failures.Wrap(failures.StorageFailure, err, "loading document")
	}
	return doc, nil
}

// FindByFilename returns the documents ingested from filename.
func (uc *IngestUseCase) FindByFilename(ctx context.Context, filename string) ([]entities.Document, error) {
	docs, err := uc.documents.FindByFilename(ctx, filename)
	if err != nil {
		return nil, failures.Wrap(failures.StorageFailure, err, "looking up documents")
	}
	return docs, nil
}

// Delete removes a document's vectors, then its descriptor. If removing the
// vectors fails the descriptor is kept so the delete can be retried.
func (uc *IngestUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	if err := uc.store.DeleteByDocument(ctx, id); err != nil {
		return failures.Wrap(failures.StorageFailure, err, "deleting document vectors")
	}
	if err := uc.documents.Delete(ctx, id); err != nil {
		return failures.Wrap(failures.StorageFailure, err, "deleting document descriptor")
	}
	uc.logger.Info().Str("document_id", id).Msg("Document deleted")
	return nil
}

// DeleteByFilename removes every document ingested from filename and
// returns how many were removed.
func (uc *IngestUseCase) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	docs, err := uc.FindByFilename(ctx, filename)
	if err != nil {
		return 0, err
	}
	for _, d := range docs {
		if err := uc.Delete(ctx, d.ID); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

func titleOf(src entities.Source) string {
	if t := strings.TrimSpace(src.Title); t != "" {
		return t
	}
	base := filepath.Base(src.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
