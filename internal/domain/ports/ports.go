// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"errors"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// Embedder turns text into a vector. Implemented by the provider adapters.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingProvider is an Embedder whose dimension has been negotiated.
// The dimension is fixed for the lifetime of the provider.
type EmbeddingProvider interface {
	Embedder

	// Dimension returns the negotiated vector length.
	Dimension(ctx context.Context) (int, error)
}

// VectorStore persists chunk vectors and answers similarity queries.
type VectorStore interface {
	// Init prepares the store for vectors of the given dimension.
	Init(ctx context.Context, dimension int) error

	// Upsert stores one vector with its payload and returns the point id.
	Upsert(ctx context.Context, vector []float32, meta entities.ChunkMetadata) (string, error)

	// Search returns up to limit results ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int) ([]entities.RetrievalResult, error)

	// DeleteByDocument removes every point belonging to documentID.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
}

// CompletionProvider generates text from a message sequence.
type CompletionProvider interface {
	// Generate returns the model reply and its token counts.
	Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error)

	// Model returns the model identifier used for cost estimation.
	Model() string
}

// DocumentParser extracts plain text from document bytes.
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string
}

// SourceLoader reads documents from disk.
type SourceLoader interface {
	Load(ctx context.Context, path string) (*entities.Source, error)
}

// DocumentRepository stores document descriptors.
type DocumentRepository interface {
	Save(ctx context.Context, doc *entities.Document) error
	Get(ctx context.Context, id string) (*entities.Document, error)
	List(ctx context.Context) ([]entities.Document, error)
	FindByFilename(ctx context.Context, filename string) ([]entities.Document, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore persists conversation histories by session id.
type SessionStore interface {
	// Load returns the stored messages, or an empty slice for an unknown session.
	Load(ctx context.Context, sessionID string) ([]entities.ConversationMessage, error)
	Save(ctx context.Context, sessionID string, messages []entities.ConversationMessage) error
	Delete(ctx context.Context, sessionID string) error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
