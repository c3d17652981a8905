package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// mockEmbedder implements ports.Embedder for testing
type mockEmbedder struct {
	mu      sync.Mutex
	calls   []string
	embedFn func(text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	mu       sync.Mutex
	points   []entities.ChunkMetadata
	results  []entities.RetrievalResult
	searchFn func(limit int) ([]entities.RetrievalResult, error)
	upsertFn func(meta entities.ChunkMetadata) error
	deleted  []string
	searched int
}

func (m *mockVectorStore) Init(ctx context.Context, dimension int) error { return nil }

func (m *mockVectorStore) Upsert(ctx context.Context, vector []float32, meta entities.ChunkMetadata) (string, error) {
	if m.upsertFn != nil {
		if err := m.upsertFn(meta); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, meta)
	return fmt.Sprintf("%s-%d", meta.DocumentID, meta.ChunkIndex), nil
}

func (m *mockVectorStore) Search(ctx context.Context, vector []float32, limit int) ([]entities.RetrievalResult, error) {
	m.mu.Lock()
	m.searched++
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(limit)
	}
	if len(m.results) > limit {
		return m.results[:limit], nil
	}
	return m.results, nil
}

func (m *mockVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentID)
	kept := m.points[:0]
	for _, p := range m.points {
		if p.DocumentID != documentID {
			kept = append(kept, p)
		}
	}
	m.points = kept
	return nil
}

func (m *mockVectorStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points), nil
}

func (m *mockVectorStore) pointsFor(documentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.points {
		if p.DocumentID == documentID {
			n++
		}
	}
	return n
}

// mockLLM implements ports.CompletionProvider for testing
type mockLLM struct {
	response   string
	err        error
	model      string
	received   [][]entities.ConversationMessage
	promptToks int
	complToks  int
}

func (m *mockLLM) Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error) {
	m.received = append(m.received, messages)
	if m.err != nil {
		return nil, m.err
	}
	text := m.response
	if text == "" {
		text = "mocked answer"
	}
	return &entities.Completion{Text: text, PromptTokens: m.promptToks, CompletionTokens: m.complToks}, nil
}

func (m *mockLLM) Model() string {
	if m.model == "" {
		return "gpt-4o-mini"
	}
	return m.model
}

// mockParser implements ports.DocumentParser for testing
type mockParser struct {
	parseFn func(data []byte, filename string) (string, error)
}

func (m *mockParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	if m.parseFn != nil {
		return m.parseFn(data, filename)
	}
	return string(data), nil
}

func (m *mockParser) SupportedExtensions() []string {
	return []string{".txt", ".md"}
}

// mockRepository implements ports.DocumentRepository for testing
type mockRepository struct {
	mu     sync.Mutex
	docs   map[string]entities.Document
	saveFn func(doc *entities.Document) error
}

func newMockRepository() *mockRepository {
	return &mockRepository{docs: make(map[string]entities.Document)}
}

func (m *mockRepository) Save(ctx context.Context, doc *entities.Document) error {
	if m.saveFn != nil {
		if err := m.saveFn(doc); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*entities.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &d, nil
}

func (m *mockRepository) List(ctx context.Context) ([]entities.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockRepository) FindByFilename(ctx context.Context, filename string) ([]entities.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Document
	for _, d := range m.docs {
		if d.Filename == filename {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *mockRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// mockLoader implements ports.SourceLoader over an in-memory file map
type mockLoader struct {
	files map[string]string
}

func (m *mockLoader) Load(ctx context.Context, path string) (*entities.Source, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, failures.Newf(failures.NotFound, "no file %s", path)
	}
	name := filepath.Base(path)
	return &entities.Source{
		Filename: name,
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
		Data:     []byte(content),
	}, nil
}

// mockWatcher implements ports.FileWatcher with a test-driven channel
type mockWatcher struct {
	events chan ports.FileEvent
}

func (m *mockWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	return m.events, nil
}

func (m *mockWatcher) Stop() error { return nil }
