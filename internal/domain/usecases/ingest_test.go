package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/chunking"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newIngestUseCase(embedder *mockEmbedder, store *mockVectorStore, repo *mockRepository) *IngestUseCase {
	return NewIngestUseCase(
		&mockParser{},
		embedder,
		store,
		repo,
		chunking.NewSplitter(60, 0),
		arbor.NewLogger(),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func longText() string {
	return strings.TrimSpace(strings.Repeat("The quick brown fox jumps. ", 10))
}

func TestIngestUseCase_ChunksDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	repo := newMockRepository()
	uc := newIngestUseCase(embedder, store, repo)

	doc, err := uc.Ingest(context.Background(), entities.Source{Filename: "notes.txt", Data: []byte(longText())})

	require.NoError(t, err)
	assert.Equal(t, 5, doc.TotalChunks)
	assert.Equal(t, 5, store.pointsFor(doc.ID))
	assert.Equal(t, 5, embedder.callCount())
	assert.Equal(t, "notes", doc.Title)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Equal(t, fixedNow, doc.ProcessedAt)
	assert.NotEmpty(t, doc.ID)

	saved, err := repo.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, *doc, *saved)
}

func TestIngestUseCase_ChunkMetadata(t *testing.T) {
	store := &mockVectorStore{}
	uc := newIngestUseCase(&mockEmbedder{}, store, newMockRepository())

	doc, err := uc.Ingest(context.Background(), entities.Source{Filename: "a.md", Title: "Guide", Data: []byte(longText())})

	require.NoError(t, err)
	for i, p := range store.points {
		assert.Equal(t, doc.ID, p.DocumentID)
		assert.Equal(t, i, p.ChunkIndex)
		assert.Equal(t, "Guide", p.Title)
		assert.NotEmpty(t, p.Text)
	}
}

func TestIngestUseCase_UnsupportedFormat(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	repo := newMockRepository()
	uc := newIngestUseCase(embedder, store, repo)

	_, err := uc.Ingest(context.Background(), entities.Source{Filename: "tool.exe", Data: []byte("MZ")})

	assert.True(t, failures.Is(err, failures.UnsupportedFormat))
	assert.Zero(t, embedder.callCount())
	assert.Zero(t, repo.count())
}

func TestIngestUseCase_EmptyDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	uc := newIngestUseCase(embedder, &mockVectorStore{}, newMockRepository())

	_, err := uc.Ingest(context.Background(), entities.Source{Filename: "blank.txt", Data: []byte("  \n\n ")})

	assert.True(t, failures.Is(err, failures.InvalidInput))
	assert.Zero(t, embedder.callCount())
}

func TestIngestUseCase_PartialFailureLeavesNoDocument(t *testing.T) {
	calls := 0
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("model unavailable")
		}
		return []float32{1, 0, 0}, nil
	}}
	store := &mockVectorStore{}
	repo := newMockRepository()
	uc := newIngestUseCase(embedder, store, repo)

	doc, err := uc.Ingest(context.Background(), entities.Source{Filename: "notes.txt", Data: []byte(longText())})

	assert.Nil(t, doc)
	assert.True(t, failures.Is(err, failures.EmbeddingFailure))
	assert.Zero(t, repo.count())
	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
	assert.Len(t, store.deleted, 1)
}

func TestIngestUseCase_IndexFailure(t *testing.T) {
	store := &mockVectorStore{upsertFn: func(entities.ChunkMetadata) error { return errors.New("disk full") }}
	repo := newMockRepository()
	uc := newIngestUseCase(&mockEmbedder{}, store, repo)

	_, err := uc.Ingest(context.Background(), entities.Source{Filename: "notes.txt", Data: []byte(longText())})

	assert.True(t, failures.Is(err, failures.StorageFailure))
	assert.Zero(t, repo.count())
}

func TestIngestUseCase_DescriptorFailureRollsBackVectors(t *testing.T) {
	store := &mockVectorStore{}
	repo := newMockRepository()
	repo.saveFn = func(*entities.Document) error { return errors.New("read-only") }
	uc := newIngestUseCase(&mockEmbedder{}, store, repo)

	_, err := uc.Ingest(context.Background(), entities.Source{Filename: "notes.txt", Data: []byte(longText())})

	assert.True(t, failures.Is(err, failures.StorageFailure))
	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestIngestUseCase_ParserError(t *testing.T) {
	uc := NewIngestUseCase(
		&mockParser{parseFn: func([]byte, string) (string, error) { return "", errors.New("corrupt") }},
		&mockEmbedder{}, &mockVectorStore{}, newMockRepository(),
		chunking.NewSplitter(60, 0), arbor.NewLogger(),
	)

	_, err := uc.Ingest(context.Background(), entities.Source{Filename: "x.md", Data: []byte("x")})

	assert.True(t, failures.Is(err, failures.InvalidInput))
}

func TestIngestUseCase_Delete(t *testing.T) {
	store := &mockVectorStore{}
	repo := newMockRepository()
	uc := newIngestUseCase(&mockEmbedder{}, store, repo)
	doc, err := uc.Ingest(context.Background(), entities.Source{Filename: "notes.txt", Data: []byte(longText())})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), doc.ID))

	assert.Zero(t, store.pointsFor(doc.ID))
	assert.Zero(t, repo.count())
}

func TestIngestUseCase_DeleteUnknown(t *testing.T) {
	uc := newIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, newMockRepository())

	err := uc.Delete(context.Background(), "missing")

	assert.True(t, failures.Is(err, failures.NotFound))
}

func TestIngestUseCase_ListNewestFirst(t *testing.T) {
	repo := newMockRepository()
	for i, name := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Save(context.Background(), &entities.Document{
			ID:          name,
			ProcessedAt: fixedNow.Add(time.Duration(i) * time.Hour),
		}))
	}
	uc := newIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, repo)

	docs, err := uc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[2].ID)
}

func TestIngestUseCase_DeleteByFilename(t *testing.T) {
	store := &mockVectorStore{}
	repo := newMockRepository()
	uc := newIngestUseCase(&mockEmbedder{}, store, repo)
	src := entities.Source{Filename: "notes.txt", Data: []byte(longText())}
	_, err := uc.Ingest(context.Background(), src)
	require.NoError(t, err)
	_, err = uc.Ingest(context.Background(), src)
	require.NoError(t, err)

	n, err := uc.DeleteByFilename(context.Background(), "notes.txt")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, repo.count())
}

func TestIngestUseCase_RateLimitHonoursContext(t *testing.T) {
	uc := NewIngestUseCase(
		&mockParser{}, &mockEmbedder{}, &mockVectorStore{}, newMockRepository(),
		chunking.NewSplitter(60, 0), arbor.NewLogger(),
		WithEmbeddingRate(0.001),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := uc.Ingest(ctx, entities.Source{Filename: "notes.txt", Data: []byte(longText())})

	assert.True(t, failures.Is(err, failures.EmbeddingFailure))
}

func TestIngestUseCase_Supports(t *testing.T) {
	uc := newIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, newMockRepository())

	assert.True(t, uc.Supports("README.MD"))
	assert.False(t, uc.Supports("image.png"))
}
