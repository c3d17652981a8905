package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/chunking"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

type syncFixture struct {
	embedder *mockEmbedder
	repo     *mockRepository
	loader   *mockLoader
	watcher  *mockWatcher
	sync     *SyncUseCase
}

func newSyncFixture(files map[string]string) *syncFixture {
	f := &syncFixture{
		embedder: &mockEmbedder{},
		repo:     newMockRepository(),
		loader:   &mockLoader{files: files},
		watcher:  &mockWatcher{events: make(chan ports.FileEvent, 16)},
	}
	ingest := NewIngestUseCase(&mockParser{}, f.embedder, &mockVectorStore{}, f.repo,
		chunking.NewSplitter(0, 0), arbor.NewLogger())
	f.sync = NewSyncUseCase(ingest, f.loader, f.watcher, 30*time.Millisecond, arbor.NewLogger())
	return f
}

func (f *syncFixture) run(t *testing.T) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sync.Run(ctx, "/docs") }()
	return func() {
		stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("sync did not stop")
		}
	}
}

func TestSyncUseCase_IngestsAndRemovesFiles(t *testing.T) {
	f := newSyncFixture(map[string]string{"/docs/a.txt": "hello world"})
	stop := f.run(t)
	defer stop()

	f.watcher.events <- ports.FileEvent{Path: "/docs/a.txt", Operation: ports.FileCreated}
	assert.Eventually(t, func() bool { return f.repo.count() == 1 }, time.Second, 10*time.Millisecond)

	f.watcher.events <- ports.FileEvent{Path: "/docs/a.txt", Operation: ports.FileDeleted}
	assert.Eventually(t, func() bool { return f.repo.count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSyncUseCase_CoalescesBurstOfWrites(t *testing.T) {
	f := newSyncFixture(map[string]string{"/docs/a.txt": "hello world"})
	stop := f.run(t)

	for range 3 {
		f.watcher.events <- ports.FileEvent{Path: "/docs/a.txt", Operation: ports.FileModified}
	}
	assert.Eventually(t, func() bool { return f.repo.count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	stop()

	assert.Equal(t, 1, f.embedder.callCount())
}

func TestSyncUseCase_ModifiedFileReplacesDocument(t *testing.T) {
	f := newSyncFixture(map[string]string{"/docs/a.txt": "first version"})
	stop := f.run(t)
	defer stop()

	f.watcher.events <- ports.FileEvent{Path: "/docs/a.txt", Operation: ports.FileCreated}
	require.Eventually(t, func() bool { return f.repo.count() == 1 }, time.Second, 10*time.Millisecond)
	docs, _ := f.repo.FindByFilename(context.Background(), "a.txt")
	firstID := docs[0].ID

	f.watcher.events <- ports.FileEvent{Path: "/docs/a.txt", Operation: ports.FileModified}
	assert.Eventually(t, func() bool {
		docs, _ := f.repo.FindByFilename(context.Background(), "a.txt")
		return len(docs) == 1 && docs[0].ID != firstID
	}, time.Second, 10*time.Millisecond)
}

func TestSyncUseCase_ReindexFailureKeepsPreviousVersion(t *testing.T) {
	f := newSyncFixture(map[string]string{"/docs/a.txt": "first version"})
	ctx := context.Background()
	require.NoError(t, f.sync.Reindex(ctx, "/docs/a.txt"))
	before, err := f.repo.FindByFilename(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, before, 1)

	f.embedder.embedFn = func(string) ([]float32, error) { return nil, errors.New("provider down") }
	err = f.sync.Reindex(ctx, "/docs/a.txt")

	assert.True(t, failures.Is(err, failures.EmbeddingFailure))
	after, err := f.repo.FindByFilename(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
}

func TestSyncUseCase_UnloadableFileIsSkipped(t *testing.T) {
	f := newSyncFixture(map[string]string{"/docs/b.txt": "fine"})
	stop := f.run(t)
	defer stop()

	f.watcher.events <- ports.FileEvent{Path: "/docs/missing.txt", Operation: ports.FileCreated}
	f.watcher.events <- ports.FileEvent{Path: "/docs/b.txt", Operation: ports.FileCreated}

	assert.Eventually(t, func() bool { return f.repo.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSyncUseCase_Rescan(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.txt":     "alpha",
		"b.md":      "beta",
		"image.png": "binary",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	f := newSyncFixture(map[string]string{
		filepath.Join(dir, "a.txt"): "alpha",
		filepath.Join(dir, "b.md"):  "beta",
	})

	n, err := f.sync.Rescan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Files with an existing document are left alone.
	n, err = f.sync.Rescan(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, f.repo.count())
}

func TestSyncUseCase_RescanMissingDir(t *testing.T) {
	f := newSyncFixture(nil)

	_, err := f.sync.Rescan(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}
