package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/config"
)

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3, 0.4}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, ollamaURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Embedding.BaseURL = ollamaURL
	cfg.Completion.APIKey = "test-key"
	cfg.VectorStore.Type = "memory"
	return cfg
}

func TestNew_WiresComponents(t *testing.T) {
	srv := fakeOllama(t)
	a, err := New(context.Background(), testConfig(t, srv.URL), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	dim, err := a.Embedder.Dimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, dim)
	assert.ElementsMatch(t, []string{".htm", ".html", ".json", ".markdown", ".md", ".pdf", ".txt"}, a.Parsers.SupportedExtensions())
	assert.Equal(t, 5, a.Query.TopK())
}

func TestNew_EmbeddingProviderDown(t *testing.T) {
	srv := fakeOllama(t)
	srv.Close()

	_, err := New(context.Background(), testConfig(t, srv.URL), arbor.NewLogger())

	assert.Error(t, err)
}

func TestNew_MissingCompletionKey(t *testing.T) {
	srv := fakeOllama(t)
	cfg := testConfig(t, srv.URL)
	cfg.Completion.APIKey = ""

	_, err := New(context.Background(), cfg, arbor.NewLogger())

	assert.Error(t, err)
}

func TestIngestFile_FileAndDirectory(t *testing.T) {
	srv := fakeOllama(t)
	cfg := testConfig(t, srv.URL)
	cfg.VectorStore.Type = "sqlite"
	a, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Alpha document text."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# Beta\n\nBeta body."), 0o644))

	n, err := a.IngestFile(context.Background(), filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a.txt already has a document, so only b.md is picked up.
	n, err = a.IngestFile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	docs, err := a.Ingest.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestForeignDefault(t *testing.T) {
	assert.Equal(t, "", foreignDefault("gpt-4o-mini", "gpt-4o-mini"))
	assert.Equal(t, "claude-sonnet-4-5", foreignDefault("claude-sonnet-4-5", "gpt-4o-mini"))
}
