package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

func onlyText(name string) bool {
	return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md")
}

func TestFileLoader_LoadTxtFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello World"), 0o644))

	src, err := NewFileLoader(onlyText, 0).Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", string(src.Data))
	assert.Equal(t, "meeting notes.txt", src.Filename)
	assert.Equal(t, "meeting notes", src.Title)
}

func TestFileLoader_Missing(t *testing.T) {
	_, err := NewFileLoader(onlyText, 0).Load(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))

	assert.True(t, failures.Is(err, failures.NotFound))
}

func TestFileLoader_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0o644))

	_, err := NewFileLoader(onlyText, 0).Load(context.Background(), path)

	assert.True(t, failures.Is(err, failures.UnsupportedFormat))
}

func TestFileLoader_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o644))

	_, err := NewFileLoader(onlyText, 10).Load(context.Background(), path)

	assert.True(t, failures.Is(err, failures.InvalidInput))
}

func TestFileLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "folder.md")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, err := NewFileLoader(onlyText, 0).Load(context.Background(), sub)

	assert.True(t, failures.Is(err, failures.InvalidInput))
}
