// Package loader reads documents from the local filesystem.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// DefaultMaxBytes is the largest file FileLoader reads, matching the upload limit.
const DefaultMaxBytes = 10 << 20

// FileLoader implements ports.SourceLoader for files on disk.
type FileLoader struct {
	supports func(filename string) bool
	maxBytes int64
}

var _ ports.SourceLoader = (*FileLoader)(nil)

// NewFileLoader creates a loader accepting files that supports approves,
// up to maxBytes (DefaultMaxBytes when non-positive).
func NewFileLoader(supports func(filename string) bool, maxBytes int64) *FileLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileLoader{supports: supports, maxBytes: maxBytes}
}

// Load reads the file at path into a Source titled after its base name.
func (l *FileLoader) Load(ctx context.Context, path string) (*entities.Source, error) {
	name := filepath.Base(path)
	if l.supports != nil && !l.supports(name) {
		return nil, failures.Newf(failures.UnsupportedFormat, "unsupported file type %q", filepath.Ext(name))
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, failures.Newf(failures.NotFound, "file %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, failures.Newf(failures.InvalidInput, "%s is a directory", path)
	}
	if info.Size() > l.maxBytes {
		return nil, failures.Newf(failures.InvalidInput, "%s is %d bytes, limit is %d", name, info.Size(), l.maxBytes)
	}

	content, err := io.ReadAll(io.LimitReader(file, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(content)) > l.maxBytes {
		return nil, failures.Newf(failures.InvalidInput, "%s grew past the %d byte limit while reading", name, l.maxBytes)
	}

	return &entities.Source{
		Filename: name,
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
		Data:     content,
	}, nil
}
