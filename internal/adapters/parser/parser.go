// Package parser extracts plain text from uploaded document formats.
// Registry dispatches on file extension to one parser per format.
package parser

import (
	"context"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// Registry implements ports.DocumentParser by delegating to the parser
// registered for a file's extension.
type Registry struct {
	byExt map[string]ports.DocumentParser
}

var _ ports.DocumentParser = (*Registry)(nil)

// NewRegistry registers each parser under all of its extensions. Later
// parsers replace earlier ones for a shared extension.
func NewRegistry(parsers ...ports.DocumentParser) *Registry {
	r := &Registry{byExt: make(map[string]ports.DocumentParser)}
	for _, p := range parsers {
		for _, ext := range p.SupportedExtensions() {
			r.byExt[strings.ToLower(ext)] = p
		}
	}
	return r
}

// Parse extracts text from data using the parser for filename's extension.
func (r *Registry) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p, ok := r.byExt[ext]
	if !ok {
		return "", failures.Newf(failures.UnsupportedFormat, "unsupported file type %q", ext)
	}
	return p.Parse(ctx, data, filename)
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	return slices.Contains(r.SupportedExtensions(), strings.ToLower(filepath.Ext(filename)))
}
