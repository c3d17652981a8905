package parser

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

// TextParser passes plain text and JSON through unchanged.
type TextParser struct{}

// NewTextParser creates a TextParser.
func NewTextParser() *TextParser { return &TextParser{} }

// Parse returns data as text. JSON must be well formed; invalid UTF-8
// sequences are dropped.
func (p *TextParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".json") && !json.Valid(data) {
		return "", failures.Newf(failures.InvalidInput, "%s is not valid JSON", filename)
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}

// SupportedExtensions returns the extensions this parser handles.
func (p *TextParser) SupportedExtensions() []string {
	return []string{".txt", ".json"}
}
