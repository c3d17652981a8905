package parser

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser renders Markdown to plain text, dropping markup and keeping
// block boundaries as blank lines.
type MarkdownParser struct {
	md goldmark.Markdown
}

// NewMarkdownParser creates a MarkdownParser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: goldmark.New()}
}

// Parse extracts the text content of a Markdown document.
func (p *MarkdownParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	return markdownToText(p.md, data), nil
}

// SupportedExtensions returns the extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

func markdownToText(md goldmark.Markdown, src []byte) string {
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					current.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				current.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				flush()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					current.Write(seg.Value(src))
				}
				flush()
				return ast.WalkSkipChildren, nil
			}
		default:
			if n.Type() == ast.TypeBlock && !entering {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return strings.Join(blocks, "\n\n")
}
