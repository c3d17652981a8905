package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

// Elements that carry page chrome rather than document content.
var htmlNoise = []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe"}

// HTMLParser converts an HTML page to Markdown and then to plain text.
type HTMLParser struct {
	converter *md.Converter
	md        goldmark.Markdown
}

// NewHTMLParser creates an HTMLParser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		converter: md.NewConverter("", true, nil),
		md:        goldmark.New(),
	}
}

// Parse extracts the readable text of an HTML document. The page title, when
// present, leads the text.
func (p *HTMLParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", failures.Wrap(failures.InvalidInput, err, fmt.Sprintf("parsing HTML %s", filename))
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sel := range htmlNoise {
		doc.Find(sel).Remove()
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	markdown := p.converter.Convert(body)
	content := markdownToText(p.md, []byte(markdown))

	if title != "" && !strings.HasPrefix(content, title) {
		content = title + "\n\n" + content
	}
	return content, nil
}

// SupportedExtensions returns the extensions this parser handles.
func (p *HTMLParser) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}
