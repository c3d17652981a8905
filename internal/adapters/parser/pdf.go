package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

var pageFileNumber = regexp.MustCompile(`page_(\d+)`)

// PDFParser extracts text from PDFs with pdfcpu. pdfcpu exposes decoded page
// content streams; the text-showing operators in them are read back out.
// Scanned PDFs with no text layer produce empty text.
type PDFParser struct {
	tempDir string
	logger  arbor.ILogger
}

// NewPDFParser creates a PDFParser that stages files under tempDir
// (the system temp directory when empty).
func NewPDFParser(tempDir string, logger arbor.ILogger) *PDFParser {
	return &PDFParser{tempDir: tempDir, logger: logger}
}

// Parse returns the text of every page, pages separated by blank lines.
func (p *PDFParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp(p.tempDir, "docqa-pdf-*")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	inFile := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inFile, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(inFile)
	if err != nil {
		return "", failures.Wrap(failures.InvalidInput, err, "reading PDF "+filename)
	}

	outDir := filepath.Join(workDir, "content")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}
	if err := api.ExtractContentFile(inFile, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return "", failures.Wrap(failures.InvalidInput, err, "extracting PDF content from "+filename)
	}

	pages, err := readPageStreams(outDir)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, n := range sortedKeys(pages) {
		if t := contentStreamText(pages[n]); t != "" {
			texts = append(texts, t)
		}
	}

	p.logger.Debug().
		Str("filename", filename).
		Int("pages", pdfCtx.PageCount).
		Int("pages_with_text", len(texts)).
		Msg("PDF text extracted")
	return strings.Join(texts, "\n\n"), nil
}

// SupportedExtensions returns the extensions this parser handles.
func (p *PDFParser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// readPageStreams maps page numbers to their extracted content streams.
// A page split across several streams has them concatenated in name order.
func readPageStreams(dir string) (map[int][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading extracted content: %w", err)
	}
	pages := make(map[int][]byte)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFileNumber.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		pages[n] = append(pages[n], content...)
		pages[n] = append(pages[n], '\n')
	}
	return pages, nil
}

func sortedKeys(m map[int][]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// contentStreamText reads the strings shown by Tj, TJ, ' and " operators.
// Text positioning operators and ET end the current line. Hex strings are
// skipped since their bytes depend on the font encoding.
func contentStreamText(stream []byte) string {
	var (
		lines   []string
		line    strings.Builder
		operand strings.Builder
		inArray bool
	)
	endLine := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteral(stream, i)
			operand.WriteString(s)
			i = next
		case c == '<':
			if i+1 < len(stream) && stream[i+1] == '<' {
				i += 2
				continue
			}
			for i < len(stream) && stream[i] != '>' {
				i++
			}
			i++
		case c == '>':
			i++
		case c == '[':
			inArray = true
			operand.Reset()
			i++
		case c == ']':
			inArray = false
			i++
		case isPDFSpace(c):
			i++
		default:
			start := i
			for i < len(stream) && !isPDFSpace(stream[i]) && !isPDFDelimiter(stream[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			token := string(stream[start:i])
			if inArray {
				// A large negative kerning adjustment inside TJ is a word gap.
				if v, err := strconv.ParseFloat(token, 64); err == nil && v < -200 {
					operand.WriteByte(' ')
				}
				continue
			}
			switch token {
			case "Tj", "TJ":
				line.WriteString(operand.String())
			case "'", "\"":
				endLine()
				line.WriteString(operand.String())
			case "Td", "TD", "T*", "Tm", "ET":
				endLine()
			default:
				if _, err := strconv.ParseFloat(token, 64); err == nil {
					continue
				}
			}
			operand.Reset()
		}
	}
	endLine()
	return strings.Join(lines, "\n")
}

// readLiteral decodes a balanced literal string starting at stream[start] == '('.
func readLiteral(stream []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return b.String(), i
			}
			b.WriteByte(c)
		case '\\':
			i++
			if i >= len(stream) {
				return b.String(), i
			}
			e := stream[i]
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					j := i
					for j < len(stream) && j < i+3 && stream[j] >= '0' && stream[j] <= '7' {
						j++
					}
					v, _ := strconv.ParseUint(string(stream[i:j]), 8, 8)
					writeLatin1(&b, byte(v))
					i = j
					continue
				}
				b.WriteByte(e)
			}
			i++
		default:
			writeLatin1(&b, c)
			i++
		}
	}
	return b.String(), i
}

// writeLatin1 maps single-byte font encodings onto Unicode. Exact for the
// Latin-1 range of WinAnsiEncoding.
func writeLatin1(b *strings.Builder, c byte) {
	if c < 0x80 {
		b.WriteByte(c)
		return
	}
	b.WriteRune(rune(c))
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
