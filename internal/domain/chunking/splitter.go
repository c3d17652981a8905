// Package chunking splits document text into bounded, overlapping retrieval units.
//
// Splitting is hierarchical: paragraphs are packed first, oversized paragraphs
// fall back to sentences, and oversized sentences fall back to words. A single
// word is never split, so every chunk fits the target size unless it consists
// of one word longer than the target.
//
// Lengths are measured in characters (runes), not bytes.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTargetSize is the default maximum chunk length in characters.
	DefaultTargetSize = 512
	// DefaultOverlap is the default number of characters carried into the next chunk.
	DefaultOverlap = 50
)

var (
	whitespaceRun     = regexp.MustCompile(`\s+`)
	paragraphBoundary = regexp.MustCompile(`\n\s*\n`)
	sentenceBoundary  = regexp.MustCompile(`[.!?]\s+`)
)

// Splitter carries a fixed size/overlap policy.
type Splitter struct {
	TargetSize int
	Overlap    int
}

// NewSplitter returns a Splitter, substituting defaults for non-positive sizes.
func NewSplitter(targetSize, overlap int) Splitter {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return Splitter{TargetSize: targetSize, Overlap: overlap}
}

// Split applies the splitter's policy to text.
func (s Splitter) Split(text string) []string {
	return Split(text, s.TargetSize, s.Overlap)
}

// Normalize converts CRLF to LF, collapses whitespace runs to one space and trims.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Split turns text into ordered chunks of at most targetSize characters.
// Empty or whitespace-only input yields a single empty chunk.
//
// When overlap > 0, every chunk after the first is prefixed with the trailing
// words (up to overlap characters) of the chunk before it. Overlap is applied
// after sizing, so prefixed chunks may exceed targetSize.
func Split(text string, targetSize, overlap int) []string {
	normalized := Normalize(text)
	if runeLen(normalized) <= targetSize {
		return []string{normalized}
	}

	// Normalize has already folded blank lines, so this yields one paragraph
	// and packing effectively starts at sentences. Chunk boundaries depend on it.
	p := &packer{limit: targetSize}
	for _, paragraph := range paragraphBoundary.Split(normalized, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if runeLen(paragraph) <= targetSize {
			p.add(paragraph, "\n\n")
			continue
		}
		for _, sentence := range splitSentences(paragraph) {
			if runeLen(sentence) <= targetSize {
				p.add(sentence, " ")
				continue
			}
			for _, word := range strings.Fields(sentence) {
				p.add(word, " ")
			}
		}
	}
	p.flush()

	if overlap <= 0 || len(p.chunks) < 2 {
		return p.chunks
	}
	return withOverlap(p.chunks, overlap)
}

// packer greedily fills a buffer with units and flushes it when the next
// unit would not fit.
type packer struct {
	limit  int
	chunks []string
	buf    strings.Builder
	n      int
}

func (p *packer) add(unit, sep string) {
	size := runeLen(unit)
	if p.n > 0 && p.n+runeLen(sep)+size > p.limit {
		p.flush()
	}
	if p.n > 0 {
		p.buf.WriteString(sep)
		p.n += runeLen(sep)
	}
	p.buf.WriteString(unit)
	p.n += size
}

func (p *packer) flush() {
	if p.n == 0 {
		return
	}
	p.chunks = append(p.chunks, p.buf.String())
	p.buf.Reset()
	p.n = 0
}

// splitSentences cuts text at the whitespace following '.', '!' or '?'.
// The punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func withOverlap(chunks []string, overlap int) []string {
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		tail := lastWords(chunks[i-1], overlap)
		if tail == "" {
			out[i] = chunks[i]
			continue
		}
		out[i] = tail + " " + chunks[i]
	}
	return out
}

// lastWords returns the longest run of trailing words of text whose joined
// length stays within limit characters.
func lastWords(text string, limit int) string {
	words := strings.Fields(text)
	start := len(words)
	n := 0
	for i := len(words) - 1; i >= 0; i-- {
		w := runeLen(words[i])
		if n+w+1 > limit {
			break
		}
		if n == 0 {
			n = w
		} else {
			n += w + 1
		}
		start = i
	}
	return strings.Join(words[start:], " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
