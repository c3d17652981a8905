package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry(NewTextParser(), NewMarkdownParser(), NewHTMLParser())

	text, err := r.Parse(context.Background(), []byte("plain words"), "NOTES.TXT")
	require.NoError(t, err)
	assert.Equal(t, "plain words", text)

	_, err = r.Parse(context.Background(), []byte("MZ"), "setup.exe")
	assert.True(t, failures.Is(err, failures.UnsupportedFormat))

	assert.True(t, r.Supports("page.HTML"))
	assert.False(t, r.Supports("archive.zip"))
	assert.Equal(t, []string{".htm", ".html", ".json", ".markdown", ".md", ".txt"}, r.SupportedExtensions())
}

func TestTextParser_JSON(t *testing.T) {
	p := NewTextParser()

	text, err := p.Parse(context.Background(), []byte(`{"name":"docqa"}`), "data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"docqa"}`, text)

	_, err = p.Parse(context.Background(), []byte(`{"name":`), "data.json")
	assert.True(t, failures.Is(err, failures.InvalidInput))
}

func TestTextParser_DropsInvalidUTF8(t *testing.T) {
	text, err := NewTextParser().Parse(context.Background(), []byte("ok\xff text"), "a.txt")

	require.NoError(t, err)
	assert.Equal(t, "ok text", text)
}

func TestMarkdownParser_StripsMarkup(t *testing.T) {
	src := "# Title\n\nSome **bold** and _italic_ text\nwrapped here.\n\n- item one\n- item two\n\n```go\nfmt.Println(1)\n```\n\nA [link](http://example.com)."

	text, err := NewMarkdownParser().Parse(context.Background(), []byte(src), "doc.md")

	require.NoError(t, err)
	assert.Equal(t,
		"Title\n\nSome bold and italic text wrapped here.\n\nitem one\n\nitem two\n\nfmt.Println(1)\n\nA link.",
		text)
}

func TestHTMLParser_ExtractsContent(t *testing.T) {
	src := `<html><head><title>Handbook</title><style>p{color:red}</style></head>
<body><nav>Home | About</nav>
<h1>Handbook</h1>
<p>Vacation requests need <b>two weeks</b> notice.</p>
<script>alert("x")</script>
<footer>Copyright</footer></body></html>`

	text, err := NewHTMLParser().Parse(context.Background(), []byte(src), "handbook.html")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Handbook"))
	assert.Contains(t, text, "Vacation requests need two weeks notice.")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "About")
	assert.NotContains(t, text, "color")
}

func TestHTMLParser_PrependsTitle(t *testing.T) {
	src := `<html><head><title>Policy</title></head><body><p>Body text.</p></body></html>`

	text, err := NewHTMLParser().Parse(context.Background(), []byte(src), "p.html")

	require.NoError(t, err)
	assert.Equal(t, "Policy\n\nBody text.", text)
}

func makePDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Arial", "", 12)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPDFParser_ExtractsPageText(t *testing.T) {
	data := makePDF(t, "Hello from page one", "Second (page) text")

	text, err := NewPDFParser(t.TempDir(), arbor.NewLogger()).Parse(context.Background(), data, "doc.pdf")

	require.NoError(t, err)
	assert.Equal(t, "Hello from page one\n\nSecond (page) text", text)
}

func TestPDFParser_RejectsCorruptFile(t *testing.T) {
	_, err := NewPDFParser(t.TempDir(), arbor.NewLogger()).Parse(context.Background(), []byte("not a pdf"), "bad.pdf")

	assert.True(t, failures.Is(err, failures.InvalidInput))
}

func TestContentStreamText(t *testing.T) {
	stream := []byte(`BT /F1 12 Tf 72 712 Td (Caf\351 \(open\)) Tj ET
BT 72 690 Td [(Split)-300(words)] TJ T* (next line) Tj ET
% comment (ignored) Tj
BT <48656c6c6f> Tj ET`)

	assert.Equal(t, "Café (open)\nSplit words\nnext line", contentStreamText(stream))
}

func TestRemotePDFParser_Parse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"text": "Hello from PDF", "pages": 1})
	}))
	defer server.Close()

	p := NewRemotePDFParser(server.URL, 0, arbor.NewLogger())
	text, err := p.Parse(context.Background(), []byte("fake pdf"), "test.pdf")

	require.NoError(t, err)
	assert.Equal(t, "Hello from PDF", text)
}

func TestRemotePDFParser_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "parsing failed"})
	}))
	defer server.Close()

	_, err := NewRemotePDFParser(server.URL, 0, arbor.NewLogger()).Parse(context.Background(), []byte("bad"), "test.pdf")

	assert.True(t, failures.Is(err, failures.InvalidInput))
}

func TestRemotePDFParser_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	assert.True(t, NewRemotePDFParser(server.URL, 0, arbor.NewLogger()).Healthy(context.Background()))
}
