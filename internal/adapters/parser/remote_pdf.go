package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

// RemotePDFParser delegates PDF text extraction to an HTTP service that
// accepts the raw PDF at POST /parse. It replaces PDFParser when a service
// URL is configured, for layouts pdfcpu's content streams read poorly.
type RemotePDFParser struct {
	serviceURL string
	client     *http.Client
	logger     arbor.ILogger
}

// NewRemotePDFParser creates a parser for the service at serviceURL.
func NewRemotePDFParser(serviceURL string, timeout time.Duration, logger arbor.ILogger) *RemotePDFParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemotePDFParser{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Parse extracts text from PDF bytes via the service.
func (p *RemotePDFParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != "" {
		return "", failures.Newf(failures.InvalidInput, "PDF parse error: %s", result.Error)
	}

	p.logger.Debug().
		Str("filename", filename).
		Int("pages", result.Pages).
		Str("library", result.Library).
		Msg("PDF parsed by service")
	return result.Text, nil
}

// SupportedExtensions returns the extensions this parser handles.
func (p *RemotePDFParser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Healthy reports whether the service answers GET /health.
func (p *RemotePDFParser) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
