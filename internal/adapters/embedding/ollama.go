// Package embedding provides embedding provider adapters.
// Each adapter implements ports.Embedder; the Negotiator adds ports.EmbeddingProvider on top.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// OllamaEmbedder implements ports.Embedder using the Ollama API.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	logger  arbor.ILogger
}

// NewOllamaEmbedder creates a new Ollama embedding adapter.
func NewOllamaEmbedder(baseURL, model string, timeout time.Duration, logger arbor.ILogger) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (a *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(ollamaEmbedRequest{Model: a.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}

	a.logger.Debug().Str("model", a.model).Int("dimension", len(embedResp.Embedding)).Msg("Embedding generated")
	return embedResp.Embedding, nil
}
