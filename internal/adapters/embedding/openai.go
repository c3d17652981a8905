package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
)

// OpenAIEmbedder uses an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     arbor.ILogger
}

// NewOpenAIEmbedder creates an OpenAI embedder. baseURL may point at any
// OpenAI-compatible server; dimensions of zero keeps the model's native size.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions int, logger arbor.ILogger) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      []string{text},
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned from API")
	}

	src := resp.Data[0].Embedding
	v := make([]float32, len(src))
	for i := range src {
		v[i] = float32(src[i])
	}

	e.logger.Debug().Str("model", e.model).Int("dimension", len(v)).Msg("Embedding generated")
	return v, nil
}
