package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

const defaultGeminiEmbedModel = "gemini-embedding-001"

// GeminiEmbedder generates embeddings with the Gemini API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     arbor.ILogger
}

// NewGeminiEmbedder creates a Gemini embedder. dimensions of zero keeps the
// model's default output size.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is not set")
	}
	if model == "" {
		model = defaultGeminiEmbedModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions, logger: logger}, nil
}

// Embed generates an embedding for a single text.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var cfg *genai.EmbedContentConfig
	if g.dimensions > 0 {
		dim := int32(g.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	result, err := g.client.Models.EmbedContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("no embedding returned from API")
	}

	values := result.Embeddings[0].Values
	g.logger.Debug().Str("model", g.model).Int("dimension", len(values)).Msg("Embedding generated")
	return values, nil
}
