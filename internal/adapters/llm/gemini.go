package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// GeminiLLM generates completions with the Gemini API.
type GeminiLLM struct {
	client *genai.Client
	opts   Options
	logger arbor.ILogger
}

// NewGeminiLLM creates a Gemini adapter.
func NewGeminiLLM(ctx context.Context, apiKey string, opts Options, logger arbor.ILogger) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiLLM{
		client: client,
		opts:   opts.withDefaults("gemini-2.5-flash"),
		logger: logger,
	}, nil
}

// Model returns the configured model name.
func (g *GeminiLLM) Model() string { return g.opts.Model }

// Generate sends the conversation to Gemini. Assistant turns map to the model role.
func (g *GeminiLLM) Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error) {
	contents := make([]*genai.Content, len(messages))
	for i, m := range messages {
		role := genai.RoleUser
		if m.Role == entities.RoleAssistant {
			role = genai.RoleModel
		}
		contents[i] = &genai.Content{Role: role, Parts: []*genai.Part{genai.NewPartFromText(m.Content)}}
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.opts.Temperature)),
		MaxOutputTokens: int32(g.opts.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Text() == "" {
		return nil, errEmptyResponse
	}

	completion := &entities.Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		completion.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completion.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	g.logger.Debug().
		Str("model", g.opts.Model).
		Int("prompt_tokens", completion.PromptTokens).
		Int("completion_tokens", completion.CompletionTokens).
		Msg("Gemini completion")
	return completion, nil
}
