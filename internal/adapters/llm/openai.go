package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// OpenAILLM generates completions with an OpenAI-compatible chat endpoint.
type OpenAILLM struct {
	client *openai.Client
	opts   Options
	logger arbor.ILogger
}

// NewOpenAILLM creates an OpenAI chat adapter. baseURL may be empty.
func NewOpenAILLM(apiKey, baseURL string, opts Options, logger arbor.ILogger) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts.withDefaults(openai.GPT4oMini),
		logger: logger,
	}, nil
}

// Model returns the configured model name.
func (a *OpenAILLM) Model() string { return a.opts.Model }

// Generate sends the conversation as chat messages.
func (a *OpenAILLM) Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error) {
	chat := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == entities.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Messages:    chat,
		Temperature: float32(a.opts.Temperature),
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errEmptyResponse
	}

	a.logger.Debug().
		Str("model", a.opts.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("OpenAI completion")

	return &entities.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
