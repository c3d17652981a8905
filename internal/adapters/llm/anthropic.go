package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// AnthropicLLM generates completions with the Claude Messages API.
type AnthropicLLM struct {
	client anthropic.Client
	opts   Options
	logger arbor.ILogger
}

// NewAnthropicLLM creates a Claude adapter. baseURL may be empty.
func NewAnthropicLLM(apiKey, baseURL string, opts Options, logger arbor.ILogger) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is not set")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &AnthropicLLM{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts.withDefaults("claude-3-5-haiku-latest"),
		logger: logger,
	}, nil
}

// Model returns the configured model name.
func (a *AnthropicLLM) Model() string { return a.opts.Model }

// Generate sends the conversation to Claude.
func (a *AnthropicLLM) Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.opts.Model),
		MaxTokens:   int64(a.opts.MaxTokens),
		Messages:    make([]anthropic.MessageParam, 0, len(messages)),
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	// The Messages API requires the first turn to come from the user; a
	// trimmed history can start with an answer.
	for len(messages) > 0 && messages[0].Role == entities.RoleAssistant {
		messages = messages[1:]
	}
	for _, m := range messages {
		if m.Role == entities.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errEmptyResponse
	}

	a.logger.Debug().
		Str("model", a.opts.Model).
		Int64("prompt_tokens", resp.Usage.InputTokens).
		Int64("completion_tokens", resp.Usage.OutputTokens).
		Msg("Claude completion")

	return &entities.Completion{
		Text:             text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}
