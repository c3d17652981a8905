package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// OllamaLLM implements ports.CompletionProvider using Ollama's chat API.
type OllamaLLM struct {
	baseURL string
	opts    Options
	client  *http.Client
	logger  arbor.ILogger
}

// NewOllamaLLM creates a new Ollama completion adapter.
func NewOllamaLLM(baseURL string, opts Options, timeout time.Duration, logger arbor.ILogger) *OllamaLLM {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OllamaLLM{
		baseURL: baseURL,
		opts:    opts.withDefaults("llama3.2"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Model returns the configured model name.
func (a *OllamaLLM) Model() string { return a.opts.Model }

// Generate sends the conversation to Ollama and returns the reply.
func (a *OllamaLLM) Generate(ctx context.Context, messages []entities.ConversationMessage) (*entities.Completion, error) {
	reqBody := ollamaChatRequest{
		Model:    a.opts.Model,
		Messages: make([]ollamaMessage, len(messages)),
		Options:  ollamaOptions{Temperature: a.opts.Temperature, NumPredict: a.opts.MaxTokens},
	}
	for i, m := range messages {
		reqBody.Messages[i] = ollamaMessage{Role: string(m.Role), Content: m.Content}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(jsonData))
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

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if chatResp.Message.Content == "" {
		return nil, errEmptyResponse
	}

	a.logger.Debug().
		Str("model", a.opts.Model).
		Int("prompt_tokens", chatResp.PromptEvalCount).
		Int("completion_tokens", chatResp.EvalCount).
		Msg("Ollama completion")

	return &entities.Completion{
		Text:             chatResp.Message.Content,
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
	}, nil
}
