// Package usecases - query.go answers questions from retrieved document chunks.
package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/conversation"
	"github.com/0xcro3dile/docqa-go/internal/domain/cost"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// DefaultTopK is the number of chunks retrieved when no limit is configured.
const DefaultTopK = 5

// QueryUseCase composes one grounded query turn: embed, search, generate.
// It holds no per-query state and never mutates caller history.
type QueryUseCase struct {
	embedder ports.Embedder
	store    ports.VectorStore
	llm      ports.CompletionProvider
	costs    *cost.Model
	topK     int
	logger   arbor.ILogger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(
	embedder ports.Embedder,
	store ports.VectorStore,
	llm ports.CompletionProvider,
	costs *cost.Model,
	topK int,
	logger arbor.ILogger,
) *QueryUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if costs == nil {
		costs = cost.NewModel(nil)
	}
	return &QueryUseCase{
		embedder: embedder,
		store:    store,
		llm:      llm,
		costs:    costs,
		topK:     topK,
		logger:   logger,
	}
}

// TopK returns the configured default retrieval limit.
func (uc *QueryUseCase) TopK() int {
	return uc.topK
}

// Answer retrieves topK chunks for question and asks the completion provider
// to answer from them. History messages, oldest first, precede the grounding
// message. Any stage failure aborts the call with no partial answer.
func (uc *QueryUseCase) Answer(
	ctx context.Context,
	question string,
	history []entities.ConversationMessage,
	topK int,
) (*entities.Answer, error) {
	results, err := uc.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	messages := BuildMessages(question, history, results)

	start := time.Now()
	completion, err := uc.llm.Generate(ctx, messages)
	if err != nil {
		return nil, failures.Wrap(failures.CompletionFailure, err, "generating answer")
	}
	uc.logger.Debug().
		Str("model", uc.llm.Model()).
		Int("messages", len(messages)).
		Int("prompt_tokens", completion.PromptTokens).
		Int("completion_tokens", completion.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("Completion received")

	return &entities.Answer{
		Question:   question,
		Text:       completion.Text,
		Results:    results,
		Usage:      uc.usage(completion),
		AnsweredAt: time.Now().UTC(),
	}, nil
}

// AnswerDefault calls Answer with the configured topK.
func (uc *QueryUseCase) AnswerDefault(
	ctx context.Context,
	question string,
	history []entities.ConversationMessage,
) (*entities.Answer, error) {
	return uc.Answer(ctx, question, history, uc.topK)
}

// Converse answers question using session as history, then records the
// exchange in session. The session is left untouched on failure.
func (uc *QueryUseCase) Converse(
	ctx context.Context,
	session *conversation.History,
	question string,
	topK int,
) (*entities.Answer, error) {
	answer, err := uc.Answer(ctx, question, session.Messages(), topK)
	if err != nil {
		return nil, err
	}
	session.Append(entities.RoleUser, question)
	session.Append(entities.RoleAssistant, answer.Text)
	return answer, nil
}

// Search embeds question and returns the store's topK results in the
// store's order.
func (uc *QueryUseCase) Search(ctx context.Context, question string, topK int) ([]entities.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, failures.New(failures.InvalidInput, "question must not be empty")
	}
	if topK <= 0 {
		return nil, failures.Newf(failures.InvalidInput, "topK must be positive, got %d", topK)
	}

	start := time.Now()
	vector, err := uc.embedder.Embed(ctx, question)
	if err != nil {
		return nil, failures.Wrap(failures.EmbeddingFailure, err, "embedding question")
	}

	results, err := uc.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, failures.Wrap(failures.SearchFailure, err, "searching vector store")
	}
	uc.logger.Debug().
		Int("top_k", topK).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Retrieved chunks")

	return results, nil
}

func (uc *QueryUseCase) usage(c *entities.Completion) entities.TokenUsage {
	return entities.TokenUsage{
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
		TotalTokens:      c.PromptTokens + c.CompletionTokens,
		EstimatedCost:    uc.costs.Estimate(c.PromptTokens, c.CompletionTokens, uc.llm.Model()),
	}
}
