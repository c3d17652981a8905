// Package entities contains the core business objects.
// Clean Architecture: Entities are the innermost layer with no dependencies.
// They represent enterprise-wide business rules.
package entities

import (
	"time"
	"unicode/utf8"
)

// Document describes an ingested document once all of its chunks are indexed.
// It is never mutated; re-ingesting a file produces a new Document.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	TotalChunks int       `json:"totalChunks"`
	ProcessedAt time.Time `json:"processedAt"`
}

// Source is raw document input awaiting ingestion.
type Source struct {
	Filename string
	Title    string
	Data     []byte
}

// Chunk is a bounded piece of document text. Its identity is (DocumentID, Index).
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Title      string
	Embedding  []float32
}

// Length returns the chunk length in characters.
func (c Chunk) Length() int {
	return utf8.RuneCountInString(c.Text)
}

// Metadata returns the payload stored alongside the chunk's vector.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		DocumentID: c.DocumentID,
		ChunkIndex: c.Index,
		Text:       c.Text,
		Title:      c.Title,
	}
}

// ChunkMetadata is the payload a vector store keeps for each point.
type ChunkMetadata struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Title      string `json:"title"`
}

// RetrievalResult is one ranked hit from a vector search. Not persisted.
type RetrievalResult struct {
	Score      float64 `json:"score"`
	DocumentID string  `json:"documentId"`
	ChunkIndex int     `json:"chunkIndex"`
	Text       string  `json:"text"`
	Title      string  `json:"title,omitempty"`
}

// Snippet returns the result text truncated to max characters.
func (r RetrievalResult) Snippet(max int) string {
	if max <= 0 || utf8.RuneCountInString(r.Text) <= max {
		return r.Text
	}
	runes := []rune(r.Text)
	return string(runes[:max]) + "..."
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of a conversation.
type ConversationMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completion is the result of a single language model call.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// CostBreakdown itemizes an EstimatedCost.
type CostBreakdown struct {
	PromptCost     float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
}

// EstimatedCost is an advisory monetary cost for one completion call.
type EstimatedCost struct {
	Amount    float64       `json:"usd"`
	Model     string        `json:"model"`
	Breakdown CostBreakdown `json:"breakdown"`
}

// TokenUsage reports token counts and cost for one completion call.
type TokenUsage struct {
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	EstimatedCost    EstimatedCost `json:"estimated_cost"`
}

// Answer is the outcome of one grounded query turn.
type Answer struct {
	Question   string
	Text       string
	Results    []RetrievalResult
	Usage      TokenUsage
	AnsweredAt time.Time
}
