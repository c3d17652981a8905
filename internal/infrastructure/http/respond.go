package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

const snippetLength = 200

type errorResponse struct {
	Error   string        `json:"error"`
	Kind    failures.Kind `json:"kind,omitempty"`
	Details string        `json:"details,omitempty"`
}

func newErrorResponse(err error) errorResponse {
	var f *failures.Error
	if !errors.As(err, &f) {
		return errorResponse{Error: err.Error()}
	}
	resp := errorResponse{Error: f.Detail, Kind: f.Kind}
	if f.Err != nil {
		resp.Details = f.Err.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a failure kind to an HTTP status. Provider failures are
// upstream problems, so they surface as 502.
func statusFor(kind failures.Kind) int {
	switch kind {
	case failures.InvalidInput, failures.UnsupportedFormat:
		return http.StatusBadRequest
	case failures.NotFound:
		return http.StatusNotFound
	case failures.EmbeddingFailure, failures.SearchFailure, failures.CompletionFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := failures.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("kind", string(kind)).Msg("Request failed")
	}
	writeJSON(w, status, newErrorResponse(err))
}

type chunkView struct {
	Score      float64 `json:"score"`
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunkIndex"`
	Snippet    string  `json:"snippet"`
}

func chunkViews(results []entities.RetrievalResult) []chunkView {
	views := make([]chunkView, len(results))
	for i, r := range results {
		views[i] = chunkView{
			Score:      r.Score,
			DocumentID: r.DocumentID,
			Title:      r.Title,
			ChunkIndex: r.ChunkIndex,
			Snippet:    r.Snippet(snippetLength),
		}
	}
	return views
}

type queryResponse struct {
	Query               string               `json:"query"`
	Answer              string               `json:"answer"`
	RelevantChunks      []chunkView          `json:"relevantChunks"`
	TokenUsage          entities.TokenUsage  `json:"tokenUsage"`
	Timestamp           time.Time            `json:"timestamp"`
	SessionID           string               `json:"sessionId,omitempty"`
	ConversationHistory *conversationHistory `json:"conversationHistory,omitempty"`
}

func newQueryResponse(answer *entities.Answer) queryResponse {
	return queryResponse{
		Query:          answer.Question,
		Answer:         answer.Text,
		RelevantChunks: chunkViews(answer.Results),
		TokenUsage:     answer.Usage,
		Timestamp:      answer.AnsweredAt,
	}
}
