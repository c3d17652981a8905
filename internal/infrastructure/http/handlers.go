package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/conversation"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

// handleUpload ingests a multipart "file" with an optional "title".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+uploadOverhead)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, failures.Newf(failures.InvalidInput, "file exceeds the %d byte limit", s.opts.MaxUploadBytes))
			return
		}
		s.writeError(w, r, failures.Wrap(failures.InvalidInput, err, "parsing multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, failures.New(failures.InvalidInput, "no file uploaded"))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !s.ingest.Supports(filename) {
		s.writeError(w, r, failures.Newf(failures.UnsupportedFormat, "unsupported file type %q", filepath.Ext(filename)))
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		s.writeError(w, r, failures.Newf(failures.InvalidInput, "file exceeds the %d byte limit", s.opts.MaxUploadBytes))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, failures.Wrap(failures.InvalidInput, err, "reading upload"))
		return
	}

	doc, err := s.ingest.Ingest(r.Context(), entities.Source{
		Filename: filename,
		Title:    r.FormValue("title"),
		Data:     data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document uploaded and processed successfully",
		"document": doc,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ingest.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []entities.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": len(docs)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingest.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ingest.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Document deleted successfully",
		"documentId": id,
	})
}

type queryOptions struct {
	Limit     int    `json:"limit" validate:"gte=0,lte=50"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
}

type queryRequest struct {
	Query   string       `json:"query"`
	Options queryOptions `json:"options"`
}

type conversationHistory struct {
	Messages []entities.ConversationMessage `json:"messages"`
}

type conversationRequest struct {
	Query               string `json:"query"`
	ConversationHistory *struct {
		Messages *[]entities.ConversationMessage `json:"messages"`
	} `json:"conversationHistory"`
	Options queryOptions `json:"options"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return failures.Wrap(failures.InvalidInput, err, "decoding request body")
	}
	if err := s.validate.Struct(v); err != nil {
		return failures.Wrap(failures.InvalidInput, err, "validating request")
	}
	return nil
}

// validateMessages rejects client history with unknown roles or blank content.
func (s *Server) validateMessages(msgs []entities.ConversationMessage) error {
	for i, m := range msgs {
		if err := s.validate.Var(string(m.Role), "required,oneof=user assistant"); err != nil {
			return failures.Newf(failures.InvalidInput, "message %d: role %q must be user or assistant", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return failures.Newf(failures.InvalidInput, "message %d: content must not be empty", i)
		}
	}
	return nil
}

func (s *Server) topK(limit int) int {
	if limit > 0 {
		return limit
	}
	return s.query.TopK()
}

// handleQuery answers one question. With a sessionId the persisted history is
// used and extended.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	topK := s.topK(req.Options.Limit)

	if req.Options.SessionID == "" {
		answer, err := s.query.Answer(ctx, req.Query, nil, topK)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newQueryResponse(answer))
		return
	}

	stored, err := s.sessions.Load(ctx, req.Options.SessionID)
	if err != nil {
		s.writeError(w, r, failures.Wrap(failures.StorageFailure, err, "loading session"))
		return
	}
	session := conversation.FromMessages(s.opts.HistoryLimit, stored)
	answer, err := s.query.Converse(ctx, session, req.Query, topK)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Save(ctx, req.Options.SessionID, session.Messages()); err != nil {
		s.writeError(w, r, failures.Wrap(failures.StorageFailure, err, "saving session"))
		return
	}

	resp := newQueryResponse(answer)
	resp.SessionID = req.Options.SessionID
	writeJSON(w, http.StatusOK, resp)
}

// handleConversation answers with client-held history and returns the
// extended history.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ConversationHistory == nil || req.ConversationHistory.Messages == nil {
		s.writeError(w, r, failures.New(failures.InvalidInput, "conversationHistory.messages is required"))
		return
	}

	if err := s.validateMessages(*req.ConversationHistory.Messages); err != nil {
		s.writeError(w, r, err)
		return
	}

	session := conversation.FromMessages(s.opts.HistoryLimit, *req.ConversationHistory.Messages)
	answer, err := s.query.Converse(r.Context(), session, req.Query, s.topK(req.Options.Limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := newQueryResponse(answer)
	resp.ConversationHistory = &conversationHistory{Messages: session.Messages()}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, failures.Wrap(failures.StorageFailure, err, "deleting session"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Session cleared",
		"sessionId": id,
	})
}

// handleSearch returns retrieval results without calling the language model.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, failures.Newf(failures.InvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}

	results, err := s.query.Search(r.Context(), q, s.topK(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": chunkViews(results),
		"total":   len(results),
	})
}

// handleHealth reports store and embedding status. A failing dependency
// yields 503 with status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	status := http.StatusOK

	if count, err := s.store.Count(r.Context()); err != nil {
		body["status"] = "degraded"
		body["storeError"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		body["chunks"] = count
	}

	if dim, err := s.embedder.Dimension(r.Context()); err != nil {
		body["status"] = "degraded"
		body["embeddingError"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		body["dimension"] = dim
	}

	writeJSON(w, status, body)
}
