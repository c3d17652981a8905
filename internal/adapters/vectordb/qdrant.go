package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// QdrantConfig configures the Qdrant REST client.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// QdrantStore is a minimal REST client to Qdrant using cosine distance.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	logger     arbor.ILogger
}

// NewQdrantStore creates a Qdrant-backed store. Call Init before use.
func NewQdrantStore(cfg QdrantConfig, logger arbor.ILogger) *QdrantStore {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &QdrantStore{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Init creates the collection and its payload indexes when missing.
func (s *QdrantStore) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}

	status, err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil {
		s.logger.Debug().Str("collection", s.collection).Msg("Qdrant collection exists")
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	if _, err := s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	for field, schema := range map[string]string{"document_id": "keyword", "chunk_index": "integer"} {
		index := map[string]any{"field_name": field, "field_schema": schema}
		if _, err := s.do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
			return fmt.Errorf("creating %s index: %w", field, err)
		}
	}

	s.logger.Info().Str("collection", s.collection).Int("dimension", dimension).Msg("Created Qdrant collection")
	return nil
}

// Upsert writes one point and waits for it to be indexed.
func (s *QdrantStore) Upsert(ctx context.Context, vector []float32, meta entities.ChunkMetadata) (string, error) {
	id := PointID(meta.DocumentID, meta.ChunkIndex)
	body := map[string]any{
		"points": []map[string]any{{
			"id":      id,
			"vector":  vector,
			"payload": meta,
		}},
	}
	if _, err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
		return "", err
	}
	return id, nil
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64                `json:"score"`
		Payload entities.ChunkMetadata `json:"payload"`
	} `json:"result"`
}

// Search returns the closest points as ranked by Qdrant.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]entities.RetrievalResult, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp qdrantSearchResponse
	if _, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	results := make([]entities.RetrievalResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, entities.RetrievalResult{
			Score:      r.Score,
			DocumentID: r.Payload.DocumentID,
			ChunkIndex: r.Payload.ChunkIndex,
			Text:       r.Payload.Text,
			Title:      r.Payload.Title,
		})
	}
	return results, nil
}

// DeleteByDocument removes every point whose document_id matches.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{{
				"key":   "document_id",
				"match": map[string]any{"value": documentID},
			}},
		},
	}
	_, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), body, nil)
	return err
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (s *QdrantStore) Close() error { return nil }

func (s *QdrantStore) collectionPath(suffix string) string {
	return s.baseURL + "/collections/" + url.PathEscape(s.collection) + suffix
}

// do sends body as JSON and decodes the reply into out when given. It
// returns the HTTP status so callers can tell a missing collection apart.
func (s *QdrantStore) do(ctx context.Context, method, target string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s: %s", method, req.URL.Path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
