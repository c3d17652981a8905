// Package vectordb provides vector store adapters implementing ports.VectorStore.
// Search is exact cosine similarity; no approximate index is built.
package vectordb

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// InMemoryStore keeps every point in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	points    []point
	byID      map[string]int
	dimension int
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]int)}
}

// Init records the vector dimension every later call must match.
func (s *InMemoryStore) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

// Upsert stores vector under the chunk's point id, replacing any previous point.
func (s *InMemoryStore) Upsert(ctx context.Context, vector []float32, meta entities.ChunkMetadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkDimension(s.dimension, vector); err != nil {
		return "", err
	}

	id := PointID(meta.DocumentID, meta.ChunkIndex)
	p := point{id: id, vector: append([]float32(nil), vector...), meta: meta}
	if i, ok := s.byID[id]; ok {
		s.points[i] = p
		return id, nil
	}
	s.byID[id] = len(s.points)
	s.points = append(s.points, p)
	return id, nil
}

// Search finds the most similar chunks to a query embedding.
func (s *InMemoryStore) Search(ctx context.Context, vector []float32, limit int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := checkDimension(s.dimension, vector); err != nil {
		return nil, err
	}
	return rank(s.points, vector, limit), nil
}

// DeleteByDocument removes all points for a document.
func (s *InMemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.points[:0]
	for _, p := range s.points {
		if p.meta.DocumentID != documentID {
			kept = append(kept, p)
		}
	}
	s.points = kept

	s.byID = make(map[string]int, len(s.points))
	for i, p := range s.points {
		s.byID[p.id] = i
	}
	return nil
}

// Count returns the number of stored points.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
