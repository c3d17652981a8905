package vectordb

import (
	"fmt"
	"math"
	"sort"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// point is one stored chunk vector with its payload.
type point struct {
	id     string
	vector []float32
	meta   entities.ChunkMetadata
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores every point against query and returns the best limit,
// highest score first. Ties keep storage order.
func rank(points []point, query []float32, limit int) []entities.RetrievalResult {
	results := make([]entities.RetrievalResult, len(points))
	for i, p := range points {
		results[i] = entities.RetrievalResult{
			Score:      cosineSimilarity(query, p.vector),
			DocumentID: p.meta.DocumentID,
			ChunkIndex: p.meta.ChunkIndex,
			Text:       p.meta.Text,
			Title:      p.meta.Title,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func checkDimension(want int, vector []float32) error {
	if want > 0 && len(vector) != want {
		return fmt.Errorf("vector has %d dimensions, store expects %d", len(vector), want)
	}
	return nil
}
