package vectordb

import (
	"fmt"

	"github.com/google/uuid"
)

// PointID derives a stable point id from a document id and chunk index, so
// re-indexing a chunk replaces its previous point instead of duplicating it.
func PointID(documentID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%d", documentID, chunkIndex))).String()
}
