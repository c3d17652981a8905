package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// SQLiteStore persists points in a SQLite file and searches them by brute force.
type SQLiteStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	dimension int
	logger    arbor.ILogger
}

// NewSQLiteStore opens (or creates) vectors.db under dataPath.
func NewSQLiteStore(dataPath string, logger arbor.ILogger) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "vectors.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS points (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		title TEXT,
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_points_document_id ON points(document_id);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Init records the dimension on first use. A store created with a different
// dimension is refused, since its vectors cannot be compared with new ones.
func (s *SQLiteStore) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'dimension'").Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO settings (key, value) VALUES ('dimension', ?)", strconv.Itoa(dimension)); err != nil {
			return fmt.Errorf("saving dimension: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	default:
		existing, err := strconv.Atoi(stored)
		if err != nil {
			return fmt.Errorf("corrupt stored dimension %q: %w", stored, err)
		}
		if existing != dimension {
			return fmt.Errorf("store was created with %d dimensions, embedder produces %d", existing, dimension)
		}
	}

	s.dimension = dimension
	return nil
}

// Upsert saves a point, replacing any previous point for the same chunk.
func (s *SQLiteStore) Upsert(ctx context.Context, vector []float32, meta entities.ChunkMetadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkDimension(s.dimension, vector); err != nil {
		return "", err
	}

	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return "", fmt.Errorf("encoding embedding: %w", err)
	}

	id := PointID(meta.DocumentID, meta.ChunkIndex)
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO points (id, document_id, chunk_index, text, title, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, meta.DocumentID, meta.ChunkIndex, meta.Text, meta.Title, embeddingJSON)
	if err != nil {
		return "", fmt.Errorf("inserting point: %w", err)
	}
	return id, nil
}

// Search finds the most similar chunks to a query embedding.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, limit int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := checkDimension(s.dimension, vector); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, text, title, embedding
		FROM points
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var points []point
	for rows.Next() {
		var p point
		var title sql.NullString
		var embeddingJSON []byte

		if err := rows.Scan(&p.id, &p.meta.DocumentID, &p.meta.ChunkIndex, &p.meta.Text, &title, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embeddingJSON, &p.vector); err != nil {
			s.logger.Warn().
				Err(err).
				Str("point_id", p.id).
				Str("document_id", p.meta.DocumentID).
				Msg("Skipping point with unreadable embedding")
			continue
		}
		p.meta.Title = title.String
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	return rank(points, vector, limit), nil
}

// DeleteByDocument removes all points for a document.
func (s *SQLiteStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM points WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

// Count returns the number of stored points.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
