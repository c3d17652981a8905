// Package badger stores document descriptors in BadgerDB through badgerhold.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// documentRecord is the persisted form of entities.Document.
type documentRecord struct {
	ID          string
	Title       string
	Filename    string `badgerhold:"index"`
	TotalChunks int
	ProcessedAt time.Time
}

func toRecord(doc *entities.Document) *documentRecord {
	return &documentRecord{
		ID:          doc.ID,
		Title:       doc.Title,
		Filename:    doc.Filename,
		TotalChunks: doc.TotalChunks,
		ProcessedAt: doc.ProcessedAt,
	}
}

func (r documentRecord) toEntity() entities.Document {
	return entities.Document{
		ID:          r.ID,
		Title:       r.Title,
		Filename:    r.Filename,
		TotalChunks: r.TotalChunks,
		ProcessedAt: r.ProcessedAt,
	}
}

// DocumentStore implements ports.DocumentRepository.
type DocumentStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

var _ ports.DocumentRepository = (*DocumentStore)(nil)

// NewDocumentStore opens the Badger database at path, creating it if needed.
func NewDocumentStore(path string, logger arbor.ILogger) (*DocumentStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &DocumentStore{store: store, logger: logger}, nil
}

// Save inserts or replaces a descriptor.
func (s *DocumentStore) Save(ctx context.Context, doc *entities.Document) error {
	if doc.ID == "" {
		return errors.New("document ID is required")
	}
	if err := s.store.Upsert(doc.ID, toRecord(doc)); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Get returns ports.ErrNotFound for an unknown id.
func (s *DocumentStore) Get(ctx context.Context, id string) (*entities.Document, error) {
	var rec documentRecord
	if err := s.store.Get(id, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc := rec.toEntity()
	return &doc, nil
}

// List returns all descriptors in no particular order.
func (s *DocumentStore) List(ctx context.Context) ([]entities.Document, error) {
	var recs []documentRecord
	if err := s.store.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return toEntities(recs), nil
}

// FindByFilename returns descriptors ingested from filename.
func (s *DocumentStore) FindByFilename(ctx context.Context, filename string) ([]entities.Document, error) {
	var recs []documentRecord
	if err := s.store.Find(&recs, badgerhold.Where("Filename").Eq(filename).Index("Filename")); err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	return toEntities(recs), nil
}

// Delete removes a descriptor. Deleting an unknown id is not an error.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id, &documentRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *DocumentStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func toEntities(recs []documentRecord) []entities.Document {
	docs := make([]entities.Document, len(recs))
	for i, r := range recs {
		docs[i] = r.toEntity()
	}
	return docs
}
