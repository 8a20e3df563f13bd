// Package storage defines the persistence interface for the document
// warehouse: regulatory documents and the chunks derived from them.
package storage

import (
	"context"
	"errors"

	"github.com/clearhealth/regindex/internal/models"
)

// ErrNotFound is returned when a requested document or chunk does not exist.
var ErrNotFound = errors.New("not found")

// Storage persists documents and their chunks. Documents are never updated in
// place except by supersession: a changed source produces a new version under
// the same source ID.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetDocumentBySourceID returns the latest document version for a source URL hash.
	GetDocumentBySourceID(ctx context.Context, sourceID string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Chunk operations
	GetChunksByDocID(ctx context.Context, docID string) ([]models.Chunk, error)
	// ReplaceChunks atomically swaps the chunk set for a document.
	ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) error
	// ListAllChunks returns every chunk in deterministic corpus order
	// (document creation time, then ordinal).
	ListAllChunks(ctx context.Context) ([]models.Chunk, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
