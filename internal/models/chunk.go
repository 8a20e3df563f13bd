package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Chunk is one retrieval unit derived from exactly one Document.
// Chunks are immutable; when a document's checksum changes the old chunks are
// discarded and a new set is produced.
type Chunk struct {
	ID          string    `json:"chunk_id"`
	DocID       string    `json:"doc_id"` // back-reference to the parent document
	Ordinal     int       `json:"ordinal"`
	CharStart   int       `json:"char_start"` // offset into the parent document text
	CharEnd     int       `json:"char_end"`
	Text        string    `json:"text"`
	TokenCount  int       `json:"token_count"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Headings    []string  `json:"headings,omitempty"`
	SectionPath []string  `json:"section_path,omitempty"` // outermost first
	Citations   []string  `json:"citations,omitempty"`
	Authority   float64   `json:"authority_rank"` // copied from the parent document at creation
	Topics      []string  `json:"topics,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkID returns a content-derived chunk identifier. The same document
// version (ID + checksum) and ordinal always yield the same ID, so rechunking
// an unchanged document is idempotent, while a text change produces fresh IDs.
func ChunkID(docID, checksum string, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", docID, checksum, ordinal)))
	return hex.EncodeToString(sum[:])[:16]
}

// EstimateTokens gives a rough token count for text (about 4 characters per token).
func EstimateTokens(text string) int {
	return len(text) / 4
}
