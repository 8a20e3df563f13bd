package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clearhealth/regindex/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		category TEXT,
		title TEXT,
		doc_type TEXT NOT NULL,
		jurisdiction TEXT NOT NULL,
		citation TEXT,
		effective_date TIMESTAMP,
		published_date TIMESTAMP,
		revised_date TIMESTAMP,
		version TEXT,
		url TEXT NOT NULL,
		license TEXT,
		text TEXT NOT NULL,
		checksum_sha256 TEXT NOT NULL,
		authority_score REAL NOT NULL,
		tags TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_source_id ON documents(source_id);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		char_start INTEGER NOT NULL,
		char_end INTEGER NOT NULL,
		text TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		headings TEXT,
		section_path TEXT,
		citations TEXT,
		authority_rank REAL NOT NULL,
		topics TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc_ordinal ON chunks(doc_id, ordinal);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	tags, metadata, err := encodeDocLists(doc)
	if err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_id, category, title, doc_type, jurisdiction, citation,
			effective_date, published_date, revised_date, version, url, license, text,
			checksum_sha256, authority_score, tags, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SourceID, doc.Category, doc.Title, string(doc.Kind), string(doc.Jurisdiction),
		doc.Citation, doc.EffectiveDate, doc.PublishedDate, doc.RevisedDate, doc.Version,
		doc.URL, doc.License, doc.Text, doc.Checksum, doc.Authority, tags, metadata, doc.CreatedAt,
	)
	return err
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, selectDocument+` WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, err
}

// GetDocumentBySourceID returns the most recently created document for a source.
func (s *SQLiteStorage) GetDocumentBySourceID(ctx context.Context, sourceID string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		selectDocument+` WHERE source_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, sourceID)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %s: %w", sourceID, ErrNotFound)
	}
	return doc, err
}

// UpdateDocument updates an existing document.
func (s *SQLiteStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	tags, metadata, err := encodeDocLists(doc)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET category = ?, title = ?, doc_type = ?, jurisdiction = ?, citation = ?,
			effective_date = ?, published_date = ?, revised_date = ?, version = ?, url = ?,
			license = ?, text = ?, checksum_sha256 = ?, authority_score = ?, tags = ?, metadata = ?
		 WHERE id = ?`,
		doc.Category, doc.Title, string(doc.Kind), string(doc.Jurisdiction), doc.Citation,
		doc.EffectiveDate, doc.PublishedDate, doc.RevisedDate, doc.Version, doc.URL,
		doc.License, doc.Text, doc.Checksum, doc.Authority, tags, metadata, doc.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, ErrNotFound)
	}
	return nil
}

// ListDocuments returns documents ordered oldest first, with offset and limit.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		selectDocument+` ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetChunksByDocID returns all chunks for a document ordered by ordinal.
func (s *SQLiteStorage) GetChunksByDocID(ctx context.Context, docID string) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		selectChunk+` WHERE doc_id = ? ORDER BY ordinal`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ReplaceChunks deletes any existing chunks for docID and inserts the new set
// in one transaction.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, doc_id, ordinal, char_start, char_end, text, token_count,
			headings, section_path, citations, authority_rank, topics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range chunks {
		c := &chunks[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		headings, sectionPath, citations, topics, err := encodeChunkLists(c)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocID, c.Ordinal, c.CharStart, c.CharEnd,
			c.Text, c.TokenCount, headings, sectionPath, citations, c.Authority, topics, c.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAllChunks returns the full corpus in deterministic order: document
// creation time, then chunk ordinal. The index is built over this order.
func (s *SQLiteStorage) ListAllChunks(ctx context.Context) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		selectChunk+` JOIN documents d ON d.id = chunks.doc_id
		 ORDER BY d.created_at, d.id, chunks.ordinal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const selectDocument = `SELECT id, source_id, category, title, doc_type, jurisdiction, citation,
	effective_date, published_date, revised_date, version, url, license, text,
	checksum_sha256, authority_score, tags, metadata, created_at FROM documents`

const selectChunk = `SELECT chunks.id, chunks.doc_id, chunks.ordinal, chunks.char_start,
	chunks.char_end, chunks.text, chunks.token_count, chunks.headings, chunks.section_path,
	chunks.citations, chunks.authority_rank, chunks.topics, chunks.created_at FROM chunks`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var kind, jurisdiction string
	var tags, metadata sql.NullString
	err := row.Scan(&doc.ID, &doc.SourceID, &doc.Category, &doc.Title, &kind, &jurisdiction,
		&doc.Citation, &doc.EffectiveDate, &doc.PublishedDate, &doc.RevisedDate, &doc.Version,
		&doc.URL, &doc.License, &doc.Text, &doc.Checksum, &doc.Authority, &tags, &metadata,
		&doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.Kind = models.DocKind(kind)
	doc.Jurisdiction = models.Jurisdiction(jurisdiction)
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &doc.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

func scanChunks(rows *sql.Rows) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var headings, sectionPath, citations, topics sql.NullString
		if err := rows.Scan(&c.ID, &c.DocID, &c.Ordinal, &c.CharStart, &c.CharEnd, &c.Text,
			&c.TokenCount, &headings, &sectionPath, &citations, &c.Authority, &topics,
			&c.CreatedAt); err != nil {
			return nil, err
		}
		for dst, src := range map[*[]string]sql.NullString{
			&c.Headings: headings, &c.SectionPath: sectionPath,
			&c.Citations: citations, &c.Topics: topics,
		} {
			if src.Valid && src.String != "" {
				if err := json.Unmarshal([]byte(src.String), dst); err != nil {
					return nil, fmt.Errorf("failed to unmarshal chunk list: %w", err)
				}
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func encodeDocLists(doc *models.Document) (tags, metadata string, err error) {
	t, err := json.Marshal(doc.Tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	m, err := json.Marshal(doc.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(t), string(m), nil
}

func encodeChunkLists(c *models.Chunk) (headings, sectionPath, citations, topics string, err error) {
	enc := func(v []string) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	if headings, err = enc(c.Headings); err != nil {
		return
	}
	if sectionPath, err = enc(c.SectionPath); err != nil {
		return
	}
	if citations, err = enc(c.Citations); err != nil {
		return
	}
	topics, err = enc(c.Topics)
	return
}
