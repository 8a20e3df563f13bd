package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clearhealth/regindex/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(t *testing.T, url string) *models.Document {
	t.Helper()
	doc, err := models.NewDocument(models.DocumentInput{
		Category:     "Federal Regulation - eCFR",
		Title:        "45 CFR 147.136 Internal claims and appeals",
		Kind:         models.KindRegulation,
		Jurisdiction: models.JurisdictionFederal,
		Citation:     "45 CFR 147.136",
		URL:          url,
		Text:         "Group health plans must provide an internal claims and appeals process.",
		Authority:    0.95,
		Tags:         []string{"appeals", "claims"},
		Metadata:     models.Metadata{"state_code": "CA"},
	})
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestDocumentCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := testDocument(t, "https://ecfr.gov/147.136")
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != doc.Title || got.Kind != doc.Kind || got.Checksum != doc.Checksum {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Authority != 0.95 {
		t.Errorf("authority not preserved: %f", got.Authority)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "appeals" {
		t.Errorf("tags not preserved: %v", got.Tags)
	}
	if got.Metadata.String("state_code") != "CA" {
		t.Errorf("metadata not preserved: %v", got.Metadata)
	}

	got.Title = "Revised title"
	if err := store.UpdateDocument(ctx, got); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	updated, _ := store.GetDocument(ctx, doc.ID)
	if updated.Title != "Revised title" {
		t.Errorf("update not applied: %s", updated.Title)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStorage(t)
	_, err := store.GetDocument(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDocumentBySourceIDLatest(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := testDocument(t, "https://ecfr.gov/147.136")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := store.CreateDocument(ctx, first); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	second := testDocument(t, "https://ecfr.gov/147.136")
	second.Text = "Amended text."
	second.Checksum = models.TextChecksum(second.Text)
	if err := store.CreateDocument(ctx, second); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := store.GetDocumentBySourceID(ctx, first.SourceID)
	if err != nil {
		t.Fatalf("GetDocumentBySourceID: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected latest version %s, got %s", second.ID, got.ID)
	}
}

func TestReplaceChunks(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := testDocument(t, "https://ecfr.gov/147.136")
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	chunks := []models.Chunk{
		{
			ID: models.ChunkID(doc.ID, doc.Checksum, 0), DocID: doc.ID, Ordinal: 0,
			CharStart: 0, CharEnd: 40, Text: "Group health plans must provide",
			TokenCount: 8, Authority: 0.95,
			SectionPath: []string{"45 CFR 147.136"}, Citations: []string{"45 CFR 147.136"},
			Topics: []string{"appeals"},
		},
		{
			ID: models.ChunkID(doc.ID, doc.Checksum, 1), DocID: doc.ID, Ordinal: 1,
			CharStart: 40, CharEnd: 72, Text: "an internal claims and appeals process.",
			TokenCount: 9, Authority: 0.95,
		},
	}
	if err := store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}

	got, err := store.GetChunksByDocID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetChunksByDocID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].Ordinal != 0 || got[1].Ordinal != 1 {
		t.Errorf("chunks out of order: %v %v", got[0].Ordinal, got[1].Ordinal)
	}
	if len(got[0].Citations) != 1 || got[0].Citations[0] != "45 CFR 147.136" {
		t.Errorf("citations not preserved: %v", got[0].Citations)
	}

	// Replacing again swaps the set completely.
	if err := store.ReplaceChunks(ctx, doc.ID, chunks[:1]); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}
	got, _ = store.GetChunksByDocID(ctx, doc.ID)
	if len(got) != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", len(got))
	}
}

func TestListAllChunksCorpusOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	older := testDocument(t, "https://example.gov/a")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testDocument(t, "https://example.gov/b")
	if err := store.CreateDocument(ctx, older); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := store.CreateDocument(ctx, newer); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	mk := func(doc *models.Document, ordinal int) models.Chunk {
		return models.Chunk{
			ID: models.ChunkID(doc.ID, doc.Checksum, ordinal), DocID: doc.ID,
			Ordinal: ordinal, Text: "text", TokenCount: 1, Authority: doc.Authority,
		}
	}
	if err := store.ReplaceChunks(ctx, newer.ID, []models.Chunk{mk(newer, 0)}); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}
	if err := store.ReplaceChunks(ctx, older.ID, []models.Chunk{mk(older, 0), mk(older, 1)}); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}

	all, err := store.ListAllChunks(ctx)
	if err != nil {
		t.Fatalf("ListAllChunks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(all))
	}
	if all[0].DocID != older.ID || all[1].DocID != older.ID || all[2].DocID != newer.ID {
		t.Errorf("chunks not in corpus order: %s %s %s", all[0].DocID, all[1].DocID, all[2].DocID)
	}
	if all[0].Ordinal != 0 || all[1].Ordinal != 1 {
		t.Errorf("ordinals out of order within document")
	}
}

func TestCounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := testDocument(t, "https://example.gov/c")
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := store.ReplaceChunks(ctx, doc.ID, []models.Chunk{
		{ID: "x1", DocID: doc.ID, Ordinal: 0, Text: "t", TokenCount: 1, Authority: 0.5},
	}); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}

	docs, err := store.CountDocuments(ctx)
	if err != nil || docs != 1 {
		t.Errorf("CountDocuments = %d, %v", docs, err)
	}
	chunks, err := store.CountChunks(ctx)
	if err != nil || chunks != 1 {
		t.Errorf("CountChunks = %d, %v", chunks, err)
	}
}

func TestListDocuments(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for i, url := range []string{"https://a.gov/1", "https://a.gov/2", "https://a.gov/3"} {
		doc := testDocument(t, url)
		doc.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if err := store.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	page, err := store.ListDocuments(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected 2 documents, got %d", len(page))
	}
}
