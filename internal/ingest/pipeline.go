// Package ingest runs the document intake pipeline: normalize fetched source
// material into documents, score authority, chunk, and persist. The retrieval
// index is then rebuilt from the stored corpus.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/clearhealth/regindex/internal/authority"
	"github.com/clearhealth/regindex/internal/chunker"
	"github.com/clearhealth/regindex/internal/extract"
	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/semantic"
	"github.com/clearhealth/regindex/internal/storage"
)

// Fetcher delivers source material from one origin (a scraper, an API client,
// a bulk download) as normalized document inputs.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]models.DocumentInput, error)
}

// Pipeline ingests documents into the warehouse.
type Pipeline struct {
	store     storage.Storage
	policy    *authority.Policy
	chunker   *chunker.Chunker
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewPipeline creates an ingestion pipeline. A nil logger disables logging.
func NewPipeline(store storage.Storage, policy *authority.Policy, ck *chunker.Chunker, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:     store,
		policy:    policy,
		chunker:   ck,
		extractor: extract.NewExtractor(),
		logger:    logger,
	}
}

// IngestDocument normalizes one input into a document, scores it, chunks it,
// and persists both. If the source already has a version with an identical
// checksum, nothing is written and the existing document is returned with
// ingested=false.
func (p *Pipeline) IngestDocument(ctx context.Context, in models.DocumentInput) (*models.Document, bool, error) {
	doc, err := models.NewDocument(in)
	if err != nil {
		return nil, false, fmt.Errorf("normalize document: %w", err)
	}

	existing, err := p.store.GetDocumentBySourceID(ctx, doc.SourceID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup source %s: %w", doc.SourceID, err)
	}
	if existing != nil && existing.Checksum == doc.Checksum {
		p.logger.Debug("document unchanged, skipping",
			zap.String("source_id", doc.SourceID),
			zap.String("title", doc.Title))
		return existing, false, nil
	}

	doc.Authority = p.policy.Score(doc)

	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("store document: %w", err)
	}

	chunks := p.chunker.ChunkDocument(doc)
	if err := p.store.ReplaceChunks(ctx, doc.ID, derefChunks(chunks)); err != nil {
		return nil, false, fmt.Errorf("store chunks: %w", err)
	}

	// The superseded version stays on record but leaves the retrieval corpus.
	if existing != nil {
		if err := p.store.ReplaceChunks(ctx, existing.ID, nil); err != nil {
			return nil, false, fmt.Errorf("discard superseded chunks: %w", err)
		}
	}

	p.logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.String("title", doc.Title),
		zap.String("doc_type", string(doc.Kind)),
		zap.Float64("authority", doc.Authority),
		zap.Int("chunks", len(chunks)),
		zap.Bool("superseded", existing != nil))
	return doc, true, nil
}

// IngestFetcher runs one fetcher and ingests everything it returns.
func (p *Pipeline) IngestFetcher(ctx context.Context, f Fetcher) (ingested, skipped int, err error) {
	inputs, err := f.Fetch(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch %s: %w", f.Name(), err)
	}
	for _, in := range inputs {
		_, ok, err := p.IngestDocument(ctx, in)
		if err != nil {
			return ingested, skipped, fmt.Errorf("ingest from %s: %w", f.Name(), err)
		}
		if ok {
			ingested++
		} else {
			skipped++
		}
	}
	p.logger.Info("fetcher complete",
		zap.String("fetcher", f.Name()),
		zap.Int("ingested", ingested),
		zap.Int("skipped", skipped))
	return ingested, skipped, nil
}

// IngestFile ingests one file from disk. A .json file holds a DocumentInput
// (or an array of them); any other format is run through text extraction and
// ingested as a dataset record with file-derived identity.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (ingested, skipped int, err error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		inputs, err := readInputsJSON(path)
		if err != nil {
			return 0, 0, err
		}
		for _, in := range inputs {
			_, ok, err := p.IngestDocument(ctx, in)
			if err != nil {
				return ingested, skipped, err
			}
			if ok {
				ingested++
			} else {
				skipped++
			}
		}
		return ingested, skipped, nil
	}

	text, err := p.extractor.Extract(path)
	if err != nil {
		return 0, 0, fmt.Errorf("extract %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Warn("file extracted to empty text, skipping", zap.String("path", path))
		return 0, 1, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	_, ok, err := p.IngestDocument(ctx, models.DocumentInput{
		Category:     "Local File",
		Title:        filepath.Base(path),
		Kind:         models.KindDatasetRecord,
		Jurisdiction: models.JurisdictionPayer,
		URL:          "file://" + abs,
		Text:         text,
	})
	if err != nil {
		return 0, 0, err
	}
	if ok {
		return 1, 0, nil
	}
	return 0, 1, nil
}

// Rebuild constructs a fresh index over the whole stored corpus, saves the
// snapshot to snapshotDir, and publishes it to the holder. Returns the number
// of chunks indexed.
func (p *Pipeline) Rebuild(ctx context.Context, scorer semantic.Scorer, weights index.Weights,
	snapshotDir string, holder *index.Holder, opts ...index.Option) (int, error) {

	chunks, err := p.store.ListAllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	idx, err := index.Build(ctx, chunks, scorer, weights, opts...)
	if err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}
	if snapshotDir != "" {
		if err := idx.Save(snapshotDir); err != nil {
			return 0, fmt.Errorf("save snapshot: %w", err)
		}
	}
	holder.Publish(idx)

	p.logger.Info("index rebuilt",
		zap.Int("chunks", idx.Size()),
		zap.String("snapshot_dir", snapshotDir))
	return idx.Size(), nil
}

func readInputsJSON(path string) ([]models.DocumentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var many []models.DocumentInput
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one models.DocumentInput
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []models.DocumentInput{one}, nil
}

func derefChunks(chunks []*models.Chunk) []models.Chunk {
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = *c
	}
	return out
}
