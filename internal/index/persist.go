package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clearhealth/regindex/internal/lexical"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/semantic"
)

const (
	manifestVersion = 1

	manifestFile = "manifest.json"
	chunksFile   = "chunks.json"
	lexicalFile  = "lexical.json"
	semanticFile = "semantic.dat"
)

type manifest struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	ChunkCount int       `json:"chunk_count"`
	Scorer     string    `json:"scorer"`
	Weights    Weights   `json:"weights"`
}

// Save persists the index snapshot under dir. The snapshot is written to a
// temp directory first and swapped in with a rename, so a crash mid-save
// never leaves a half-written snapshot at dir.
func (idx *Index) Save(dir string) error {
	if dir == "" {
		return fmt.Errorf("index dir must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clear temp dir: %w", err)
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	m := manifest{
		Version:    manifestVersion,
		CreatedAt:  time.Now().UTC(),
		ChunkCount: len(idx.chunks),
		Scorer:     idx.scorer.Name(),
		Weights:    idx.weights,
	}
	if err := writeJSON(filepath.Join(tmp, manifestFile), m); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(tmp, chunksFile), idx.chunks); err != nil {
		return err
	}
	if err := idx.lexical.Save(filepath.Join(tmp, lexicalFile)); err != nil {
		return fmt.Errorf("save lexical model: %w", err)
	}
	if err := idx.scorer.Save(filepath.Join(tmp, semanticFile)); err != nil {
		return fmt.Errorf("save semantic scorer: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove old snapshot: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from dir. The scorer must match the backend recorded
// in the manifest; its model state is restored from the snapshot.
func Load(ctx context.Context, dir string, scorer semantic.Scorer, opts ...Option) (*Index, error) {
	var m manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &m); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", m.Version, manifestVersion)
	}
	if m.Scorer != scorer.Name() {
		return nil, fmt.Errorf("snapshot built with scorer %q, configured scorer is %q", m.Scorer, scorer.Name())
	}
	if err := m.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}

	var chunks []models.Chunk
	if err := readJSON(filepath.Join(dir, chunksFile), &chunks); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	if len(chunks) != m.ChunkCount {
		return nil, fmt.Errorf("chunk count mismatch: manifest says %d, file has %d", m.ChunkCount, len(chunks))
	}

	lexModel, err := lexical.Load(filepath.Join(dir, lexicalFile))
	if err != nil {
		return nil, fmt.Errorf("load lexical model: %w", err)
	}
	if err := scorer.Load(filepath.Join(dir, semanticFile)); err != nil {
		return nil, fmt.Errorf("load semantic scorer: %w", err)
	}

	idx := &Index{
		chunks:            chunks,
		lexical:           lexModel,
		scorer:            scorer,
		weights:           m.Weights,
		authorityFallback: true,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
