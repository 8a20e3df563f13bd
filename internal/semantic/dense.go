package semantic

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/clearhealth/regindex/internal/embedding"
)

// DenseScorer embeds every corpus chunk once at build time and scores queries
// by cosine similarity against the stored unit vectors. Cosine in [-1,1] is
// rescaled to [0,1] so the combined ranking formula never sees negatives.
type DenseScorer struct {
	embedder   embedding.Embedder
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewDenseScorer wraps an embedder. The embedder is also required on Load,
// since query vectors must come from the same model as the stored ones.
func NewDenseScorer(embedder embedding.Embedder) *DenseScorer {
	return &DenseScorer{
		embedder:   embedder,
		dimensions: embedder.Dimensions(),
	}
}

// Name returns "dense".
func (s *DenseScorer) Name() string {
	return "dense"
}

// Build embeds all texts and stores their vectors.
func (s *DenseScorer) Build(ctx context.Context, texts []string) error {
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	for i, vec := range vectors {
		if len(vec) != s.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(vec), s.dimensions)
		}
	}
	s.mu.Lock()
	s.vectors = vectors
	s.mu.Unlock()
	return nil
}

// Score embeds the query and returns rescaled cosine similarity per chunk.
func (s *DenseScorer) Score(ctx context.Context, query string) ([]float64, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(queryVec), s.dimensions)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make([]float64, len(s.vectors))
	for i, vec := range s.vectors {
		var dot float64
		for j := 0; j < s.dimensions; j++ {
			dot += float64(queryVec[j] * vec[j])
		}
		scores[i] = clampUnit((dot + 1) / 2)
	}
	return scores, nil
}

// Save writes the stored vectors to path. Format: dimensions (4 bytes),
// vector count (4 bytes), then count*dimensions float32s, all little-endian.
func (s *DenseScorer) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create scorer dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scorer file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(s.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range s.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads vectors previously written by Save. Dimensions must match the
// embedder the scorer was constructed with.
func (s *DenseScorer) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open scorer file: %w", err)
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != s.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, embedder produces %d", dim, s.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	// The count comes from the file; check it against the file size before
	// sizing any allocation by it.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat scorer file: %w", err)
	}
	if want := 8 + int64(n)*int64(s.dimensions)*4; info.Size() != want {
		return fmt.Errorf("scorer file is %d bytes, expected %d for %d vectors of %d dimensions",
			info.Size(), want, n, s.dimensions)
	}

	vectors := make([][]float32, 0, n)
	buf := make([]byte, s.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	s.mu.Lock()
	s.vectors = vectors
	s.mu.Unlock()
	return nil
}

// Size returns the number of stored vectors.
func (s *DenseScorer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
