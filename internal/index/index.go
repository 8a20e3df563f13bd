// Package index combines lexical, semantic, and authority signals into a
// single ranked retrieval over regulation chunks. An index is immutable once
// built; updates go through a rebuild and are published atomically via Holder.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/clearhealth/regindex/internal/lexical"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/semantic"
)

// Weights controls the linear combination of ranking signals. They are not
// required to sum to 1; each is required to be non-negative.
type Weights struct {
	Lexical   float64 `json:"lexical" yaml:"lexical"`
	Semantic  float64 `json:"semantic" yaml:"semantic"`
	Authority float64 `json:"authority" yaml:"authority"`
}

// DefaultWeights favors lexical match while letting authority break ties
// between comparably relevant chunks.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.4, Semantic: 0.3, Authority: 0.3}
}

// Validate rejects negative weights and an all-zero combination.
func (w Weights) Validate() error {
	if w.Lexical < 0 || w.Semantic < 0 || w.Authority < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if w.Lexical == 0 && w.Semantic == 0 && w.Authority == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// Index is an immutable snapshot of the searchable corpus.
type Index struct {
	chunks  []models.Chunk
	lexical *lexical.Model
	scorer  semantic.Scorer
	weights Weights

	// When no chunk has any lexical or semantic signal for a query, rank by
	// authority alone instead of returning nothing.
	authorityFallback bool
}

// Option configures index construction.
type Option func(*Index)

// WithAuthorityFallback toggles pure-authority ranking for queries with no
// content signal. Enabled by default.
func WithAuthorityFallback(enabled bool) Option {
	return func(idx *Index) {
		idx.authorityFallback = enabled
	}
}

// Build constructs an index over chunks, fitting both the lexical model and
// the semantic scorer. Chunks are kept in the given order; callers pass them
// sorted by document and ordinal so ties rank deterministically.
func Build(ctx context.Context, chunks []models.Chunk, scorer semantic.Scorer, weights Weights, opts ...Option) (*Index, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if err := scorer.Build(ctx, texts); err != nil {
		return nil, fmt.Errorf("build semantic scorer: %w", err)
	}

	idx := &Index{
		chunks:            chunks,
		lexical:           lexical.Build(texts),
		scorer:            scorer,
		weights:           weights,
		authorityFallback: true,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Search ranks the corpus against query and returns up to topK chunks scoring
// at least minScore. Results carry the combined score plus the lexical and
// semantic components for diagnostics.
func (idx *Index) Search(ctx context.Context, query string, topK int, minScore float64) ([]*models.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK <= 0 {
		return nil, nil
	}
	if len(idx.chunks) == 0 {
		return nil, nil
	}

	lexScores := idx.lexical.NormalizedScores(query)
	semScores, err := idx.scorer.Score(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic score: %w", err)
	}
	if len(lexScores) != len(idx.chunks) || len(semScores) != len(idx.chunks) {
		return nil, fmt.Errorf("score length mismatch: lexical=%d semantic=%d chunks=%d",
			len(lexScores), len(semScores), len(idx.chunks))
	}

	var contentSignal bool
	for i := range idx.chunks {
		if lexScores[i] > 0 || semScores[i] > 0 {
			contentSignal = true
			break
		}
	}
	if !contentSignal && !idx.authorityFallback {
		return nil, nil
	}

	scored := make([]*models.ScoredChunk, len(idx.chunks))
	for i := range idx.chunks {
		chunk := &idx.chunks[i]
		score := idx.weights.Lexical*lexScores[i] +
			idx.weights.Semantic*semScores[i] +
			idx.weights.Authority*chunk.Authority
		if !contentSignal {
			score = chunk.Authority
		}
		scored[i] = &models.ScoredChunk{
			Chunk:         chunk,
			Score:         score,
			LexicalScore:  lexScores[i],
			SemanticScore: semScores[i],
		}
	}

	// Stable sort keeps corpus order (document, ordinal) for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	results := make([]*models.ScoredChunk, 0, topK)
	for _, sc := range scored {
		if sc.Score < minScore {
			continue
		}
		sc.Rank = len(results) + 1
		results = append(results, sc)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return len(idx.chunks)
}

// Chunks returns the indexed chunks in corpus order.
func (idx *Index) Chunks() []models.Chunk {
	return idx.chunks
}

// Weights returns the ranking weights the index was built with.
func (idx *Index) Weights() Weights {
	return idx.weights
}
