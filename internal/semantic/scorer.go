// Package semantic scores corpus chunks against a query by meaning rather
// than exact term match. Two backends are provided: a dense scorer backed by
// an embedder, and a TF-IDF cosine scorer that needs no model at all.
package semantic

import "context"

// Scorer assigns a relevance score in [0,1] to every chunk of the corpus it
// was built over. Scores are positional: Score returns one value per text
// passed to Build, in the same order.
type Scorer interface {
	// Name identifies the backend ("dense" or "tfidf") for persistence manifests.
	Name() string
	// Build computes per-chunk state over the corpus, replacing any previous state.
	Build(ctx context.Context, texts []string) error
	// Score returns a score in [0,1] for each corpus chunk.
	Score(ctx context.Context, query string) ([]float64, error)
	// Save persists the built state to path.
	Save(path string) error
	// Load restores state previously written by Save.
	Load(path string) error
}
