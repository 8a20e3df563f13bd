// Package embedding produces vector embeddings for chunk and query text.
// The default backend is a lightweight feature-hashing embedder; an ONNX
// transformer backend is available in cgo builds.
package embedding

import "context"

// Embedder produces unit-length vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
