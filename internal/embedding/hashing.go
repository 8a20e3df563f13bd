package embedding

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/clearhealth/regindex/pkg/utils"
)

// HashingEmbedder embeds text by feature-hashing its tokens into a fixed
// number of dimensions (the hashing trick). Texts sharing vocabulary get
// similar vectors, so cosine similarity carries a real, if crude, relevance
// signal without any model file. Output is deterministic: the same text
// always yields the same embedding, which keeps index builds reproducible.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a feature-hashing embedder. Non-positive
// dimensions default to 384.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed hashes each lowercased token into two dimensions (one with its hash,
// one with a rotated hash, signs derived from the hash parity) and normalizes
// the accumulated vector to unit length.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		i := int(sum % uint64(e.dimensions))
		j := int((sum >> 17) % uint64(e.dimensions))
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[i] += sign
		vec[j] += sign * 0.5
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashingEmbedder) Close() error {
	return nil
}
