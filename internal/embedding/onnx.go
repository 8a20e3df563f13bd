//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/clearhealth/regindex/pkg/utils"
)

var onnxInputNames = []string{"input_ids", "attention_mask", "token_type_ids"}

// ONNXEmbedder runs a transformer encoder through ONNX Runtime. It needs CGO
// and the onnxruntime shared library at process start; when either is missing
// callers fall back to the hashing embedder.
type ONNXEmbedder struct {
	session   *ort.AdvancedSession
	dims      int
	maxTokens int
	cache     *Cache
	tokenizer Tokenizer

	// One inference at a time: tensors are allocated once and Run reads and
	// writes them in place.
	mu     sync.Mutex
	inputs [3]*ort.Tensor[int64]
	output *ort.Tensor[float32]
}

// NewONNXEmbedder loads the model at modelPath and prepares a reusable
// session. The runtime environment is initialized on first use.
func NewONNXEmbedder(modelPath string, dims, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	e := &ONNXEmbedder{
		dims:      dims,
		maxTokens: maxTokens,
		cache:     NewCache(cacheSize),
		tokenizer: &WordTokenizer{},
	}
	destroy := func() {
		for _, t := range e.inputs {
			if t != nil {
				_ = t.Destroy()
			}
		}
		if e.output != nil {
			_ = e.output.Destroy()
		}
	}

	ids, mask, types := e.tokenizer.Tokenize("", maxTokens)
	inputShape := ort.NewShape(1, int64(maxTokens))
	for i, data := range [][]int64{ids, mask, types} {
		t, err := ort.NewTensor(inputShape, data)
		if err != nil {
			destroy()
			return nil, fmt.Errorf("create %s tensor: %w", onnxInputNames[i], err)
		}
		e.inputs[i] = t
	}
	out, err := ort.NewTensor(ort.NewShape(1, int64(dims)), make([]float32, dims))
	if err != nil {
		destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	e.output = out

	session, err := ort.NewAdvancedSession(
		modelPath,
		onnxInputNames,
		[]string{"output"},
		[]ort.ArbitraryTensor{e.inputs[0], e.inputs[1], e.inputs[2]},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	e.session = session
	return e, nil
}

// Embed returns the L2-normalized embedding for text, serving repeats from
// the cache.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	for i, data := range [][]int64{ids, mask, types} {
		copy(e.inputs[i].GetData(), data)
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	embedding := make([]float32, e.dims)
	copy(embedding, e.output.GetData()[:e.dims])
	utils.NormalizeL2(embedding)
	e.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedBatch embeds each text in order.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
func (e *ONNXEmbedder) Dimensions() int {
	return e.dims
}

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	for i, t := range e.inputs {
		if t != nil {
			_ = t.Destroy()
			e.inputs[i] = nil
		}
	}
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
	return err
}
