package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/clearhealth/regindex/internal/lexical"
)

// TFIDFScorer scores by cosine similarity between TF-IDF weight vectors. It
// needs no model file, so it serves air-gapped deployments and tests. Doc
// vectors are L2-normalized at build time; query terms unseen in the corpus
// are ignored.
type TFIDFScorer struct {
	state tfidfState
	mu    sync.RWMutex
}

type tfidfState struct {
	DocCount int                  `json:"doc_count"`
	DocFreqs map[string]int       `json:"doc_freqs"`
	Docs     []map[string]float64 `json:"docs"`
}

// NewTFIDFScorer returns an empty TF-IDF scorer.
func NewTFIDFScorer() *TFIDFScorer {
	return &TFIDFScorer{}
}

// Name returns "tfidf".
func (s *TFIDFScorer) Name() string {
	return "tfidf"
}

// Build computes normalized TF-IDF vectors for all texts.
func (s *TFIDFScorer) Build(ctx context.Context, texts []string) error {
	state := tfidfState{
		DocCount: len(texts),
		DocFreqs: make(map[string]int),
		Docs:     make([]map[string]float64, len(texts)),
	}

	termFreqs := make([]map[string]int, len(texts))
	for i, text := range texts {
		tf := make(map[string]int)
		for _, term := range lexical.Tokenize(text) {
			tf[term]++
		}
		termFreqs[i] = tf
		for term := range tf {
			state.DocFreqs[term]++
		}
	}

	for i, tf := range termFreqs {
		weights := make(map[string]float64, len(tf))
		for term, count := range tf {
			weights[term] = float64(count) * idf(state.DocCount, state.DocFreqs[term])
		}
		normalizeWeights(weights)
		state.Docs[i] = weights
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Score returns the cosine similarity of the query's TF-IDF vector against
// each corpus chunk.
func (s *TFIDFScorer) Score(ctx context.Context, query string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryTF := make(map[string]int)
	for _, term := range lexical.Tokenize(query) {
		if _, known := s.state.DocFreqs[term]; known {
			queryTF[term]++
		}
	}
	queryWeights := make(map[string]float64, len(queryTF))
	for term, count := range queryTF {
		queryWeights[term] = float64(count) * idf(s.state.DocCount, s.state.DocFreqs[term])
	}
	normalizeWeights(queryWeights)

	scores := make([]float64, len(s.state.Docs))
	if len(queryWeights) == 0 {
		return scores, nil
	}
	for i, doc := range s.state.Docs {
		var dot float64
		for term, qw := range queryWeights {
			if dw, ok := doc[term]; ok {
				dot += qw * dw
			}
		}
		scores[i] = clampUnit(dot)
	}
	return scores, nil
}

// Save writes the scorer state to path as JSON.
func (s *TFIDFScorer) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create scorer dir: %w", err)
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("marshal tfidf state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write tfidf state: %w", err)
	}
	return nil
}

// Load restores state previously written by Save.
func (s *TFIDFScorer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tfidf state: %w", err)
	}
	var state tfidfState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal tfidf state: %w", err)
	}
	if state.DocFreqs == nil {
		state.DocFreqs = make(map[string]int)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Smoothed IDF; never zero, so corpus-wide terms still contribute.
func idf(docCount, docFreq int) float64 {
	return math.Log(float64(1+docCount)/float64(1+docFreq)) + 1
}

func normalizeWeights(weights map[string]float64) {
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := 1 / math.Sqrt(sum)
	for term := range weights {
		weights[term] *= norm
	}
}
