// Package lexical provides a BM25 term-frequency model over chunk texts.
//
// The model scores every chunk in the corpus for a query (including chunks
// with no matching term, which score zero) so the hybrid index can combine
// lexical scores with semantic and authority signals across the whole corpus.
// All model state serializes to JSON so an index snapshot round-trips exactly.
package lexical

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"unicode"
)

// BM25 parameters. k1 controls term-frequency saturation, b the strength of
// document-length normalization.
const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// Model is an immutable BM25 index over a fixed corpus. Build once, then
// Scores may be called concurrently.
type Model struct {
	K1        float64          `json:"k1"`
	B         float64          `json:"b"`
	DocCount  int              `json:"doc_count"`
	AvgDocLen float64          `json:"avg_doc_len"`
	DocLens   []int            `json:"doc_lens"`
	DocFreqs  map[string]int   `json:"doc_freqs"`
	TermFreqs []map[string]int `json:"term_freqs"`
}

// Build tokenizes texts (lowercase, whitespace split) and computes term and
// document frequencies. An empty corpus yields a model that scores nothing.
func Build(texts []string) *Model {
	m := &Model{
		K1:        defaultK1,
		B:         defaultB,
		DocCount:  len(texts),
		DocLens:   make([]int, len(texts)),
		DocFreqs:  make(map[string]int),
		TermFreqs: make([]map[string]int, len(texts)),
	}
	totalLen := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		m.DocLens[i] = len(tokens)
		totalLen += len(tokens)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		m.TermFreqs[i] = tf
		for term := range tf {
			m.DocFreqs[term]++
		}
	}
	if len(texts) > 0 {
		m.AvgDocLen = float64(totalLen) / float64(len(texts))
	}
	return m
}

// Tokenize lowercases and splits on any run of non-alphanumeric characters,
// so "authorization," and "authorization?" produce the same term.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Scores returns the raw BM25 score of every corpus document for the query,
// indexed by corpus position. Uses the non-negative Lucene-style IDF
// ln(1 + (N-df+0.5)/(df+0.5)) so scores never go below zero.
func (m *Model) Scores(query string) []float64 {
	scores := make([]float64, m.DocCount)
	if m.DocCount == 0 {
		return scores
	}
	for _, term := range Tokenize(query) {
		df := m.DocFreqs[term]
		if df == 0 {
			continue
		}
		n := float64(m.DocCount)
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		for i, tfs := range m.TermFreqs {
			tf := float64(tfs[term])
			if tf == 0 {
				continue
			}
			norm := 1 - m.B + m.B*float64(m.DocLens[i])/m.AvgDocLen
			scores[i] += idf * (tf * (m.K1 + 1)) / (tf + m.K1*norm)
		}
	}
	return scores
}

// NormalizedScores returns BM25 scores scaled to [0,1] by the per-query
// maximum, so the top lexical match for any query scores exactly 1.0. A query
// with no corpus overlap returns all zeros.
func (m *Model) NormalizedScores(query string) []float64 {
	scores := m.Scores(query)
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for i := range scores {
			scores[i] /= max
		}
	}
	return scores
}

// Save writes the model state as JSON to path.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads model state previously written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
