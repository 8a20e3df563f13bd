// Package chunker splits regulatory documents into structurally-aware,
// size-bounded, overlapping retrieval chunks with citation and topic metadata.
package chunker

import (
	"strings"
	"time"

	"github.com/clearhealth/regindex/internal/models"
)

// Config holds chunk size bounds in characters. Defaults approximate a
// paragraph-to-section of legal text: small enough for focused retrieval,
// large enough that a citation and the sentence using it co-occur.
type Config struct {
	MinChunkSize int
	MaxChunkSize int
	OverlapSize  int
}

// DefaultConfig returns the standard chunking bounds (800 / 2000 / 200).
func DefaultConfig() Config {
	return Config{MinChunkSize: 800, MaxChunkSize: 2000, OverlapSize: 200}
}

// sentencePullback is how far back from a window boundary we look for
// sentence-ending punctuation before severing a sentence mid-window.
const sentencePullback = 100

// Chunker converts documents into ordered chunk lists. It is stateless and
// safe to use concurrently across documents.
type Chunker struct {
	cfg Config
}

// NewChunker creates a chunker. Zero or inverted config values fall back to
// the defaults.
func NewChunker(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.MinChunkSize <= 0 || cfg.MinChunkSize > cfg.MaxChunkSize {
		cfg.MinChunkSize = def.MinChunkSize
	}
	if cfg.OverlapSize <= 0 || cfg.OverlapSize >= cfg.MaxChunkSize {
		cfg.OverlapSize = def.OverlapSize
	}
	return &Chunker{cfg: cfg}
}

// ChunkDocument splits one document into retrieval chunks. Ordinals are
// global and strictly increasing across all sections. A document with empty
// or whitespace-only text yields zero chunks. The chunker tolerates arbitrary
// plain-text input and never fails; chunk authority is copied from the
// document's final authority score, so the ranking policy must have been
// applied before chunking.
func (c *Chunker) ChunkDocument(doc *models.Document) []*models.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}
	sections := ExtractorFor(doc.Kind).Extract(doc.Text)
	var chunks []*models.Chunk
	for _, sec := range sections {
		chunks = c.chunkSection(doc, sec, chunks)
	}
	return chunks
}

// chunkSection appends the chunks for one section. A section within
// MaxChunkSize becomes one chunk; longer sections are split into overlapping
// windows whose right boundary is pulled back to sentence-ending punctuation
// when one exists near the boundary.
func (c *Chunker) chunkSection(doc *models.Document, sec Section, chunks []*models.Chunk) []*models.Chunk {
	secText := doc.Text[sec.Start:sec.End]
	if strings.TrimSpace(secText) == "" {
		return chunks
	}
	if len(secText) <= c.cfg.MaxChunkSize {
		if ch := c.buildChunk(doc, sec, secText, 0, len(secText), len(chunks)); ch != nil {
			chunks = append(chunks, ch)
		}
		return chunks
	}

	base := len(chunks)
	start := 0
	first := true
	for start < len(secText) {
		end := start + c.cfg.MaxChunkSize
		if end > len(secText) {
			end = len(secText)
		} else {
			// Pull the boundary back to the earliest sentence end within the
			// final stretch of the window, so sentences are not severed.
			for i := maxInt(start+1, end-sentencePullback); i < end; i++ {
				if isSentenceEnd(secText[i]) {
					end = i + 1
					break
				}
			}
		}

		window := strings.TrimSpace(secText[start:end])
		switch {
		case len(window) >= c.cfg.MinChunkSize || first:
			if ch := c.buildChunk(doc, sec, secText, start, end, len(chunks)); ch != nil {
				chunks = append(chunks, ch)
			}
		case end >= len(secText) && HasCitation(window) && len(chunks) > base:
			// A sub-minimum trailing fragment normally gets dropped, but a
			// citation-bearing tail is merged into the previous chunk so the
			// reference is not lost. Only chunks from this section are
			// candidates; merges never cross a section boundary.
			chunks[len(chunks)-1] = c.extendChunk(doc, chunks[len(chunks)-1], sec.Start+end)
		}
		first = false
		if end >= len(secText) {
			break
		}
		// The pullback can move end back inside the overlap span; never step
		// backwards or stall.
		next := end - c.cfg.OverlapSize
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// buildChunk creates a chunk for secText[start:end], trimming surrounding
// whitespace while keeping offsets exact against the parent text. Returns nil
// for whitespace-only windows.
func (c *Chunker) buildChunk(doc *models.Document, sec Section, secText string, start, end, ordinal int) *models.Chunk {
	window := secText[start:end]
	trimmed := strings.TrimSpace(window)
	if trimmed == "" {
		return nil
	}
	lead := strings.Index(window, trimmed)
	charStart := sec.Start + start + lead
	charEnd := charStart + len(trimmed)
	return &models.Chunk{
		ID:          models.ChunkID(doc.ID, doc.Checksum, ordinal),
		DocID:       doc.ID,
		Ordinal:     ordinal,
		CharStart:   charStart,
		CharEnd:     charEnd,
		Text:        trimmed,
		TokenCount:  models.EstimateTokens(trimmed),
		Headings:    sec.Headings,
		SectionPath: sec.Path,
		Citations:   ExtractCitations(trimmed),
		Authority:   doc.Authority,
		Topics:      mergeTopics(ExtractTopics(trimmed), doc.Tags),
		CreatedAt:   time.Now().UTC(),
	}
}

// extendChunk grows prev to end at newCharEnd in the parent text, refreshing
// the derived fields that depend on the chunk text.
func (c *Chunker) extendChunk(doc *models.Document, prev *models.Chunk, newCharEnd int) *models.Chunk {
	if newCharEnd <= prev.CharEnd {
		return prev
	}
	text := strings.TrimRight(doc.Text[prev.CharStart:newCharEnd], " \t\n\r")
	ext := *prev
	ext.CharEnd = prev.CharStart + len(text)
	ext.Text = text
	ext.TokenCount = models.EstimateTokens(text)
	ext.Citations = ExtractCitations(text)
	ext.Topics = mergeTopics(ExtractTopics(text), doc.Tags)
	return &ext
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
