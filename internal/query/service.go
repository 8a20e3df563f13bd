// Package query answers natural-language questions about healthcare
// regulation with citation discipline: every answer is grounded in retrieved
// sources that clear an authority threshold, or it is a fixed refusal.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/models"
)

// Rerank weights: retrieval relevance dominates, authority breaks near-ties.
const (
	rerankAuthorityWeight = 0.4
	rerankRetrievalWeight = 0.6

	// Over-retrieve so the authority filter still leaves enough candidates.
	overFetchFactor = 3

	maxExcerptLen = 200
	maxConfidence = 0.95
)

const (
	refusalAnswer = "I cannot provide guidance without access to authoritative healthcare regulations and policies. " +
		"Please consult with a healthcare professional or your insurance provider directly."
	refusalSummary = "No authoritative sources available for this query."

	answerPreamble = "Based on available healthcare regulations and policies, here is guidance for your situation:"
	answerClosing  = "**Important:** This guidance is based on general regulations and policies. " +
		"For your specific situation, consider consulting with a healthcare advocate, " +
		"insurance specialist, or attorney specializing in healthcare law."
)

// Questions touching these terms always get the professional-review flag.
var reviewTerms = []string{"appeal", "deny", "lawsuit", "legal"}

// DocumentResolver looks up the document a chunk came from, for citation
// titles and URLs.
type DocumentResolver interface {
	GetDocument(ctx context.Context, docID string) (*models.Document, error)
}

// Service executes the grounded question-answering pipeline against the
// current index snapshot.
type Service struct {
	holder *index.Holder
	docs   DocumentResolver
	logger *zap.Logger
}

// NewService creates a query service. A nil logger disables logging.
func NewService(holder *index.Holder, docs DocumentResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{holder: holder, docs: docs, logger: logger}
}

// Ask runs the full pipeline: retrieve, rerank by authority, filter, and
// compose a grounded response. Questions that surface no source above the
// authority threshold get the refusal response, never an ungrounded answer.
func (s *Service) Ask(ctx context.Context, req *models.QueryRequest) (*models.GroundedResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("query received",
		zap.String("question", truncate(req.Question, 100)),
		zap.Int("max_sources", req.MaxSources),
		zap.Float64("authority_threshold", req.AuthorityThreshold))

	idx, err := s.holder.Get()
	if err != nil {
		return nil, err
	}

	hits, err := idx.Search(ctx, req.Question, req.MaxSources*overFetchFactor, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	s.logger.Debug("query retrieved", zap.Int("candidates", len(hits)))

	ranked := s.rerank(hits, req.AuthorityThreshold)
	if len(ranked) > req.MaxSources {
		ranked = ranked[:req.MaxSources]
	}
	s.logger.Debug("query reranked", zap.Int("sources", len(ranked)))

	if len(ranked) == 0 {
		s.logger.Info("query refused, no evidence above threshold",
			zap.Float64("authority_threshold", req.AuthorityThreshold))
		return refusalResponse(), nil
	}

	resp := s.ground(ctx, req, ranked)
	s.logger.Info("query responded",
		zap.Int("citations", len(resp.Citations)),
		zap.Float64("confidence", resp.Confidence),
		zap.Bool("requires_review", resp.RequiresProfessionalReview))
	return resp, nil
}

// rerank combines authority with retrieval relevance and drops chunks below
// the authority threshold. Sorting is stable so retrieval order breaks ties.
func (s *Service) rerank(hits []*models.ScoredChunk, threshold float64) []*models.ScoredChunk {
	kept := make([]*models.ScoredChunk, 0, len(hits))
	finals := make(map[*models.ScoredChunk]float64, len(hits))
	for _, hit := range hits {
		if hit.Chunk.Authority < threshold {
			continue
		}
		finals[hit] = rerankAuthorityWeight*hit.Chunk.Authority + rerankRetrievalWeight*hit.Score
		kept = append(kept, hit)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return finals[kept[i]] > finals[kept[j]]
	})
	return kept
}

func (s *Service) ground(ctx context.Context, req *models.QueryRequest, ranked []*models.ScoredChunk) *models.GroundedResponse {
	citations := make([]models.Citation, 0, len(ranked))
	authoritySources := make([]string, 0)
	legalBasis := make([]string, 0)

	var federal, state, clinical, procedural []string
	var authoritySum float64

	for _, hit := range ranked {
		doc := s.resolveDocument(ctx, hit.Chunk.DocID)

		citations = append(citations, models.Citation{
			SourceID:      hit.Chunk.DocID,
			Title:         doc.Title,
			URL:           doc.URL,
			AuthorityRank: hit.Chunk.Authority,
			Excerpt:       excerpt(hit.Chunk.Text),
			SectionPath:   hit.Chunk.SectionPath,
		})
		authoritySum += hit.Chunk.Authority

		category := strings.ToLower(doc.Category)
		switch {
		case containsAny(category, "federal", "cfr", "cms"):
			federal = append(federal, hit.Chunk.Text)
			authoritySources = append(authoritySources, doc.Title)
			legalBasis = append(legalBasis, fmt.Sprintf("%s: %s", doc.Citation, truncate(hit.Chunk.Text, 100)))
		case strings.Contains(category, "state"):
			state = append(state, hit.Chunk.Text)
		case containsAny(category, "medical", "clinical"):
			clinical = append(clinical, hit.Chunk.Text)
		default:
			procedural = append(procedural, hit.Chunk.Text)
		}
	}

	avgAuthority := authoritySum / float64(len(ranked))
	confidence := avgAuthority + 0.1
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	requiresReview := avgAuthority < 0.7 || len(citations) < 2 || questionNeedsReview(req.Question)

	return &models.GroundedResponse{
		Answer:                     composeAnswer(req.Context, federal, state, clinical, procedural),
		Confidence:                 confidence,
		Citations:                  citations,
		AuthoritySources:           authoritySources,
		LegalBasis:                 legalBasis,
		GuidanceSummary:            guidanceSummary(len(citations), authoritySources),
		RequiresProfessionalReview: requiresReview,
	}
}

func (s *Service) resolveDocument(ctx context.Context, docID string) *models.Document {
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil || doc == nil {
		s.logger.Warn("citation document lookup failed", zap.String("doc_id", docID), zap.Error(err))
		return &models.Document{Title: "Unknown Source"}
	}
	return doc
}

func refusalResponse() *models.GroundedResponse {
	return &models.GroundedResponse{
		Answer:                     refusalAnswer,
		Confidence:                 0,
		Citations:                  []models.Citation{},
		AuthoritySources:           []string{},
		LegalBasis:                 []string{},
		GuidanceSummary:            refusalSummary,
		RequiresProfessionalReview: true,
	}
}

// composeAnswer assembles the answer sections in authority order: federal
// first, then state, clinical, and procedural guidance.
func composeAnswer(extraContext string, federal, state, clinical, procedural []string) string {
	parts := []string{answerPreamble}

	if len(federal) > 0 {
		parts = append(parts, "\n**Federal Regulations and CMS Guidance:**\n"+summarizeGuidance(federal))
	}
	if len(state) > 0 {
		parts = append(parts, "\n**State-Specific Requirements:**\n"+summarizeGuidance(state))
	}
	if len(clinical) > 0 {
		parts = append(parts, "\n**Clinical Criteria:**\n"+summarizeGuidance(clinical))
	}
	if len(procedural) > 0 {
		parts = append(parts, "\n**Procedural Steps:**\n"+summarizeGuidance(procedural))
	}
	if extraContext != "" {
		parts = append(parts, "\n**Additional Context:** "+extraContext)
	}
	parts = append(parts, "\n"+answerClosing)

	return strings.Join(parts, "\n")
}

// summarizeGuidance extracts up to three substantive sentences from the
// combined guidance texts.
func summarizeGuidance(texts []string) string {
	combined := strings.Join(texts, " ")
	var sentences []string
	for _, s := range strings.Split(combined, ".") {
		s = strings.TrimSpace(s)
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
		if len(sentences) == 3 {
			break
		}
	}
	if len(sentences) == 0 {
		return "No specific guidance available."
	}
	return strings.Join(sentences, ". ") + "."
}

func guidanceSummary(citationCount int, authoritySources []string) string {
	named := authoritySources
	if len(named) > 3 {
		named = named[:3]
	}
	if len(named) == 0 {
		return fmt.Sprintf("Based on %d authoritative sources", citationCount)
	}
	return fmt.Sprintf("Based on %d authoritative sources including %s", citationCount, strings.Join(named, ", "))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func questionNeedsReview(question string) bool {
	lower := strings.ToLower(question)
	for _, term := range reviewTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func excerpt(text string) string {
	if len(text) <= maxExcerptLen {
		return text
	}
	return truncate(text, maxExcerptLen) + "..."
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
