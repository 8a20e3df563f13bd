package models

import "fmt"

// QueryRequest is a natural-language question posed to the query service.
type QueryRequest struct {
	Question           string  `json:"question"`
	Context            string  `json:"context,omitempty"`
	MaxSources         int     `json:"max_sources,omitempty"`
	AuthorityThreshold float64 `json:"authority_threshold,omitempty"`
}

// Validate checks the question and normalizes defaults: 5 sources (capped at
// 20) and a 0.5 authority threshold when unset.
func (q *QueryRequest) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.MaxSources <= 0 {
		q.MaxSources = 5
	}
	if q.MaxSources > 20 {
		q.MaxSources = 20
	}
	if q.AuthorityThreshold <= 0 {
		q.AuthorityThreshold = 0.5
	}
	return nil
}

// Citation identifies one source backing an answer.
type Citation struct {
	SourceID      string   `json:"source_id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	AuthorityRank float64  `json:"authority_rank"`
	Excerpt       string   `json:"excerpt"`
	SectionPath   []string `json:"section_path,omitempty"`
}

// GroundedResponse is the answer contract: every response is either backed by
// citations or is the fixed professional-referral refusal.
type GroundedResponse struct {
	Answer                     string     `json:"answer"`
	Confidence                 float64    `json:"confidence"`
	Citations                  []Citation `json:"citations"`
	AuthoritySources           []string   `json:"authority_sources"`
	LegalBasis                 []string   `json:"legal_basis"`
	GuidanceSummary            string     `json:"guidance_summary"`
	RequiresProfessionalReview bool       `json:"requires_professional_review"`
}

// SearchRequest is the raw index search contract.
type SearchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

// Validate checks the query and normalizes top_k into [1,100].
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = 10
	}
	if r.TopK > 100 {
		r.TopK = 100
	}
	if r.MinScore < 0 || r.MinScore > 1 {
		return fmt.Errorf("min_score %f out of range [0,1]", r.MinScore)
	}
	return nil
}

// ScoredChunk is a single search hit with its combined and component scores.
type ScoredChunk struct {
	Chunk         *Chunk  `json:"chunk"`
	Score         float64 `json:"score"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	Rank          int     `json:"rank"`
}

// SearchResponse is the response for an index search request.
type SearchResponse struct {
	Results   []*ScoredChunk `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
	Query     string         `json:"query"`
}
