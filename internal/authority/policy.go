package authority

import (
	"strings"
	"time"

	"github.com/clearhealth/regindex/internal/models"
)

// Policy computes deterministic trust scores in [0,1] for documents.
// It is a pure function of the document and the policy's construction-time
// configuration: the weight table, bonus maps, and the reference time used
// for recency. The same policy always scores the same document identically,
// which the index relies on for reproducible builds.
type Policy struct {
	table        Table
	stateBonuses map[string]float64
	payerBonuses map[string]float64
	asOf         time.Time
}

// Option configures a Policy.
type Option func(*Policy)

// WithStateBonuses overrides the per-state jurisdiction bonuses.
func WithStateBonuses(bonuses map[string]float64) Option {
	return func(p *Policy) { p.stateBonuses = bonuses }
}

// WithPayerBonuses overrides the per-payer market-weight bonuses.
func WithPayerBonuses(bonuses map[string]float64) Option {
	return func(p *Policy) { p.payerBonuses = bonuses }
}

// NewPolicy creates a policy from a weight table. asOf fixes the reference
// time for recency bonuses; use the build timestamp so rebuilds of the same
// corpus at the same logical time reproduce identical scores.
func NewPolicy(table Table, asOf time.Time, opts ...Option) *Policy {
	if table == nil {
		table = DefaultTable()
	}
	p := &Policy{
		table:        table,
		stateBonuses: defaultStateBonuses(),
		payerBonuses: defaultPayerBonuses(),
		asOf:         asOf,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const (
	metaKeyStateCode = "state_code"
	metaKeyPayerCode = "payer_code"

	// Content-depth thresholds. The first applies to every source type; the
	// second varies: payer policies are considered comprehensive past 15k
	// characters, state regulations past 25k, everything else past 20k.
	depthFirstThreshold   = 5000
	depthPayerThreshold   = 15000
	depthStateThreshold   = 25000
	depthDefaultThreshold = 20000

	recencyWindow = 365 * 24 * time.Hour
)

// Score returns the final authority score for doc: the category base weight
// plus jurisdiction, depth, recency, and market-weight bonuses, clamped first
// into the category band and then into [0,1].
func (p *Policy) Score(doc *models.Document) float64 {
	cat := p.Categorize(doc)
	band, ok := p.table[cat]
	if !ok {
		band = Band{Base: 0.5, Min: 0.0, Max: 1.0}
	}
	score := band.Base

	if doc.Jurisdiction == models.JurisdictionFederal {
		score += 0.02
	}
	if state := doc.Metadata.String(metaKeyStateCode); state != "" {
		score += p.stateBonuses[strings.ToUpper(state)]
	}
	if payer := doc.Metadata.String(metaKeyPayerCode); payer != "" {
		score += p.payerBonuses[strings.ToUpper(payer)]
	}

	score += p.depthBonus(cat, len(doc.Text))
	score += p.recencyBonus(doc)

	return clamp(clamp(score, band.Min, band.Max), 0, 1)
}

// Categorize resolves a document to its weight-table category from its kind,
// jurisdiction, and source category string.
func (p *Policy) Categorize(doc *models.Document) Category {
	category := strings.ToLower(doc.Category)
	switch doc.Kind {
	case models.KindStatute:
		if doc.Jurisdiction == models.JurisdictionFederal {
			return CategoryFederalStatute
		}
		return CategoryStateStatute
	case models.KindRegulation:
		if doc.Jurisdiction == models.JurisdictionFederal {
			return CategoryFederalRegulation
		}
		return CategoryStateRegulation
	case models.KindManual:
		if doc.Jurisdiction == models.JurisdictionMedicare || strings.Contains(category, "cms") {
			return CategoryCMSManual
		}
		return CategoryIndustryGuidance
	case models.KindPayerPolicy:
		return CategoryPayerPolicy
	case models.KindCourtOpinion:
		return CategoryCourtDecision
	case models.KindAppealDecision:
		if strings.Contains(category, "iro") {
			return CategoryIRODecision
		}
		return CategoryAppealPrecedent
	case models.KindDatasetRecord:
		return CategorySecondarySource
	}
	return CategorySecondarySource
}

func (p *Policy) depthBonus(cat Category, textLen int) float64 {
	var bonus float64
	if textLen > depthFirstThreshold {
		bonus += 0.005
	}
	switch cat {
	case CategoryPayerPolicy:
		if textLen > depthPayerThreshold {
			bonus += 0.005
		}
	case CategoryStateRegulation, CategoryStateStatute:
		if textLen > depthStateThreshold {
			bonus += 0.01
		}
	default:
		if textLen > depthDefaultThreshold {
			bonus += 0.005
		}
	}
	return bonus
}

// recencyBonus rewards documents dated within the last year relative to the
// policy's reference time: +0.01 inside 180 days, +0.005 inside 365.
func (p *Policy) recencyBonus(doc *models.Document) float64 {
	dated := latestDate(doc)
	if dated == nil || dated.After(p.asOf) {
		return 0
	}
	age := p.asOf.Sub(*dated)
	switch {
	case age <= recencyWindow/2:
		return 0.01
	case age <= recencyWindow:
		return 0.005
	}
	return 0
}

func latestDate(doc *models.Document) *time.Time {
	var latest *time.Time
	for _, t := range []*time.Time{doc.EffectiveDate, doc.PublishedDate, doc.RevisedDate} {
		if t == nil {
			continue
		}
		if latest == nil || t.After(*latest) {
			latest = t
		}
	}
	return latest
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
