// Package authority assigns trust scores to documents from their source
// category, jurisdiction, recency, and content depth.
package authority

// Band is the scoring band for one source category: a base weight plus the
// [Min, Max] range the final score is clamped into.
type Band struct {
	Base float64
	Min  float64
	Max  float64
}

// Category names the source classes the weight table covers.
type Category string

const (
	CategoryFederalStatute       Category = "federal_statute"
	CategoryFederalRegulation    Category = "federal_regulation"
	CategoryCMSManual            Category = "cms_manual"
	CategoryStateStatute         Category = "state_statute"
	CategoryStateRegulation      Category = "state_regulation"
	CategoryPayerPolicy          Category = "payer_policy"
	CategoryCourtDecision        Category = "court_decision"
	CategoryAppealPrecedent      Category = "appeal_precedent"
	CategoryIRODecision          Category = "iro_decision"
	CategoryAdministrativeRuling Category = "administrative_ruling"
	CategorySecondarySource      Category = "secondary_source"
	CategoryIndustryGuidance     Category = "industry_guidance"
)

// Table maps source categories to their scoring bands. It is an immutable
// configuration value injected into a Policy at construction.
type Table map[Category]Band

// DefaultTable returns the standard precedence hierarchy for healthcare
// regulation sources. Federal law outranks state law, which outranks payer
// policy and case law; industry guidance sits near the bottom.
func DefaultTable() Table {
	return Table{
		CategoryFederalStatute:       {Base: 1.00, Min: 1.00, Max: 1.00},
		CategoryFederalRegulation:    {Base: 0.95, Min: 0.95, Max: 0.98},
		CategoryCMSManual:            {Base: 0.90, Min: 0.90, Max: 0.93},
		CategoryStateStatute:         {Base: 0.85, Min: 0.85, Max: 0.88},
		CategoryStateRegulation:      {Base: 0.87, Min: 0.80, Max: 0.90},
		CategoryPayerPolicy:          {Base: 0.78, Min: 0.75, Max: 0.80},
		CategoryCourtDecision:        {Base: 0.72, Min: 0.68, Max: 0.75},
		CategoryAppealPrecedent:      {Base: 0.72, Min: 0.70, Max: 0.72},
		CategoryIRODecision:          {Base: 0.70, Min: 0.70, Max: 0.72},
		CategoryAdministrativeRuling: {Base: 0.65, Min: 0.63, Max: 0.67},
		CategorySecondarySource:      {Base: 0.40, Min: 0.35, Max: 0.45},
		CategoryIndustryGuidance:     {Base: 0.35, Min: 0.30, Max: 0.40},
	}
}

// defaultStateBonuses rewards states with strong healthcare consumer-protection
// regimes and large market impact.
func defaultStateBonuses() map[string]float64 {
	return map[string]float64{
		"CA": 0.02,
		"NY": 0.02,
		"MA": 0.01,
		"WA": 0.01,
		"TX": 0.01,
		"FL": 0.01,
	}
}

// defaultPayerBonuses reflects national payer market weight: policies of the
// largest carriers shape real-world coverage decisions.
func defaultPayerBonuses() map[string]float64 {
	return map[string]float64{
		"UHC":    0.02,
		"BCBS":   0.02,
		"ANTHEM": 0.015,
		"AETNA":  0.015,
		"CIGNA":  0.01,
		"HUMANA": 0.01,
		"KAISER": 0.01,
	}
}
