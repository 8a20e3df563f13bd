package authority

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/clearhealth/regindex/internal/models"
)

var testAsOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func doc(kind models.DocKind, jur models.Jurisdiction) *models.Document {
	return &models.Document{
		ID:           "doc-1",
		Kind:         kind,
		Jurisdiction: jur,
		Text:         "short text",
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)

	tests := []struct {
		name string
		doc  *models.Document
		want float64
	}{
		{
			name: "federal statute pinned to 1.0",
			doc:  doc(models.KindStatute, models.JurisdictionFederal),
			want: 1.0,
		},
		{
			name: "federal regulation gets federal bonus",
			doc:  doc(models.KindRegulation, models.JurisdictionFederal),
			want: 0.97,
		},
		{
			name: "state regulation base",
			doc:  doc(models.KindRegulation, models.JurisdictionState),
			want: 0.87,
		},
		{
			name: "state regulation with CA bonus",
			doc: func() *models.Document {
				d := doc(models.KindRegulation, models.JurisdictionState)
				d.Metadata = models.Metadata{"state_code": "ca"}
				return d
			}(),
			want: 0.89,
		},
		{
			name: "payer policy with UHC bonus clamped to band max",
			doc: func() *models.Document {
				d := doc(models.KindPayerPolicy, models.JurisdictionPayer)
				d.Metadata = models.Metadata{"payer_code": "UHC"}
				return d
			}(),
			want: 0.80,
		},
		{
			name: "cms manual base",
			doc:  doc(models.KindManual, models.JurisdictionMedicare),
			want: 0.90,
		},
		{
			name: "court decision base",
			doc:  doc(models.KindCourtOpinion, models.JurisdictionState),
			want: 0.72,
		},
		{
			name: "dataset record scored as secondary source",
			doc:  doc(models.KindDatasetRecord, models.JurisdictionFederal),
			want: 0.42,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Score(tt.doc)
			if !approxEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_RecencyBonus(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)

	date := func(daysAgo int) *time.Time {
		d := testAsOf.AddDate(0, 0, -daysAgo)
		return &d
	}

	tests := []struct {
		name string
		date *time.Time
		want float64
	}{
		{"within 180 days", date(90), 0.91},
		{"within 365 days", date(300), 0.905},
		{"older than a year", date(500), 0.90},
		{"future date ignored", date(-30), 0.90},
		{"undated", nil, 0.90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(models.KindManual, models.JurisdictionMedicare)
			d.EffectiveDate = tt.date
			if got := p.Score(d); !approxEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_RecencyUsesLatestDate(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)

	old := testAsOf.AddDate(-3, 0, 0)
	revised := testAsOf.AddDate(0, 0, -60)

	d := doc(models.KindManual, models.JurisdictionMedicare)
	d.EffectiveDate = &old
	d.RevisedDate = &revised

	if got := p.Score(d); !approxEqual(got, 0.91) {
		t.Errorf("Score() = %v, want 0.91 (recency from revised date)", got)
	}
}

func TestScore_DepthBonus(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)

	tests := []struct {
		name    string
		kind    models.DocKind
		jur     models.Jurisdiction
		textLen int
		want    float64
	}{
		{"payer policy below thresholds", models.KindPayerPolicy, models.JurisdictionPayer, 1000, 0.78},
		{"payer policy past first threshold", models.KindPayerPolicy, models.JurisdictionPayer, 6000, 0.785},
		{"payer policy comprehensive", models.KindPayerPolicy, models.JurisdictionPayer, 16000, 0.79},
		{"state regulation needs 25k for second bonus", models.KindRegulation, models.JurisdictionState, 21000, 0.875},
		{"state regulation comprehensive", models.KindRegulation, models.JurisdictionState, 26000, 0.885},
		{"court decision past default threshold", models.KindCourtOpinion, models.JurisdictionState, 21000, 0.73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(tt.kind, tt.jur)
			d.Text = strings.Repeat("a", tt.textLen)
			if got := p.Score(d); !approxEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_UnknownCategoryBand(t *testing.T) {
	// A table without the resolved category falls back to a neutral band.
	p := NewPolicy(Table{}, testAsOf)
	d := doc(models.KindRegulation, models.JurisdictionFederal)
	if got := p.Score(d); !approxEqual(got, 0.52) {
		t.Errorf("Score() = %v, want 0.52", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)
	effective := testAsOf.AddDate(0, 0, -100)

	d := doc(models.KindRegulation, models.JurisdictionState)
	d.Metadata = models.Metadata{"state_code": "NY"}
	d.EffectiveDate = &effective
	d.Text = strings.Repeat("x", 30000)

	first := p.Score(d)
	for i := 0; i < 10; i++ {
		if got := p.Score(d); got != first {
			t.Fatalf("Score() not deterministic: %v != %v", got, first)
		}
	}
}

func TestCategorize(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf)

	tests := []struct {
		name     string
		kind     models.DocKind
		jur      models.Jurisdiction
		category string
		want     Category
	}{
		{"federal statute", models.KindStatute, models.JurisdictionFederal, "", CategoryFederalStatute},
		{"state statute", models.KindStatute, models.JurisdictionState, "", CategoryStateStatute},
		{"federal regulation", models.KindRegulation, models.JurisdictionFederal, "", CategoryFederalRegulation},
		{"state regulation", models.KindRegulation, models.JurisdictionState, "", CategoryStateRegulation},
		{"medicare manual", models.KindManual, models.JurisdictionMedicare, "", CategoryCMSManual},
		{"manual flagged cms by category", models.KindManual, models.JurisdictionFederal, "CMS Internet-Only Manual", CategoryCMSManual},
		{"vendor manual", models.KindManual, models.JurisdictionPayer, "Clinical Guidelines", CategoryIndustryGuidance},
		{"payer policy", models.KindPayerPolicy, models.JurisdictionPayer, "", CategoryPayerPolicy},
		{"court opinion", models.KindCourtOpinion, models.JurisdictionFederal, "", CategoryCourtDecision},
		{"iro decision", models.KindAppealDecision, models.JurisdictionState, "IRO External Review", CategoryIRODecision},
		{"appeal precedent", models.KindAppealDecision, models.JurisdictionState, "DMHC Appeals", CategoryAppealPrecedent},
		{"dataset record", models.KindDatasetRecord, models.JurisdictionFederal, "", CategorySecondarySource},
		{"unknown kind", models.DocKind("newsletter"), models.JurisdictionState, "", CategorySecondarySource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(tt.kind, tt.jur)
			d.Category = tt.category
			if got := p.Categorize(d); got != tt.want {
				t.Errorf("Categorize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewPolicy_NilTableUsesDefault(t *testing.T) {
	p := NewPolicy(nil, testAsOf)
	d := doc(models.KindStatute, models.JurisdictionFederal)
	if got := p.Score(d); !approxEqual(got, 1.0) {
		t.Errorf("Score() = %v, want 1.0 from default table", got)
	}
}

func TestPolicyOptions(t *testing.T) {
	p := NewPolicy(DefaultTable(), testAsOf,
		WithStateBonuses(map[string]float64{"OR": 0.02}),
		WithPayerBonuses(map[string]float64{"MODA": 0.015}),
	)

	d := doc(models.KindRegulation, models.JurisdictionState)
	d.Metadata = models.Metadata{"state_code": "or"}
	if got := p.Score(d); !approxEqual(got, 0.89) {
		t.Errorf("Score() with custom state bonus = %v, want 0.89", got)
	}

	// The default CA bonus is gone once overridden.
	d.Metadata = models.Metadata{"state_code": "CA"}
	if got := p.Score(d); !approxEqual(got, 0.87) {
		t.Errorf("Score() after override = %v, want 0.87", got)
	}

	pp := doc(models.KindPayerPolicy, models.JurisdictionPayer)
	pp.Metadata = models.Metadata{"payer_code": "moda"}
	if got := p.Score(pp); !approxEqual(got, 0.795) {
		t.Errorf("Score() with custom payer bonus = %v, want 0.795", got)
	}
}
