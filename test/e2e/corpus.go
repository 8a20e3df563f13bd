// Package e2e provides end-to-end tests over a mixed regulatory corpus.
package e2e

import (
	"github.com/clearhealth/regindex/internal/models"
)

// CorpusEntry is one source document in the test corpus. Each entry carries a
// signature phrase in its text so queries can assert the right document came
// back.
type CorpusEntry struct {
	Category     string
	Title        string
	Kind         models.DocKind
	Jurisdiction models.Jurisdiction
	Citation     string
	URL          string
	Text         string
}

// QueryTestCase defines a query and the source URL(s) whose documents must
// appear in the results. At least one expected URL must be present.
type QueryTestCase struct {
	Query        string
	ExpectedURLs []string
	Description  string
}

// Corpus holds documents and query test cases.
type Corpus struct {
	Entries   []CorpusEntry
	TestCases []QueryTestCase
}

// BuildCorpus returns a corpus spanning every document kind and jurisdiction,
// with query cases keyed to signature phrases.
func BuildCorpus() *Corpus {
	entries := []CorpusEntry{
		{
			Category: "Federal Regulation - eCFR", Title: "45 CFR 147.136 Internal claims and appeals",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionFederal,
			Citation: "45 CFR 147.136", URL: "https://ecfr.gov/45/147.136",
			Text: "Group health plans and health insurance issuers must implement an effective internal claims and appeals process. " +
				"A claimant must be notified of a benefit determination involving urgent care as soon as possible but not later than 72 hours after receipt of the claim. " +
				"The plan must provide continued coverage pending the outcome of an appeal.",
		},
		{
			Category: "Federal Regulation - eCFR", Title: "45 CFR 147.138 Patient protections",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionFederal,
			Citation: "45 CFR 147.138", URL: "https://ecfr.gov/45/147.138",
			Text: "A plan may not require prior authorization for emergency services, whether the provider is in-network or out-of-network. " +
				"Emergency services must be covered using the prudent layperson standard based on presenting symptoms.",
		},
		{
			Category: "Federal Regulation - eCFR", Title: "42 CFR 422.568 Standard organization determinations",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionFederal,
			Citation: "42 CFR 422.568", URL: "https://ecfr.gov/42/422.568",
			Text: "A Medicare Advantage organization must notify the enrollee of its determination as expeditiously as the enrollee's health condition requires, " +
				"but no later than 14 calendar days after receiving the request for a standard organization determination.",
		},
		{
			Category: "Federal Guidance - CMS", Title: "Medicare Claims Processing Manual Chapter 30",
			Kind: models.KindManual, Jurisdiction: models.JurisdictionMedicare,
			Citation: "CMS Pub. 100-04 Ch. 30", URL: "https://cms.gov/manuals/clm104c30",
			Text: "An Advance Beneficiary Notice of Noncoverage informs the beneficiary before items or services are furnished that Medicare is likely to deny payment. " +
				"Providers must issue the notice far enough in advance that the beneficiary can make an informed decision.",
		},
		{
			Category: "State DOI - CA", Title: "California Health and Safety Code 1367.01",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionState,
			Citation: "Cal. Health & Safety Code 1367.01", URL: "https://leginfo.ca.gov/hsc/1367.01",
			Text: "A health care service plan shall make a utilization review decision in a timely fashion not to exceed five business days from receipt of the information " +
				"reasonably necessary to make the determination. Decisions on urgent requests shall be made within 72 hours.",
		},
		{
			Category: "State DOI - NY", Title: "New York Insurance Law 4914 External appeal",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionState,
			Citation: "N.Y. Ins. Law 4914", URL: "https://nysenate.gov/legislation/laws/ISC/4914",
			Text: "An enrollee may request an external appeal of an adverse determination within four months of receiving a final adverse determination. " +
				"The external appeal agent shall make a determination within 30 days, or 72 hours for expedited appeals.",
		},
		{
			Category: "State DOI - TX", Title: "Texas Insurance Code 4201.304 Preauthorization",
			Kind: models.KindRegulation, Jurisdiction: models.JurisdictionState,
			Citation: "Tex. Ins. Code 4201.304", URL: "https://statutes.capitol.texas.gov/ins/4201.304",
			Text: "A utilization review agent shall issue a determination on a preauthorization request for health care services not later than the third calendar day " +
				"after the date the request is received, and within one hour for post-stabilization care.",
		},
		{
			Category: "Payer Policy - AETNA", Title: "Aetna Prior Authorization Policy 0045",
			Kind: models.KindPayerPolicy, Jurisdiction: models.JurisdictionPayer,
			Citation: "", URL: "https://aetna.com/policies/0045",
			Text: "Aetna requires precertification for advanced imaging procedures including MRI and CT scans. " +
				"Requests submitted through the provider portal receive a determination within two business days. Peer-to-peer review is available after an adverse determination.",
		},
		{
			Category: "Payer Policy - UHC", Title: "UnitedHealthcare Emergency Services Coverage Policy",
			Kind: models.KindPayerPolicy, Jurisdiction: models.JurisdictionPayer,
			Citation: "", URL: "https://uhcprovider.com/policies/emergency-services",
			Text: "UnitedHealthcare covers emergency department services without prior authorization. " +
				"Claims are reviewed against the prudent layperson standard. Non-emergent use of the emergency department may be subject to benefit reduction.",
		},
		{
			Category: "Court Opinion", Title: "Moda Health Plan v. United States",
			Kind: models.KindCourtOpinion, Jurisdiction: models.JurisdictionFederal,
			Citation: "140 S. Ct. 1308", URL: "https://supremecourt.gov/opinions/moda-health",
			Text: "The court held that the risk corridors statute created a government obligation to pay participating insurers the full amount calculated by the statutory formula. " +
				"Petitioners were entitled to sue for damages in the Court of Federal Claims.",
		},
		{
			Category: "Clinical Guideline", Title: "MCG Inpatient Admission Criteria Overview",
			Kind: models.KindManual, Jurisdiction: models.JurisdictionPayer,
			Citation: "", URL: "https://mcg.com/guidelines/inpatient-admission",
			Text: "Inpatient admission is clinically indicated when the patient requires continuous monitoring, intravenous therapy that cannot be administered in observation, " +
				"or has failed outpatient management. Medical necessity review applies evidence-based clinical criteria.",
		},
		{
			Category: "Dataset Record", Title: "Hospital Price Transparency Extract Q1",
			Kind: models.KindDatasetRecord, Jurisdiction: models.JurisdictionPayer,
			Citation: "", URL: "https://data.example.org/price-transparency/q1",
			Text: "Machine-readable file listing negotiated rates for shoppable services. " +
				"Gross charge, discounted cash price, and payer-specific negotiated charge are reported per billing code.",
		},
	}

	cases := []QueryTestCase{
		{
			Query:        "urgent care claim 72 hours notification",
			ExpectedURLs: []string{"https://ecfr.gov/45/147.136", "https://leginfo.ca.gov/hsc/1367.01"},
			Description:  "urgent claim timelines",
		},
		{
			Query:        "prior authorization emergency services prudent layperson",
			ExpectedURLs: []string{"https://ecfr.gov/45/147.138", "https://uhcprovider.com/policies/emergency-services"},
			Description:  "emergency prior auth prohibition",
		},
		{
			Query:        "Medicare Advantage organization determination 14 calendar days",
			ExpectedURLs: []string{"https://ecfr.gov/42/422.568"},
			Description:  "Medicare determination deadline",
		},
		{
			Query:        "external appeal adverse determination four months",
			ExpectedURLs: []string{"https://nysenate.gov/legislation/laws/ISC/4914"},
			Description:  "New York external appeal window",
		},
		{
			Query:        "precertification advanced imaging MRI",
			ExpectedURLs: []string{"https://aetna.com/policies/0045"},
			Description:  "payer imaging precertification",
		},
		{
			Query:        "Advance Beneficiary Notice of Noncoverage",
			ExpectedURLs: []string{"https://cms.gov/manuals/clm104c30"},
			Description:  "ABN guidance",
		},
		{
			Query:        "risk corridors statute damages",
			ExpectedURLs: []string{"https://supremecourt.gov/opinions/moda-health"},
			Description:  "court opinion retrieval",
		},
		{
			Query:        "inpatient admission medical necessity criteria",
			ExpectedURLs: []string{"https://mcg.com/guidelines/inpatient-admission"},
			Description:  "clinical guideline retrieval",
		},
	}

	return &Corpus{Entries: entries, TestCases: cases}
}

// ToDocumentInputs converts corpus entries into pipeline inputs.
func (c *Corpus) ToDocumentInputs() []models.DocumentInput {
	inputs := make([]models.DocumentInput, 0, len(c.Entries))
	for _, e := range c.Entries {
		inputs = append(inputs, models.DocumentInput{
			Category:     e.Category,
			Title:        e.Title,
			Kind:         e.Kind,
			Jurisdiction: e.Jurisdiction,
			Citation:     e.Citation,
			URL:          e.URL,
			Text:         e.Text,
		})
	}
	return inputs
}
