package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/semantic"
)

type fakeResolver struct {
	docs map[string]*models.Document
}

func (f *fakeResolver) GetDocument(_ context.Context, docID string) (*models.Document, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func testFixtures() (*index.Holder, *fakeResolver) {
	chunks := []models.Chunk{
		{
			ID: "c1", DocID: "d-cfr", Ordinal: 0, Authority: 0.95,
			Text:        "Emergency services must be covered without prior authorization, and cost sharing is limited to in-network amounts for out-of-network emergency care.",
			SectionPath: []string{"45 CFR 147.138", "Emergency services"},
		},
		{
			ID: "c2", DocID: "d-state", Ordinal: 0, Authority: 0.87,
			Text: "The insurer shall respond to a prior authorization request for emergency follow-up care within seventy-two hours of receipt of the complete request.",
		},
		{
			ID: "c3", DocID: "d-payer", Ordinal: 0, Authority: 0.78,
			Text: "Claims for emergency department visits are reviewed for medical necessity using the prudent layperson standard before payment is issued.",
		},
	}
	docs := map[string]*models.Document{
		"d-cfr": {
			Title: "45 CFR 147.138 Emergency Services", Category: "federal_regulation",
			Citation: "45 CFR 147.138", URL: "https://ecfr.gov/147.138",
		},
		"d-state": {
			Title: "State Insurance Code 1371.4", Category: "state_regulation",
			Citation: "Ins. Code 1371.4", URL: "https://example.gov/1371.4",
		},
		"d-payer": {
			Title: "Payer Emergency Claims Policy", Category: "payer_policy",
			Citation: "POL-ED-014", URL: "https://example.com/pol-ed-014",
		},
	}

	idx, err := index.Build(context.Background(), chunks, semantic.NewTFIDFScorer(), index.DefaultWeights())
	if err != nil {
		panic(err)
	}
	holder := index.NewHolder()
	holder.Publish(idx)
	return holder, &fakeResolver{docs: docs}
}

func TestAskGroundedResponse(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:   "Is prior authorization required for emergency services?",
		MaxSources: 3,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(resp.Citations) == 0 {
		t.Fatal("expected citations")
	}
	if resp.Citations[0].SourceID != "d-cfr" {
		t.Errorf("expected highest-authority relevant source first, got %s", resp.Citations[0].SourceID)
	}
	if resp.Citations[0].Title != "45 CFR 147.138 Emergency Services" {
		t.Errorf("unexpected citation title: %s", resp.Citations[0].Title)
	}
	if !strings.Contains(resp.Answer, "**Federal Regulations and CMS Guidance:**") {
		t.Error("expected federal guidance section in answer")
	}
	if !strings.Contains(resp.Answer, "**State-Specific Requirements:**") {
		t.Error("expected state guidance section in answer")
	}
	if !strings.Contains(resp.Answer, "**Important:**") {
		t.Error("expected closing disclaimer in answer")
	}
	if len(resp.LegalBasis) == 0 || !strings.Contains(resp.LegalBasis[0], "45 CFR 147.138") {
		t.Errorf("expected federal legal basis, got %v", resp.LegalBasis)
	}
	if resp.Confidence <= 0 || resp.Confidence > 0.95 {
		t.Errorf("confidence out of range: %f", resp.Confidence)
	}
}

func TestAskConfidenceFromAuthority(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:   "emergency services prior authorization",
		MaxSources: 3,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	var sum float64
	for _, c := range resp.Citations {
		sum += c.AuthorityRank
	}
	want := sum/float64(len(resp.Citations)) + 0.1
	if want > 0.95 {
		want = 0.95
	}
	if diff := resp.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence %f, want %f", resp.Confidence, want)
	}
}

func TestAskRefusalAboveThreshold(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:           "emergency services",
		AuthorityThreshold: 0.99,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != refusalAnswer {
		t.Errorf("expected verbatim refusal, got %q", resp.Answer)
	}
	if resp.Confidence != 0 {
		t.Errorf("refusal confidence must be 0, got %f", resp.Confidence)
	}
	if !resp.RequiresProfessionalReview {
		t.Error("refusal must require professional review")
	}
	if len(resp.Citations) != 0 {
		t.Errorf("refusal must carry no citations, got %d", len(resp.Citations))
	}
}

func TestAskReviewFlagForLegalTerms(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:   "How do I appeal a denied emergency claim?",
		MaxSources: 3,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !resp.RequiresProfessionalReview {
		t.Error("questions about appeals must be flagged for review")
	}
}

func TestAskReviewFlagForThinEvidence(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:   "emergency services coverage rules",
		MaxSources: 1,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(resp.Citations) != 1 {
		t.Fatalf("expected exactly one citation, got %d", len(resp.Citations))
	}
	if !resp.RequiresProfessionalReview {
		t.Error("single-citation answers must be flagged for review")
	}
}

func TestAskIndexUnavailable(t *testing.T) {
	svc := NewService(index.NewHolder(), &fakeResolver{}, nil)

	_, err := svc.Ask(context.Background(), &models.QueryRequest{Question: "anything"})
	if !errors.Is(err, index.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	holder, resolver := testFixtures()
	svc := NewService(holder, resolver, nil)

	if _, err := svc.Ask(context.Background(), &models.QueryRequest{}); err == nil {
		t.Error("expected validation error for empty question")
	}
}

func TestAskUnknownDocumentFallback(t *testing.T) {
	holder, _ := testFixtures()
	svc := NewService(holder, &fakeResolver{docs: map[string]*models.Document{}}, nil)

	resp, err := svc.Ask(context.Background(), &models.QueryRequest{
		Question:   "emergency services prior authorization",
		MaxSources: 2,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	for _, c := range resp.Citations {
		if c.Title != "Unknown Source" {
			t.Errorf("expected fallback title, got %q", c.Title)
		}
	}
}

func TestSummarizeGuidance(t *testing.T) {
	out := summarizeGuidance([]string{
		"Emergency services must be covered. Cost sharing is limited to in-network amounts. Notice must be provided to the enrollee. A fourth sentence that should be dropped entirely.",
	})
	if strings.Count(out, ".") > 3 {
		t.Errorf("expected at most three sentences, got %q", out)
	}
	if !strings.HasSuffix(out, ".") {
		t.Errorf("summary must end with a period: %q", out)
	}

	if got := summarizeGuidance([]string{"Too short. So is this."}); got != "No specific guidance available." {
		t.Errorf("expected placeholder for thin guidance, got %q", got)
	}
}
