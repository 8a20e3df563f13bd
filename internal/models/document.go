// Package models defines core data structures for regulatory documents, chunks, and query contracts.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocKind classifies the legal nature of a source document.
type DocKind string

const (
	KindStatute        DocKind = "statute"
	KindRegulation     DocKind = "regulation"
	KindPayerPolicy    DocKind = "payer_policy"
	KindManual         DocKind = "manual"
	KindCourtOpinion   DocKind = "court_opinion"
	KindAppealDecision DocKind = "appeal_decision"
	KindDatasetRecord  DocKind = "dataset_record"
)

// Valid reports whether k is a known document kind.
func (k DocKind) Valid() bool {
	switch k {
	case KindStatute, KindRegulation, KindPayerPolicy, KindManual,
		KindCourtOpinion, KindAppealDecision, KindDatasetRecord:
		return true
	}
	return false
}

// Jurisdiction identifies the governing body of a document.
type Jurisdiction string

const (
	JurisdictionFederal  Jurisdiction = "federal"
	JurisdictionState    Jurisdiction = "state"
	JurisdictionPayer    Jurisdiction = "payer"
	JurisdictionMedicare Jurisdiction = "medicare"
)

// Valid reports whether j is a known jurisdiction.
func (j Jurisdiction) Valid() bool {
	switch j {
	case JurisdictionFederal, JurisdictionState, JurisdictionPayer, JurisdictionMedicare:
		return true
	}
	return false
}

// Metadata holds source-specific facts (state code, payer code, court name, case number).
// Values are restricted to scalar types; see Validate.
type Metadata map[string]interface{}

// Validate returns an error if any value is not a string, bool, or number.
// JSON round-trips decode numbers as float64, so int/int64/float64 are all accepted.
func (m Metadata) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64, nil:
		default:
			return fmt.Errorf("metadata key %q: unsupported value type %T", k, v)
		}
	}
	return nil
}

// String returns the string value for key, or "" if absent or not a string.
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Document is one fetched source unit from an authoritative origin.
// Documents are immutable after creation except for the one-time authority
// refinement applied by the ranking policy before chunking. They are never
// deleted, only superseded by a new version with a new checksum.
type Document struct {
	ID            string       `json:"doc_id"`
	SourceID      string       `json:"source_id"` // stable hash of the source URL
	Category      string       `json:"category"`  // e.g. "State DOI - CA", "Payer Policy - AETNA"
	Title         string       `json:"title"`
	Kind          DocKind      `json:"doc_type"`
	Jurisdiction  Jurisdiction `json:"jurisdiction"`
	Citation      string       `json:"citation,omitempty"` // legal citation, e.g. "45 CFR 147.136"
	EffectiveDate *time.Time   `json:"effective_date,omitempty"`
	PublishedDate *time.Time   `json:"published_date,omitempty"`
	RevisedDate   *time.Time   `json:"revised_date,omitempty"`
	Version       string       `json:"version"`
	URL           string       `json:"url"`
	License       string       `json:"license"`
	Text          string       `json:"text"`
	Checksum      string       `json:"checksum_sha256"` // SHA-256 of Text, for change detection
	Authority     float64      `json:"authority_score"` // trust score in [0,1]
	Tags          []string     `json:"tags,omitempty"`
	Metadata      Metadata     `json:"metadata,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// DocumentInput carries the fields a fetcher/parser collaborator provides
// when constructing a Document. Identity fields are derived, not supplied.
type DocumentInput struct {
	Category      string       `json:"category"`
	Title         string       `json:"title"`
	Kind          DocKind      `json:"doc_type"`
	Jurisdiction  Jurisdiction `json:"jurisdiction"`
	Citation      string       `json:"citation,omitempty"`
	EffectiveDate *time.Time   `json:"effective_date,omitempty"`
	PublishedDate *time.Time   `json:"published_date,omitempty"`
	RevisedDate   *time.Time   `json:"revised_date,omitempty"`
	Version       string       `json:"version,omitempty"`
	URL           string       `json:"url"`
	License       string       `json:"license,omitempty"`
	Text          string       `json:"text"`
	Authority     float64      `json:"authority_score,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Metadata      Metadata     `json:"metadata,omitempty"`
}

// NewDocument builds a Document from fetcher input, deriving SourceID from the
// URL and Checksum from the text. Kind and jurisdiction must be valid enum
// values and the base authority score must lie in [0,1].
func NewDocument(in DocumentInput) (*Document, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("invalid document kind %q", in.Kind)
	}
	if !in.Jurisdiction.Valid() {
		return nil, fmt.Errorf("invalid jurisdiction %q", in.Jurisdiction)
	}
	if in.Authority < 0 || in.Authority > 1 {
		return nil, fmt.Errorf("authority score %f out of range [0,1]", in.Authority)
	}
	if in.URL == "" {
		return nil, fmt.Errorf("document URL is required")
	}
	if err := in.Metadata.Validate(); err != nil {
		return nil, err
	}
	version := in.Version
	if version == "" {
		version = "1.0"
	}
	license := in.License
	if license == "" {
		license = "Public domain"
	}
	return &Document{
		ID:            uuid.New().String(),
		SourceID:      SourceID(in.URL),
		Category:      in.Category,
		Title:         in.Title,
		Kind:          in.Kind,
		Jurisdiction:  in.Jurisdiction,
		Citation:      in.Citation,
		EffectiveDate: in.EffectiveDate,
		PublishedDate: in.PublishedDate,
		RevisedDate:   in.RevisedDate,
		Version:       version,
		URL:           in.URL,
		License:       license,
		Text:          in.Text,
		Checksum:      TextChecksum(in.Text),
		Authority:     in.Authority,
		Tags:          in.Tags,
		Metadata:      in.Metadata,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// SourceID returns the stable identifier for a source URL (first 16 hex
// characters of the SHA-256 of the URL).
func SourceID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// TextChecksum returns the full SHA-256 hex digest of text.
func TextChecksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
