package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clearhealth/regindex/internal/models"
)

// Section is one structural unit of a document, with true character offsets
// into the parent text. Consecutive sections are contiguous: each ends where
// the next begins, and the last ends at the end of the text.
type Section struct {
	Start    int
	End      int
	Headings []string
	Path     []string // hierarchical section path, outermost first
}

// SectionExtractor splits document text into structural sections. One
// implementation exists per document kind; the matching rules are strategy
// values so they can be swapped without touching the chunker.
type SectionExtractor interface {
	Extract(text string) []Section
}

// ExtractorFor returns the section extractor for a document kind.
// Regulations, manuals, and court opinions have structure-aware extractors;
// everything else falls back to paragraph sectioning.
func ExtractorFor(kind models.DocKind) SectionExtractor {
	switch kind {
	case models.KindRegulation, models.KindStatute:
		return regulationExtractor{}
	case models.KindManual, models.KindPayerPolicy:
		return manualExtractor{}
	case models.KindCourtOpinion, models.KindAppealDecision:
		return courtExtractor{}
	}
	return genericExtractor{}
}

var (
	// Regulatory numbering: "§ 147.136(a)(1)", "(a) Covered...", "(1) A plan...",
	// and standalone title-like lines.
	reSectionSymbol = regexp.MustCompile(`^§\s*\d+\.\d+`)
	reLetterClause  = regexp.MustCompile(`^\([a-z]+\)\s*[A-Z]`)
	reNumberClause  = regexp.MustCompile(`^\(\d+\)\s*[A-Z]`)
	reTitleLine     = regexp.MustCompile(`^[A-Z][^.]*\.$`)

	// Manual/policy headings: "1. Scope", "Coverage Criteria:", "DEFINITIONS".
	reNumberedHeading = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	reColonHeading    = regexp.MustCompile(`^[A-Z][^.]*:$`)
	reAllCapsHeading  = regexp.MustCompile(`^[A-Z][A-Z\s]+$`)

	// Court opinions: roman-numeral sections, lettered subsections, and the
	// conventional judicial section names.
	reRomanSection  = regexp.MustCompile(`^[IVX]+\.\s+[A-Z]`)
	reLetterSection = regexp.MustCompile(`^[A-Z]\.\s+[A-Z]`)
	reCourtNamed    = regexp.MustCompile(`(?i)(FACTUAL BACKGROUND|PROCEDURAL HISTORY|LEGAL STANDARD|DISCUSSION|CONCLUSION)`)

	reParagraphGap = regexp.MustCompile(`\n[ \t]*\n`)
)

type regulationExtractor struct{}

func (regulationExtractor) Extract(text string) []Section {
	return sectionize(text, func(line string) bool {
		return reSectionSymbol.MatchString(line) ||
			reLetterClause.MatchString(line) ||
			reNumberClause.MatchString(line) ||
			reTitleLine.MatchString(line)
	})
}

type manualExtractor struct{}

func (manualExtractor) Extract(text string) []Section {
	return sectionize(text, func(line string) bool {
		if reNumberedHeading.MatchString(line) || reColonHeading.MatchString(line) {
			return true
		}
		return len(line) >= 3 && reAllCapsHeading.MatchString(line)
	})
}

type courtExtractor struct{}

func (courtExtractor) Extract(text string) []Section {
	return sectionize(text, func(line string) bool {
		return reRomanSection.MatchString(line) ||
			reLetterSection.MatchString(line) ||
			reCourtNamed.MatchString(line)
	})
}

// genericExtractor splits on blank-line-delimited paragraphs, each its own
// section labeled "Paragraph N".
type genericExtractor struct{}

func (genericExtractor) Extract(text string) []Section {
	var sections []Section
	start := 0
	n := 0
	gaps := reParagraphGap.FindAllStringIndex(text, -1)
	for _, gap := range gaps {
		if strings.TrimSpace(text[start:gap[0]]) != "" {
			n++
			sections = append(sections, Section{
				Start: start,
				End:   gap[0],
				Path:  []string{fmt.Sprintf("Paragraph %d", n)},
			})
		}
		start = gap[1]
	}
	if strings.TrimSpace(text[start:]) != "" {
		n++
		sections = append(sections, Section{
			Start: start,
			End:   len(text),
			Path:  []string{fmt.Sprintf("Paragraph %d", n)},
		})
	}
	return sections
}

// sectionize scans text line by line and opens a new section at every line
// isMarker accepts. The marker line becomes the section's heading and the
// start of its span. Text before the first marker forms an unlabeled leading
// section; a document with no markers is one section.
func sectionize(text string, isMarker func(line string) bool) []Section {
	var sections []Section
	var cur *Section

	offset := 0
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		if lineEnd < 0 {
			line = text[offset:]
			lineEnd = len(text)
		} else {
			line = text[offset : offset+lineEnd]
			lineEnd = offset + lineEnd
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			switch {
			case cur == nil:
				cur = &Section{Start: offset}
				if isMarker(trimmed) {
					cur.Headings = []string{trimmed}
					cur.Path = []string{trimmed}
				}
			case isMarker(trimmed):
				cur.End = offset
				sections = append(sections, *cur)
				cur = &Section{
					Start:    offset,
					Headings: []string{trimmed},
					Path:     []string{trimmed},
				}
			}
		}
		if lineEnd >= len(text) {
			break
		}
		offset = lineEnd + 1
	}
	if cur != nil {
		cur.End = len(text)
		sections = append(sections, *cur)
	}
	return sections
}
