package chunker

import "regexp"

// Legal citation token patterns: CFR and USC references plus CMS coverage
// determinations (NCD/LCD), Aetna clinical policy bulletins (CPB), and
// Anthem clinical guidelines (CG-XXXX-N).
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+\s*CFR\s*\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\b\d+\s*U\.?S\.?C\.?\s*§?\s*\d+`),
	regexp.MustCompile(`(?i)\bNCD\s*\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\bLCD\s*\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\bCPB\s*\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\bCG-\w+-\d+`),
}

// ExtractCitations returns the legal citation tokens found in text, deduplicated,
// in order of first appearance (deterministic for idempotent rechunking).
func ExtractCitations(text string) []string {
	type match struct {
		pos  int
		text string
	}
	var found []match
	seen := make(map[string]bool)
	for _, re := range citationPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			token := text[loc[0]:loc[1]]
			if seen[token] {
				continue
			}
			seen[token] = true
			found = append(found, match{pos: loc[0], text: token})
		}
	}
	if len(found) == 0 {
		return nil
	}
	// Order across patterns by position in the text.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].pos < found[j-1].pos; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	out := make([]string, len(found))
	for i, m := range found {
		out[i] = m.text
	}
	return out
}

// HasCitation reports whether text contains at least one legal citation token.
func HasCitation(text string) bool {
	for _, re := range citationPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
