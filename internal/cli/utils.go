// Package cli provides output formatting for the regindex command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/clearhealth/regindex/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format string from a flag.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms for %q\n\n", response.Total, response.QueryTime, response.Query)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
	return nil
}

func writeOneResult(w io.Writer, result *models.ScoredChunk) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Lexical: %.4f, Semantic: %.4f, Authority: %.2f)\n",
		result.Rank, result.Score, result.LexicalScore, result.SemanticScore, result.Chunk.Authority)
	fmt.Fprintf(w, "Chunk: %s (doc %s, ordinal %d)\n", result.Chunk.ID, result.Chunk.DocID, result.Chunk.Ordinal)
	if len(result.Chunk.SectionPath) > 0 {
		fmt.Fprintf(w, "Section: %s\n", strings.Join(result.Chunk.SectionPath, " > "))
	}
	if len(result.Chunk.Citations) > 0 {
		fmt.Fprintf(w, "Citations: %s\n", strings.Join(result.Chunk.Citations, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", Truncate(result.Chunk.Text, 200))
	fmt.Fprintln(w)
}

// WriteGroundedResponse writes an answer from the query service to w.
func WriteGroundedResponse(w io.Writer, resp *models.GroundedResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprintf(w, "\n%s\n\n", resp.Answer)
	fmt.Fprintf(w, "Confidence: %.2f\n", resp.Confidence)
	if resp.RequiresProfessionalReview {
		fmt.Fprintln(w, "Professional review recommended.")
	}
	if len(resp.Citations) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, c := range resp.Citations {
			fmt.Fprintf(w, "  %d. %s (authority %.2f)\n", i+1, c.Title, c.AuthorityRank)
			if c.URL != "" {
				fmt.Fprintf(w, "     %s\n", c.URL)
			}
		}
	}
	if len(resp.LegalBasis) > 0 {
		fmt.Fprintln(w, "\nLegal basis:")
		for _, lb := range resp.LegalBasis {
			fmt.Fprintf(w, "  - %s\n", lb)
		}
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
