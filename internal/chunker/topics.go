package chunker

import "strings"

// topicEntry binds one topic tag to the keyword substrings that signal it.
type topicEntry struct {
	tag      string
	keywords []string
}

// topicTaxonomy is the fixed healthcare topic taxonomy. Extraction iterates
// in this order so topic lists are deterministic.
var topicTaxonomy = []topicEntry{
	{"prior-authorization", []string{"prior authorization", "preauthorization", "pre-auth"}},
	{"medical-necessity", []string{"medical necessity", "medically necessary", "clinical necessity"}},
	{"appeals", []string{"appeal", "grievance", "external review", "independent review"}},
	{"claims", []string{"claim", "reimbursement", "payment", "billing"}},
	{"coverage", []string{"coverage", "covered service", "benefit"}},
	{"dme", []string{"durable medical equipment", "prosthetic", "orthotic"}},
	{"diagnostic", []string{"diagnostic", "laboratory", "pathology", "radiology"}},
	{"emergency", []string{"emergency", "urgent care", "trauma"}},
	{"behavioral-health", []string{"mental health", "behavioral health", "substance abuse"}},
	{"pharmacy", []string{"prescription", "drug", "medication", "pharmaceutical"}},
	{"balance-billing", []string{"balance billing", "surprise billing", "out-of-network"}},
}

// ExtractTopics returns the taxonomy tags whose keywords appear in text
// (case-insensitive substring match), in taxonomy order.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, entry := range topicTaxonomy {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, entry.tag)
				break
			}
		}
	}
	return topics
}

// mergeTopics appends extra tags (e.g. document-level tags) to topics,
// deduplicated, preserving order.
func mergeTopics(topics, extra []string) []string {
	if len(extra) == 0 {
		return topics
	}
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		seen[t] = true
	}
	out := topics
	for _, t := range extra {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
