package chunker

import (
	"reflect"
	"testing"
)

func TestExtractTopics(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single topic",
			text: "Prior authorization is required before the service is rendered.",
			want: []string{"prior-authorization"},
		},
		{
			name: "multiple topics in taxonomy order",
			text: "An external review of the emergency coverage denial is available.",
			want: []string{"appeals", "coverage", "emergency"},
		},
		{
			name: "case insensitive",
			text: "MEDICALLY NECESSARY durable medical equipment only.",
			want: []string{"medical-necessity", "dme"},
		},
		{
			name: "no topics",
			text: "Nothing in the taxonomy matches this sentence.",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTopics(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTopics() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTopics(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		extra  []string
		want   []string
	}{
		{"no extra", []string{"claims"}, nil, []string{"claims"}},
		{"appends new", []string{"claims"}, []string{"hospital"}, []string{"claims", "hospital"}},
		{"dedupes", []string{"claims"}, []string{"claims", "pharmacy"}, []string{"claims", "pharmacy"}},
		{"skips empty tags", nil, []string{"", "appeals"}, []string{"appeals"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeTopics(tt.topics, tt.extra)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("mergeTopics() = %v, want %v", got, tt.want)
			}
		})
	}
}
