package chunker

import (
	"reflect"
	"testing"
)

func TestExtractCitations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "cfr reference",
			text: "Internal appeals are governed by 45 CFR 147.136 for non-grandfathered plans.",
			want: []string{"45 CFR 147.136"},
		},
		{
			name: "usc reference",
			text: "See 29 USC 1185 for the underlying mandate.",
			want: []string{"29 USC 1185"},
		},
		{
			name: "coverage determinations",
			text: "Per NCD 20.4 and LCD 33797, implantable devices require documentation.",
			want: []string{"NCD 20.4", "LCD 33797"},
		},
		{
			name: "payer bulletins",
			text: "Aetna CPB 0011 and Anthem CG-BEH-02 both address this service.",
			want: []string{"CPB 0011", "CG-BEH-02"},
		},
		{
			name: "ordered by position across patterns",
			text: "NCD 20.4 implements 42 CFR 411.15, not the reverse.",
			want: []string{"NCD 20.4", "42 CFR 411.15"},
		},
		{
			name: "deduplicated",
			text: "45 CFR 147.136 is cited twice: 45 CFR 147.136.",
			want: []string{"45 CFR 147.136"},
		},
		{
			name: "no citations",
			text: "Plain prose with no legal references at all.",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCitations(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCitations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCitation(t *testing.T) {
	if !HasCitation("see 42 CFR 422.568") {
		t.Error("HasCitation() = false for a CFR reference")
	}
	if HasCitation("nothing legal here") {
		t.Error("HasCitation() = true for plain prose")
	}
}
