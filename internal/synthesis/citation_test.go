package synthesis

import (
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/papercast/pkg/types"
)

func midYear(year int) time.Time {
	return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestFormatCitationAPA(t *testing.T) {
	tests := []struct {
		name  string
		paper *types.Paper
		want  string
	}{
		{
			name: "single author with doi",
			paper: &types.Paper{
				Title: "Attention Is All You Need", Authors: []string{"A. Vaswani"},
				Date: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
				Venue: "NeurIPS", DOI: "10.48550/arXiv.1706.03762",
			},
			want: "A. Vaswani (2017). Attention Is All You Need. NeurIPS. doi:10.48550/arXiv.1706.03762",
		},
		{
			name: "two authors joined with ampersand",
			paper: &types.Paper{
				Title: "A Study", Authors: []string{"A. One", "B. Two"}, Date: midYear(2020),
			},
			want: "A. One & B. Two (2020). A Study.",
		},
		{
			name: "many authors reduced to et al",
			paper: &types.Paper{
				Title: "Big Collab", Authors: []string{"A. One", "B. Two", "C. Three"},
				Date: midYear(2021), Venue: "VLDB",
			},
			want: "A. One et al. (2021). Big Collab. VLDB.",
		},
		{
			name: "arxiv id when no doi",
			paper: &types.Paper{
				Title: "Preprint", Authors: []string{"A. One"}, Date: midYear(2023), ArxivID: "2301.07041",
			},
			want: "A. One (2023). Preprint. arXiv:2301.07041",
		},
		{
			name: "url as last resort",
			paper: &types.Paper{
				Title: "Blog-adjacent", Authors: []string{"A. One"}, Date: midYear(2022), URL: "https://example.org/p",
			},
			want: "A. One (2022). Blog-adjacent. https://example.org/p",
		},
		{
			name:  "everything missing",
			paper: &types.Paper{},
			want:  "Unknown Authors (N.D.). Unknown Title.",
		},
		{
			name: "missing date",
			paper: &types.Paper{
				Title: "Undated", Authors: []string{"A. One"},
			},
			want: "A. One (N.D.). Undated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCitation(tt.paper, types.StyleAPA); got != tt.want {
				t.Errorf("FormatCitation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCitationMLA(t *testing.T) {
	tests := []struct {
		name  string
		paper *types.Paper
		want  string
	}{
		{
			name: "single author",
			paper: &types.Paper{
				Title: "A Study", Authors: []string{"Jane Roe"},
				Date: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), Venue: "SIGMOD",
			},
			want: `Jane Roe. "A Study." SIGMOD, 2020.`,
		},
		{
			name: "multiple authors reduced to et al",
			paper: &types.Paper{
				Title: "Group Work", Authors: []string{"Jane Roe", "John Doe"},
				Date: midYear(2019), DOI: "10.1/x",
			},
			want: `Jane Roe, et al. "Group Work." 2019. doi:10.1/x`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCitation(tt.paper, types.StyleMLA); got != tt.want {
				t.Errorf("FormatCitation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatReferences(t *testing.T) {
	papers := []*types.Paper{
		{Title: "Zeta Paper", Authors: []string{"Z. Zed"}, Date: midYear(2020)},
		{Title: "Alpha Paper", Authors: []string{"A. Ay"}, Date: midYear(2021)},
		{Title: "Zeta Paper", Authors: []string{"Z. Zed"}, Date: midYear(2020)}, // duplicate
		nil,
	}

	got := FormatReferences(papers, types.StyleAPA)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (deduplicated):\n%s", len(lines), got)
	}
	// Sorted for a stable listing.
	if !strings.HasPrefix(lines[0], "A. Ay") || !strings.HasPrefix(lines[1], "Z. Zed") {
		t.Errorf("references not sorted:\n%s", got)
	}
}

func TestFormatReferencesEmpty(t *testing.T) {
	if got := FormatReferences(nil, types.StyleAPA); got != "" {
		t.Errorf("FormatReferences(nil) = %q, want empty", got)
	}
}
