// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/papercast/pkg/types"
)

// unknownYear is the year placeholder when a paper carries no usable date.
const unknownYear = "N.D."

// FormatCitation renders a simplified reference for one paper in the given
// style (R4.2). Real citation formatting is far more involved; this covers
// what listeners need to find the paper.
func FormatCitation(p *types.Paper, style types.CitationStyle) string {
	title := p.Title
	if title == "" {
		title = "Unknown Title"
	}
	year := publicationYear(p.Date)

	var b strings.Builder
	switch style {
	case types.StyleMLA:
		authors := strings.TrimSuffix(mlaAuthors(p.Authors), ".")
		b.WriteString(fmt.Sprintf("%s. %q", authors, title+"."))
		if p.Venue != "" {
			b.WriteString(fmt.Sprintf(" %s,", p.Venue))
		}
		b.WriteString(fmt.Sprintf(" %s.", year))
	default:
		b.WriteString(fmt.Sprintf("%s (%s). %s.", apaAuthors(p.Authors), year, title))
		if p.Venue != "" {
			b.WriteString(fmt.Sprintf(" %s.", p.Venue))
		}
	}

	switch {
	case p.DOI != "":
		b.WriteString(" doi:" + p.DOI)
	case p.ArxivID != "":
		b.WriteString(" arXiv:" + p.ArxivID)
	case p.URL != "":
		b.WriteString(" " + p.URL)
	}
	return b.String()
}

// FormatReferences renders the deduplicated reference block for a set of
// papers, one citation per line, sorted for a stable listing (R4.3).
func FormatReferences(papers []*types.Paper, style types.CitationStyle) string {
	seen := make(map[string]bool)
	var lines []string
	for _, p := range papers {
		if p == nil {
			continue
		}
		c := FormatCitation(p, style)
		if seen[c] {
			continue
		}
		seen[c] = true
		lines = append(lines, c)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// apaAuthors formats an author list in simplified APA style: one name as-is,
// two joined with an ampersand, more reduced to the first author et al.
func apaAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown Authors"
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " & " + authors[1]
	default:
		return authors[0] + " et al."
	}
}

// mlaAuthors formats an author list in simplified MLA style.
func mlaAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown Authors"
	case 1:
		return authors[0]
	default:
		return authors[0] + ", et al."
	}
}

// publicationYear renders the publication year, or a placeholder when the
// paper carries no date.
func publicationYear(date time.Time) string {
	if date.IsZero() {
		return unknownYear
	}
	return fmt.Sprintf("%d", date.Year())
}
