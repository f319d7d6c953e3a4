// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercast/pkg/types"
)

// CorpusFile is the on-disk YAML form of a paper corpus. `papercast run
// --papers` accepts one in place of search-driven ingestion.
type CorpusFile struct {
	Papers []*types.Paper `yaml:"papers"`
}

// ValidatePaper checks the corpus contract: a paper enters the session
// only with a non-empty ID, title, and text (R3.1).
func ValidatePaper(p *types.Paper) error {
	if p == nil {
		return fmt.Errorf("nil paper")
	}
	if p.ID == "" {
		return fmt.Errorf("missing id")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("paper %s: missing title", p.ID)
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("paper %s: missing text", p.ID)
	}
	return nil
}

// LoadCorpus reads papers from a YAML corpus file and validates every entry
// (R6.1, R6.2). Papers with no text but an abstract are filled in
// abstract-only, matching the ingestion fallback (R6.4).
func LoadCorpus(path string) ([]*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}
	var cf CorpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing corpus file: %w", err)
	}
	if len(cf.Papers) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no papers", path)
	}

	var errs []string
	for i, p := range cf.Papers {
		if p != nil {
			if p.Text == "" && p.Abstract != "" {
				p.Text = p.Abstract
			}
			if p.Source == "" {
				p.Source = "corpus"
			}
		}
		if err := ValidatePaper(p); err != nil {
			errs = append(errs, fmt.Sprintf("paper %d: %v", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid corpus: %s", strings.Join(errs, "; "))
	}
	return cf.Papers, nil
}

// SaveCorpus writes papers to a YAML corpus file (R6.3). The file can be
// fed back through `papercast run --papers` to skip search and ingestion.
func SaveCorpus(path string, papers []*types.Paper) error {
	data, err := yaml.Marshal(CorpusFile{Papers: papers})
	if err != nil {
		return fmt.Errorf("marshaling corpus: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
