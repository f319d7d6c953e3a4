// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercast/pkg/types"
)

// ResultsFile is the on-disk representation of a search query and its
// results. A saved search can be reviewed, trimmed by hand, and fed to
// `papercast run --results` without re-querying the APIs.
// Implements: prd001-search R1.6, R4.6.
type ResultsFile struct {
	Query   QueryParams          `yaml:"query"`
	Config  ResultsFileConfig    `yaml:"config"`
	Results []types.SearchResult `yaml:"results"`
	Summary ResultsSummary       `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	FreeText string   `yaml:"free_text,omitempty"`
	Author   string   `yaml:"author,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	DateFrom string   `yaml:"date_from,omitempty"`
	DateTo   string   `yaml:"date_to,omitempty"`
}

// ResultsFileConfig stores the search configuration that produced the results.
type ResultsFileConfig struct {
	MaxResults  int  `yaml:"max_results"`
	RecencyBias bool `yaml:"recency_bias"`
}

// ResultsSummary stores result statistics and a timestamp.
type ResultsSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// WriteResultsFile saves query parameters and results to a YAML file.
func WriteResultsFile(path string, query Query, cfg types.SearchConfig, recencyBias bool, out SearchOutput) error {
	rf := ResultsFile{
		Query: QueryParams{
			FreeText: query.FreeText,
			Author:   query.Author,
			Keywords: query.Keywords,
		},
		Config: ResultsFileConfig{
			MaxResults:  cfg.MaxResults,
			RecencyBias: recencyBias,
		},
		Results: out.Results,
		Summary: ResultsSummary{
			Total:             len(out.Results),
			DuplicatesRemoved: out.DupsRemoved,
			BackendErrors:     out.BackendErrors,
			Timestamp:         time.Now(),
		},
	}

	if !query.DateFrom.IsZero() {
		rf.Query.DateFrom = query.DateFrom.Format(dateFmt)
	}
	if !query.DateTo.IsZero() {
		rf.Query.DateTo = query.DateTo.Format(dateFmt)
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling results file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultsFile loads a previously saved results file from disk.
func ReadResultsFile(path string) (*ResultsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	return &rf, nil
}

// ToQuery converts stored QueryParams back into a Query struct.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		FreeText: p.FreeText,
		Author:   p.Author,
		Keywords: p.Keywords,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(dateFmt, p.DateFrom)
		if err != nil {
			return q, fmt.Errorf("invalid date_from %q: %w", p.DateFrom, err)
		}
		q.DateFrom = t
	}
	if p.DateTo != "" {
		t, err := time.Parse(dateFmt, p.DateTo)
		if err != nil {
			return q, fmt.Errorf("invalid date_to %q: %w", p.DateTo, err)
		}
		q.DateTo = t
	}
	return q, nil
}
