// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary generates one standalone summary per paper. Summaries are
// the unit synthesis works from, so every paper in a topic group must pass
// through here before its group can be synthesized.
// Implements: prd004-summaries (R1-R5);
//
//	docs/ARCHITECTURE § Summaries.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"text/template"

	"github.com/pdiddy/papercast/internal/llm"
	"github.com/pdiddy/papercast/pkg/types"
)

const (
	// summaryTemperature allows mild paraphrasing without drifting from
	// the source text (R2.3).
	summaryTemperature = 0.3

	// defaultMaxInputChars caps the paper text portion of the prompt.
	defaultMaxInputChars = 4000

	// defaultMaxTokens bounds one summary completion.
	defaultMaxTokens = 1024

	// defaultWorkers bounds concurrent summary calls (R4.1).
	defaultWorkers = 4
)

// summaryPromptTmpl asks for a compact structured summary of one paper (R2.1).
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize the following research paper text concisely, highlighting the main objective, methodology, key findings, and conclusions. Focus on the most important information, aiming for 200-300 words.

Text:
---
{{.Content}}
---

Summary:
`))

// SummaryError reports that one paper could not be summarized (R2.5).
type SummaryError struct {
	PaperID string
	Err     error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summarizing paper %s: %v", e.PaperID, e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// Summarizer produces individual paper summaries via the generative model.
// Safe for concurrent use on distinct papers.
type Summarizer struct {
	client llm.Client
	cfg    types.SummaryConfig
}

// NewSummarizer builds a Summarizer over the given client.
func NewSummarizer(client llm.Client, cfg types.SummaryConfig) *Summarizer {
	return &Summarizer{client: client, cfg: cfg}
}

// Summarize generates and stores the paper's summary (R2.2). A paper with no
// extracted text and no abstract fails without a network call. On failure the
// paper's Summary stays empty.
func (s *Summarizer) Summarize(ctx context.Context, p *types.Paper) error {
	content := p.Text
	if content == "" {
		if p.Abstract == "" {
			return &SummaryError{PaperID: p.ID, Err: fmt.Errorf("paper has no extracted text or abstract")}
		}
		content = fmt.Sprintf("Title: %s\n\nAbstract: %s", p.Title, p.Abstract)
	}

	prompt, err := renderPrompt(content, s.cfg.MaxInputChars)
	if err != nil {
		return &SummaryError{PaperID: p.ID, Err: err}
	}

	maxTokens := s.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	out, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Prompt:      prompt,
		Model:       s.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: summaryTemperature,
	}, s.cfg.MaxRetries)
	if err != nil {
		return &SummaryError{PaperID: p.ID, Err: err}
	}

	p.Summary = out
	return nil
}

// renderPrompt builds the summary prompt with the text capped at the
// configured character budget.
func renderPrompt(content string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = defaultMaxInputChars
	}

	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct{ Content string }{
		Content: llm.Truncate(content, maxChars),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BatchSummary holds counts from a batch summary run (R4.3).
type BatchSummary struct {
	Summarized int
	Skipped    int
	Failed     int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Summarized + s.Skipped + s.Failed
}

// HasFailures reports whether any papers failed (R4.4).
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// SummarizeBatch summarizes papers with a bounded worker pool, writing one
// progress line per paper to w. Papers that already carry a summary are
// skipped so re-runs only fill gaps (R4.2). A failed paper is reported and
// counted without disturbing its siblings.
func (s *Summarizer) SummarizeBatch(ctx context.Context, papers []*types.Paper, w io.Writer) BatchSummary {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(papers) {
		workers = len(papers)
	}

	var (
		summary BatchSummary
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	jobs := make(chan *types.Paper)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				err := s.Summarize(ctx, p)

				mu.Lock()
				if err != nil {
					fmt.Fprintf(w, "failed  %s: %v\n", p.ID, err)
					summary.Failed++
				} else {
					fmt.Fprintf(w, "summarized %s (%d chars)\n", p.ID, len(p.Summary))
					summary.Summarized++
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range papers {
		if p == nil {
			continue
		}
		if p.Summary != "" {
			mu.Lock()
			fmt.Fprintf(w, "skipped %s (already summarized)\n", p.ID)
			summary.Skipped++
			mu.Unlock()
			continue
		}
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return summary
}
