// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"

	"github.com/pdiddy/papercast/internal/llm"
	"github.com/pdiddy/papercast/pkg/types"
)

const (
	// classifyTemperature keeps topic answers near-deterministic (R2.4).
	classifyTemperature = 0.1

	// defaultMaxInputChars caps the title+abstract portion of the prompt.
	defaultMaxInputChars = 2000

	// defaultMaxTokens is plenty for a single topic name.
	defaultMaxTokens = 128

	// defaultWorkers bounds concurrent classification calls (R4.1).
	defaultWorkers = 4
)

// classifyPromptTmpl asks the model for exactly one topic from the allowed
// list, with 'Other' as the escape hatch (R2.1, R2.2).
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`Classify the following research paper text into one single, most relevant topic from the provided list. Respond with ONLY the topic name, nothing else. If none fit, respond with 'Other'.

Available Topics: {{.Topics}}

Text:
---
{{.Content}}
---

Topic:
`))

// ClassificationError reports that one paper could not be classified after
// the retry budget was spent. Wraps the final adapter error (R2.5).
type ClassificationError struct {
	PaperID string
	Err     error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying paper %s: %v", e.PaperID, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier assigns each paper a topic from an allowed list via the
// generative model. Safe for concurrent use: distinct papers may be
// classified in parallel (R4.1).
type Classifier struct {
	client llm.Client
	cfg    types.ClassifyConfig
	topics List
}

// NewClassifier builds a Classifier over the given client and allowed topics.
func NewClassifier(client llm.Client, cfg types.ClassifyConfig, topics List) *Classifier {
	return &Classifier{client: client, cfg: cfg, topics: topics}
}

// Topics returns the classifier's allowed topic list.
func (c *Classifier) Topics() List { return c.topics }

// Classify asks the model for the paper's topic and records both the raw
// answer and its normalized key on the paper (R2.3). On failure the paper is
// left untouched, so TopicKey stays empty and the paper is not dropped from
// the batch (R2.6).
func (c *Classifier) Classify(ctx context.Context, p *types.Paper) error {
	prompt, err := c.renderPrompt(p)
	if err != nil {
		return &ClassificationError{PaperID: p.ID, Err: err}
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	out, err := llm.CompleteWithRetry(ctx, c.client, llm.Request{
		Prompt:      prompt,
		Model:       c.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: classifyTemperature,
	}, c.cfg.MaxRetries)
	if err != nil {
		return &ClassificationError{PaperID: p.ID, Err: err}
	}

	p.RawTopic = strings.TrimSpace(out)
	p.TopicKey, _, _ = c.topics.Match(p.RawTopic)
	return nil
}

// renderPrompt builds the classification prompt. The abstract is the
// preferred content; papers without one fall back to their leading full
// text. Either way the content is capped at the configured character budget
// before templating, so a long paper cannot crowd out the topic list (R2.2).
func (c *Classifier) renderPrompt(p *types.Paper) (string, error) {
	maxChars := c.cfg.MaxInputChars
	if maxChars <= 0 {
		maxChars = defaultMaxInputChars
	}
	body, label := strings.TrimSpace(p.Abstract), "Abstract"
	if body == "" {
		body, label = p.Text, "Text"
	}
	content := llm.Truncate(fmt.Sprintf("Title: %s\n%s: %s", p.Title, label, body), maxChars)

	var buf bytes.Buffer
	err := classifyPromptTmpl.Execute(&buf, struct {
		Content string
		Topics  string
	}{Content: content, Topics: strings.Join(c.topics.Labels(), ", ")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BatchSummary holds counts from a batch classification run (R4.4).
type BatchSummary struct {
	Classified    int
	Uncategorized int
	Failed        int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Classified + s.Uncategorized + s.Failed
}

// HasFailures reports whether any papers failed (R4.5).
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ClassifyBatch classifies papers with a bounded worker pool, writing one
// progress line per paper to w. Each worker owns the papers it is handed, so
// paper mutation needs no locking; the mutex covers only the shared summary
// and writer (R4.2). A failed paper is reported and counted without
// disturbing its siblings (R4.3).
func (c *Classifier) ClassifyBatch(ctx context.Context, papers []*types.Paper, w io.Writer) BatchSummary {
	workers := c.cfg.Workers
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
				err := c.Classify(ctx, p)

				mu.Lock()
				switch {
				case err != nil:
					fmt.Fprintf(w, "failed  %s: %v\n", p.ID, err)
					summary.Failed++
				case p.TopicKey == Uncategorized:
					fmt.Fprintf(w, "uncategorized %s (model said %q)\n", p.ID, p.RawTopic)
					summary.Uncategorized++
				default:
					fmt.Fprintf(w, "classified %s -> %s\n", p.ID, p.TopicKey)
					summary.Classified++
				}
				mu.Unlock()
			}
		}()
	}

	// Feed every paper even after cancellation: in-flight calls fail fast
	// once ctx is done, and each paper still gets a reported outcome.
	for _, p := range papers {
		if p == nil {
			continue
		}
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return summary
}
