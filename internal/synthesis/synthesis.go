// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns a topic group's paper summaries into one
// cross-paper episode segment. The prompt carries member summaries in
// discovery order under a character budget; when the budget is exceeded,
// whole entries are dropped from the tail so the highest-priority papers
// always survive. Group membership is never changed by truncation, only the
// prompt contents.
// Implements: prd005-synthesis (R1-R5);
//
//	docs/ARCHITECTURE § Synthesis.
package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/papercast/internal/llm"
	"github.com/pdiddy/papercast/pkg/types"
)

const (
	// synthesisTemperature leaves room for the model to connect findings
	// across papers (R2.4).
	synthesisTemperature = 0.7

	// defaultMaxInputChars caps the combined member summaries in the prompt.
	defaultMaxInputChars = 6000

	// defaultMaxTokens bounds one synthesis completion.
	defaultMaxTokens = 600

	// entrySeparator joins member entries inside the prompt.
	entrySeparator = "\n\n---\n\n"
)

// synthesisPromptTmpl asks for a podcast-ready segment spanning the group's
// summaries (R2.1, R2.2).
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`Synthesize the key findings, trends, and common themes from the following research paper summaries related to the topic '{{.Topic}}'. Identify points of agreement, any conflicting findings, and research gaps. Provide an overview suitable for a short podcast segment (around 300-500 words).

Topic: {{.Topic}}

Individual Paper Summaries:
{{.Summaries}}

Cross-Paper Synthesis:
`))

// PreconditionError reports a contract violation by the caller: synthesis was
// invoked on a group that is not ready (R1.3). No network call is made.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("synthesis precondition violated: %s", e.Reason)
}

// SynthesisError reports that one topic group could not be synthesized after
// the retry budget was spent (R2.5).
type SynthesisError struct {
	Topic string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing topic %s: %v", e.Topic, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer builds cross-paper segments via the generative model.
type Synthesizer struct {
	client llm.Client
	cfg    types.SynthesisConfig
}

// NewSynthesizer builds a Synthesizer over the given client.
func NewSynthesizer(client llm.Client, cfg types.SynthesisConfig) *Synthesizer {
	return &Synthesizer{client: client, cfg: cfg}
}

// Synthesize generates the segment for one topic group and stores it on the
// group (R1.1, R1.2). Members are resolved against papers by identifier;
// members without a summary are left out of the prompt, mirroring the
// per-paper failure isolation of earlier stages. An empty group, or one where
// no member has a summary, fails with PreconditionError before any network
// activity. The returned text ends with a References block listing every
// resolvable member (R4.3), regardless of prompt truncation.
func (sy *Synthesizer) Synthesize(ctx context.Context, g *types.TopicGroup, papers []*types.Paper) (string, error) {
	if len(g.Members) == 0 {
		return "", &PreconditionError{Reason: fmt.Sprintf("group %q has no members", g.Key)}
	}

	byID := make(map[string]*types.Paper, len(papers))
	for _, p := range papers {
		if p != nil {
			byID[p.ID] = p
		}
	}

	var members []*types.Paper
	for _, id := range g.Members {
		p, ok := byID[id]
		if !ok {
			return "", &PreconditionError{Reason: fmt.Sprintf("group %q member %s not in paper collection", g.Key, id)}
		}
		members = append(members, p)
	}

	entries := memberEntries(members)
	if len(entries) == 0 {
		return "", &PreconditionError{Reason: fmt.Sprintf("no member of group %q has a summary", g.Key)}
	}

	prompt, _, err := sy.renderPrompt(g, entries)
	if err != nil {
		return "", &SynthesisError{Topic: g.Key, Err: err}
	}

	maxTokens := sy.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	out, err := llm.CompleteWithRetry(ctx, sy.client, llm.Request{
		Prompt:      prompt,
		Model:       sy.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: synthesisTemperature,
	}, sy.cfg.MaxRetries)
	if err != nil {
		return "", &SynthesisError{Topic: g.Key, Err: err}
	}

	text := strings.TrimSpace(out)
	if refs := FormatReferences(members, sy.cfg.Citations); refs != "" {
		text += "\n\n---\n\nReferences:\n" + refs
	}

	g.Synthesis = text
	return text, nil
}

// memberEntries renders one prompt entry per summarized member, preserving
// discovery order (R3.1). Each entry names the paper and its citable
// identifier alongside the summary (R4.1).
func memberEntries(members []*types.Paper) []string {
	var entries []string
	for _, p := range members {
		if p.Summary == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("Paper: %s (%s)\nSummary: %s", p.Title, p.SourceID(), p.Summary))
	}
	return entries
}

// renderPrompt joins as many entries as fit the character budget and renders
// the synthesis prompt. Entries are dropped whole from the tail first (R3.2,
// R3.3); when even the first entry is over budget on its own it is truncated
// instead, so a group of one oversized summary still synthesizes. Returns the
// prompt and the number of entries included.
func (sy *Synthesizer) renderPrompt(g *types.TopicGroup, entries []string) (string, int, error) {
	maxChars := sy.cfg.MaxInputChars
	if maxChars <= 0 {
		maxChars = defaultMaxInputChars
	}

	included := len(entries)
	for included > 1 && joinedLen(entries[:included]) > maxChars {
		included--
	}
	block := strings.Join(entries[:included], entrySeparator)
	if included == 1 {
		block = llm.Truncate(block, maxChars)
	}

	topic := g.Label
	if topic == "" {
		topic = g.Key
	}

	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, struct {
		Topic     string
		Summaries string
	}{Topic: topic, Summaries: block})
	if err != nil {
		return "", 0, err
	}
	return buf.String(), included, nil
}

// joinedLen is the rune length of entries joined with entrySeparator, without
// building the string.
func joinedLen(entries []string) int {
	n := 0
	for i, e := range entries {
		if i > 0 {
			n += len(entrySeparator)
		}
		n += len([]rune(e))
	}
	return n
}

// BatchSummary holds counts from a batch synthesis run (R5.3).
type BatchSummary struct {
	Synthesized int
	Failed      int
}

// Total returns the number of groups processed.
func (s BatchSummary) Total() int {
	return s.Synthesized + s.Failed
}

// HasFailures reports whether any groups failed (R5.4).
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// SynthesizeAll synthesizes each group in order, writing one progress line
// per group to w. Groups run only after the whole corpus is classified and
// summarized, so this stage is sequential; a failed group is reported and
// counted without disturbing the others (R5.1, R5.2).
func (sy *Synthesizer) SynthesizeAll(ctx context.Context, groups []*types.TopicGroup, papers []*types.Paper, w io.Writer) BatchSummary {
	byID := make(map[string]*types.Paper, len(papers))
	for _, p := range papers {
		if p != nil {
			byID[p.ID] = p
		}
	}

	var summary BatchSummary
	for _, g := range groups {
		if g == nil {
			continue
		}
		fmt.Fprintf(w, "synthesizing %s (%d papers)\n", g.Key, len(g.Members))
		if n := unsummarized(g, byID); n > 0 {
			fmt.Fprintf(w, "  warning: %d member(s) have no summary, skipping\n", n)
		}

		text, err := sy.Synthesize(ctx, g, papers)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", g.Key, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "synthesized %s (%d chars)\n", g.Key, len(text))
		summary.Synthesized++
	}
	return summary
}

// unsummarized counts group members that resolve to a paper with no summary
// text; those members are left out of the prompt (R2.3). Members that do not
// resolve at all are a precondition failure reported by Synthesize.
func unsummarized(g *types.TopicGroup, byID map[string]*types.Paper) int {
	n := 0
	for _, id := range g.Members {
		if p, ok := byID[id]; ok && p.Summary == "" {
			n++
		}
	}
	return n
}
