// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/papercast/internal/llm"
	"github.com/pdiddy/papercast/pkg/types"
)

// mockModel answers prompts by substring lookup and records every prompt it
// sees. Safe for concurrent use.
type mockModel struct {
	mu      sync.Mutex
	answers map[string]string
	errFor  map[string]error
	prompts []string
	calls   int
}

func (m *mockModel) Name() string { return "mock" }

func (m *mockModel) Complete(_ context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	for sub, err := range m.errFor {
		if strings.Contains(req.Prompt, sub) {
			return "", err
		}
	}
	for sub, answer := range m.answers {
		if strings.Contains(req.Prompt, sub) {
			return answer, nil
		}
	}
	return "synthesized segment", nil
}

func (m *mockModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func testSynthesisConfig() types.SynthesisConfig {
	return types.SynthesisConfig{
		LLMConfig: types.LLMConfig{
			Model:      "test-model",
			MaxRetries: 1,
		},
		Citations: types.StyleAPA,
	}
}

func summarizedPaper(id, title, doi, summary string) *types.Paper {
	return &types.Paper{
		ID:       id,
		Title:    title,
		Authors:  []string{"A. Author"},
		DOI:      doi,
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Summary:  summary,
		TopicKey: "databases",
	}
}

// --- Synthesize ---

func TestSynthesize(t *testing.T) {
	model := &mockModel{answers: map[string]string{
		"Databases": "The database segment.",
	}}
	sy := NewSynthesizer(model, testSynthesisConfig())

	papers := []*types.Paper{
		summarizedPaper("p1", "Paper One", "10.1/one", "First summary."),
		summarizedPaper("p2", "Paper Two", "10.1/two", "Second summary."),
	}
	g := &types.TopicGroup{Key: "databases", Label: "Databases", Members: []string{"p1", "p2"}}

	text, err := sy.Synthesize(context.Background(), g, papers)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if !strings.HasPrefix(text, "The database segment.") {
		t.Errorf("text = %q, want it to start with the model output", text)
	}
	if g.Synthesis != text {
		t.Error("group Synthesis not set to returned text")
	}

	// References cover every member.
	if !strings.Contains(text, "References:") {
		t.Errorf("text missing references block:\n%s", text)
	}
	for _, doi := range []string{"doi:10.1/one", "doi:10.1/two"} {
		if !strings.Contains(text, doi) {
			t.Errorf("references missing %s:\n%s", doi, text)
		}
	}

	// Prompt carries the topic and one entry per member, in order.
	prompt := model.lastPrompt()
	for _, want := range []string{
		"topic 'Databases'",
		"Paper: Paper One (10.1/one)",
		"Summary: First summary.",
		"Paper: Paper Two (10.1/two)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Index(prompt, "Paper One") > strings.Index(prompt, "Paper Two") {
		t.Error("prompt entries out of discovery order")
	}
}

func TestSynthesizeEmptyGroupMakesNoCall(t *testing.T) {
	model := &mockModel{}
	sy := NewSynthesizer(model, testSynthesisConfig())

	g := &types.TopicGroup{Key: "databases", Label: "Databases"}
	_, err := sy.Synthesize(context.Background(), g, nil)
	if err == nil {
		t.Fatal("expected error for empty group")
	}

	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *PreconditionError", err)
	}
	if model.calls != 0 {
		t.Errorf("model.calls = %d, want 0", model.calls)
	}
	if g.Synthesis != "" {
		t.Errorf("Synthesis = %q, want empty", g.Synthesis)
	}
}

func TestSynthesizeNoSummariesMakesNoCall(t *testing.T) {
	model := &mockModel{}
	sy := NewSynthesizer(model, testSynthesisConfig())

	papers := []*types.Paper{
		{ID: "p1", Title: "Paper One", TopicKey: "databases"},
	}
	g := &types.TopicGroup{Key: "databases", Members: []string{"p1"}}

	_, err := sy.Synthesize(context.Background(), g, papers)
	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PreconditionError", err)
	}
	if model.calls != 0 {
		t.Errorf("model.calls = %d, want 0", model.calls)
	}
}

func TestSynthesizeUnknownMemberMakesNoCall(t *testing.T) {
	model := &mockModel{}
	sy := NewSynthesizer(model, testSynthesisConfig())

	g := &types.TopicGroup{Key: "databases", Members: []string{"ghost"}}
	_, err := sy.Synthesize(context.Background(), g, nil)

	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PreconditionError", err)
	}
	if model.calls != 0 {
		t.Errorf("model.calls = %d, want 0", model.calls)
	}
}

func TestSynthesizeSkipsUnsummarizedMembers(t *testing.T) {
	model := &mockModel{}
	sy := NewSynthesizer(model, testSynthesisConfig())

	papers := []*types.Paper{
		summarizedPaper("p1", "Paper One", "10.1/one", "First summary."),
		{ID: "p2", Title: "Paper Two", DOI: "10.1/two", Authors: []string{"B. Author"}, TopicKey: "databases"},
	}
	g := &types.TopicGroup{Key: "databases", Label: "Databases", Members: []string{"p1", "p2"}}

	text, err := sy.Synthesize(context.Background(), g, papers)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	prompt := model.lastPrompt()
	if strings.Contains(prompt, "Paper Two") {
		t.Error("prompt includes member without a summary")
	}
	// The unsummarized member still appears in the references and keeps
	// its group membership.
	if !strings.Contains(text, "doi:10.1/two") {
		t.Errorf("references missing unsummarized member:\n%s", text)
	}
	if len(g.Members) != 2 {
		t.Errorf("group membership changed: %v", g.Members)
	}
}

func TestSynthesizeDropsTailEntriesOverBudget(t *testing.T) {
	model := &mockModel{}
	papers := []*types.Paper{
		summarizedPaper("p1", "Paper One", "10.1/one", "ALPHA "+strings.Repeat("a", 80)),
		summarizedPaper("p2", "Paper Two", "10.1/two", "BETA "+strings.Repeat("b", 80)),
		summarizedPaper("p3", "Paper Three", "10.1/three", "GAMMA "+strings.Repeat("c", 80)),
	}
	g := &types.TopicGroup{Key: "databases", Label: "Databases", Members: []string{"p1", "p2", "p3"}}

	// Budget for exactly the first two entries.
	entries := memberEntries(papers)
	cfg := testSynthesisConfig()
	cfg.MaxInputChars = joinedLen(entries[:2])
	sy := NewSynthesizer(model, cfg)

	text, err := sy.Synthesize(context.Background(), g, papers)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	prompt := model.lastPrompt()
	if !strings.Contains(prompt, "ALPHA") || !strings.Contains(prompt, "BETA") {
		t.Error("prompt lost an entry that fits the budget")
	}
	if strings.Contains(prompt, "GAMMA") {
		t.Error("prompt kept the tail entry past the budget")
	}

	// Truncation affects only the prompt: membership and references still
	// reflect all three papers.
	if len(g.Members) != 3 {
		t.Errorf("group membership changed: %v", g.Members)
	}
	if !strings.Contains(text, "doi:10.1/three") {
		t.Errorf("references missing truncated member:\n%s", text)
	}
}

func TestSynthesizeTruncatesOversizedSingleEntry(t *testing.T) {
	model := &mockModel{}
	papers := []*types.Paper{
		summarizedPaper("p1", "Paper One", "10.1/one", strings.Repeat("s", 500)+"SENTINEL"),
	}
	g := &types.TopicGroup{Key: "databases", Members: []string{"p1"}}

	cfg := testSynthesisConfig()
	cfg.MaxInputChars = 100
	sy := NewSynthesizer(model, cfg)

	if _, err := sy.Synthesize(context.Background(), g, papers); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if strings.Contains(model.lastPrompt(), "SENTINEL") {
		t.Error("prompt includes text beyond the character budget")
	}
}

func TestSynthesizeAdapterFailure(t *testing.T) {
	model := &mockModel{errFor: map[string]error{"Doomed": &llm.AdapterError{
		Provider: "mock", Kind: llm.Permanent, Status: 400, Message: "bad request",
	}}}
	sy := NewSynthesizer(model, testSynthesisConfig())

	papers := []*types.Paper{
		summarizedPaper("p1", "Doomed Paper", "10.1/one", "A summary."),
	}
	g := &types.TopicGroup{Key: "databases", Members: []string{"p1"}}

	_, err := sy.Synthesize(context.Background(), g, papers)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SynthesisError", err)
	}
	if serr.Topic != "databases" {
		t.Errorf("Topic = %q, want %q", serr.Topic, "databases")
	}
	var aerr *llm.AdapterError
	if !errors.As(err, &aerr) {
		t.Error("SynthesisError should wrap the adapter error")
	}
	if g.Synthesis != "" {
		t.Errorf("Synthesis = %q, want empty after failure", g.Synthesis)
	}
}

// --- SynthesizeAll ---

func TestSynthesizeAll(t *testing.T) {
	model := &mockModel{
		answers: map[string]string{"'Databases'": "Database segment."},
		errFor: map[string]error{"'Broken'": &llm.AdapterError{
			Provider: "mock", Kind: llm.Permanent, Status: 500, Message: "server error",
		}},
	}
	sy := NewSynthesizer(model, testSynthesisConfig())

	papers := []*types.Paper{
		summarizedPaper("p1", "Paper One", "10.1/one", "First summary."),
		summarizedPaper("p2", "Paper Two", "10.1/two", "Second summary."),
		summarizedPaper("p3", "Paper Three", "10.1/three", ""),
	}
	groups := []*types.TopicGroup{
		{Key: "databases", Label: "Databases", Members: []string{"p1", "p3"}},
		{Key: "broken", Label: "Broken", Members: []string{"p2"}},
	}

	var buf strings.Builder
	summary := sy.SynthesizeAll(context.Background(), groups, papers, &buf)

	if summary.Synthesized != 1 {
		t.Errorf("Synthesized = %d, want 1", summary.Synthesized)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if !summary.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}

	if !strings.HasPrefix(groups[0].Synthesis, "Database segment.") {
		t.Errorf("groups[0].Synthesis = %q", groups[0].Synthesis)
	}
	if groups[1].Synthesis != "" {
		t.Errorf("groups[1].Synthesis = %q, want empty", groups[1].Synthesis)
	}

	out := buf.String()
	if !strings.Contains(out, "failed  broken") {
		t.Errorf("output missing failure line:\n%s", out)
	}
	if !strings.Contains(out, "synthesized databases") {
		t.Errorf("output missing success line:\n%s", out)
	}
	if !strings.Contains(out, "warning: 1 member(s) have no summary") {
		t.Errorf("output missing unsummarized warning:\n%s", out)
	}
}
