// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import (
	"testing"

	"github.com/pdiddy/papercast/pkg/types"
)

func classifiedPaper(id, key string) *types.Paper {
	return &types.Paper{ID: id, Title: "Paper " + id, RawTopic: key, TopicKey: key}
}

// --- Group ---

func TestGroup(t *testing.T) {
	l := NewList([]string{"Machine Learning", "Databases"})

	papers := []*types.Paper{
		classifiedPaper("p1", "databases"),
		classifiedPaper("p2", "machine learning"),
		classifiedPaper("p3", "databases"),
		{ID: "p4", Title: "Paper p4"}, // classification failed, no key
		classifiedPaper("p5", Uncategorized),
	}

	groups := Group(papers, l)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	// First-appearance order of keys: databases, machine learning, uncategorized.
	wantKeys := []string{"databases", "machine learning", Uncategorized}
	wantLabels := []string{"Databases", "Machine Learning", UncategorizedLabel}
	for i, g := range groups {
		if g.Key != wantKeys[i] {
			t.Errorf("groups[%d].Key = %q, want %q", i, g.Key, wantKeys[i])
		}
		if g.Label != wantLabels[i] {
			t.Errorf("groups[%d].Label = %q, want %q", i, g.Label, wantLabels[i])
		}
	}

	// Membership in input order.
	if got := groups[0].Members; len(got) != 2 || got[0] != "p1" || got[1] != "p3" {
		t.Errorf("databases members = %v, want [p1 p3]", got)
	}
	if got := groups[1].Members; len(got) != 1 || got[0] != "p2" {
		t.Errorf("machine learning members = %v, want [p2]", got)
	}
	if got := groups[2].Members; len(got) != 1 || got[0] != "p5" {
		t.Errorf("uncategorized members = %v, want [p5]", got)
	}
}

func TestGroupEveryClassifiedPaperExactlyOnce(t *testing.T) {
	l := NewList([]string{"Machine Learning", "Databases", "Systems"})

	papers := []*types.Paper{
		classifiedPaper("p1", "systems"),
		classifiedPaper("p2", "machine learning"),
		{ID: "p3"},
		classifiedPaper("p4", "systems"),
		classifiedPaper("p5", "databases"),
		classifiedPaper("p6", Uncategorized),
	}

	groups := Group(papers, l)

	seen := make(map[string]int)
	for _, g := range groups {
		if len(g.Members) == 0 {
			t.Errorf("group %q has no members", g.Key)
		}
		for _, id := range g.Members {
			seen[id]++
		}
	}

	for _, p := range papers {
		switch {
		case !p.Classified() && seen[p.ID] != 0:
			t.Errorf("unclassified paper %s appears in %d groups", p.ID, seen[p.ID])
		case p.Classified() && seen[p.ID] != 1:
			t.Errorf("paper %s appears in %d groups, want 1", p.ID, seen[p.ID])
		}
	}
}

func TestGroupStable(t *testing.T) {
	l := NewList([]string{"Machine Learning", "Databases"})
	papers := []*types.Paper{
		classifiedPaper("p1", "databases"),
		classifiedPaper("p2", "machine learning"),
		classifiedPaper("p3", "databases"),
	}

	first := Group(papers, l)
	second := Group(papers, l)

	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Errorf("group[%d] key differs: %q vs %q", i, first[i].Key, second[i].Key)
		}
		if len(first[i].Members) != len(second[i].Members) {
			t.Errorf("group[%d] member counts differ", i)
			continue
		}
		for j := range first[i].Members {
			if first[i].Members[j] != second[i].Members[j] {
				t.Errorf("group[%d].Members[%d] differs: %q vs %q", i, j, first[i].Members[j], second[i].Members[j])
			}
		}
	}
}

func TestGroupCaseVariantsShareOneGroup(t *testing.T) {
	// Three model answers for the same topic, one of them abbreviated. All
	// must land in a single group, in discovery order.
	l := NewList([]string{"Databases"})

	answers := []string{"Databases", "databases", "DB"}
	var papers []*types.Paper
	for i, raw := range answers {
		p := &types.Paper{ID: string(rune('a' + i)), RawTopic: raw}
		p.TopicKey, _, _ = l.Match(raw)
		papers = append(papers, p)
	}

	groups := Group(papers, l)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.Key != "databases" {
		t.Errorf("Key = %q, want %q", g.Key, "databases")
	}
	if len(g.Members) != 3 || g.Members[0] != "a" || g.Members[1] != "b" || g.Members[2] != "c" {
		t.Errorf("Members = %v, want [a b c]", g.Members)
	}
}

func TestGroupEmptyInputs(t *testing.T) {
	l := NewList([]string{"Machine Learning"})

	if groups := Group(nil, l); len(groups) != 0 {
		t.Errorf("Group(nil) = %d groups, want 0", len(groups))
	}

	// Allowed topics with no matching papers produce no groups.
	papers := []*types.Paper{{ID: "p1"}}
	if groups := Group(papers, l); len(groups) != 0 {
		t.Errorf("Group with only unclassified papers = %d groups, want 0", len(groups))
	}
}

// --- GroupPapers ---

func TestGroupPapers(t *testing.T) {
	papers := []*types.Paper{
		classifiedPaper("p1", "databases"),
		classifiedPaper("p2", "databases"),
		classifiedPaper("p3", "machine learning"),
	}

	g := &types.TopicGroup{Key: "databases", Members: []string{"p1", "stale", "p2"}}

	got := GroupPapers(g, papers)
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		ids := make([]string, len(got))
		for i, p := range got {
			ids[i] = p.ID
		}
		t.Errorf("GroupPapers = %v, want [p1 p2]", ids)
	}
}
