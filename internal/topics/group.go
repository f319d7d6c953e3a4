// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import "github.com/pdiddy/papercast/pkg/types"

// Group partitions classified papers by topic key (R3.1-R3.4). Groups appear
// in the order their key first occurs in papers, members keep input order,
// and no empty groups are produced. Papers that never got a key (failed or
// not yet classified) are left out; callers surface those separately. Pure:
// neither papers nor topics are mutated, so regrouping after a
// reclassification pass is just calling Group again.
func Group(papers []*types.Paper, topics List) []*types.TopicGroup {
	var groups []*types.TopicGroup
	index := make(map[string]*types.TopicGroup)
	for _, p := range papers {
		if p == nil || !p.Classified() {
			continue
		}
		g, ok := index[p.TopicKey]
		if !ok {
			g = &types.TopicGroup{
				Key:   p.TopicKey,
				Label: topics.LabelFor(p.TopicKey),
			}
			index[p.TopicKey] = g
			groups = append(groups, g)
		}
		g.Members = append(g.Members, p.ID)
	}
	return groups
}

// GroupPapers resolves a group's member IDs back to papers, preserving
// member order. Unknown IDs are skipped.
func GroupPapers(g *types.TopicGroup, papers []*types.Paper) []*types.Paper {
	byID := make(map[string]*types.Paper, len(papers))
	for _, p := range papers {
		if p != nil {
			byID[p.ID] = p
		}
	}
	out := make([]*types.Paper, 0, len(g.Members))
	for _, id := range g.Members {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
