// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the in-memory paper collection for one papercast
// run and writes the episode artifacts at the end. There is no persistence
// layer: the session is discarded at process exit and only the episode
// artifacts survive.
//
// Implements: prd007-episodes (R1-R2);
//
//	docs/ARCHITECTURE § Session and episodes.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/papercast/internal/topics"
	"github.com/pdiddy/papercast/pkg/types"
)

// Session is the explicit context object threaded through the pipeline
// stages; there is no package-level mutable state. Classification runs on
// disjoint papers outside the lock; the lock guards the collection itself,
// and Regroup is the join point that makes classification results visible
// to grouping (R1.7-R1.8).
type Session struct {
	id      string
	created time.Time
	topics  topics.List

	mu     sync.Mutex
	order  []string
	papers map[string]*types.Paper
	groups []*types.TopicGroup
}

// New creates an empty session over the given allowed-topic list, with a
// fresh episode ID (R1.1).
func New(allowed topics.List) *Session {
	return &Session{
		id:      uuid.NewString(),
		created: time.Now().UTC(),
		topics:  allowed,
		papers:  make(map[string]*types.Paper),
	}
}

// ID returns the episode ID for this session.
func (s *Session) ID() string { return s.id }

// Created returns the session start time.
func (s *Session) Created() time.Time { return s.created }

// Topics returns the allowed-topic list the session was started with. The
// list is immutable for the session's lifetime.
func (s *Session) Topics() topics.List { return s.topics }

// AddPapers adds papers to the collection, preserving insertion order. A
// nil paper, a paper without an ID, or an ID already present rejects the
// whole batch and nothing is added (R1.2-R1.3).
func (s *Session) AddPapers(papers ...*types.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(papers))
	for i, p := range papers {
		if p == nil || p.ID == "" {
			return fmt.Errorf("paper %d: missing id", i)
		}
		if _, ok := s.papers[p.ID]; ok {
			return fmt.Errorf("duplicate paper id %s", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate paper id %s", p.ID)
		}
		seen[p.ID] = true
	}

	for _, p := range papers {
		s.papers[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return nil
}

// Papers returns the papers in insertion order (R1.4). The slice is a
// fresh copy; the papers themselves are the live instances the pipeline
// stages mutate.
func (s *Session) Papers() []*types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of papers in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Lookup returns the paper with the given ID (R1.5).
func (s *Session) Lookup(id string) (*types.Paper, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.papers[id]
	return p, ok
}

// Unclassified returns the papers without a topic key, in insertion order
// (R1.6). Papers whose classification failed stay visible here; they are
// never dropped from the session.
func (s *Session) Unclassified() []*types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Paper
	for _, id := range s.order {
		if p := s.papers[id]; !p.Classified() {
			out = append(out, p)
		}
	}
	return out
}

// Regroup recomputes the topic groups from the current collection (R1.8).
// Groups are never updated incrementally: reclassifying or adding papers
// followed by Regroup keeps grouping consistent with the papers.
func (s *Session) Regroup() []*types.TopicGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = topics.Group(s.snapshot(), s.topics)
	return s.groups
}

// Groups returns the groups from the last Regroup call.
func (s *Session) Groups() []*types.TopicGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups
}

// Group returns the group with the given topic key from the last Regroup
// call (R1.9).
func (s *Session) Group(key string) (*types.TopicGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Key == key {
			return g, true
		}
	}
	return nil, false
}

// snapshot returns the papers in insertion order. Callers hold s.mu.
func (s *Session) snapshot() []*types.Paper {
	out := make([]*types.Paper, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.papers[id])
	}
	return out
}
