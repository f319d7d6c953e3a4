// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics classifies papers into user-supplied topics and groups them
// for synthesis. Label normalization is the load-bearing piece: generative
// models return topic labels with inconsistent casing, punctuation, and
// phrasing, and without a canonical key semantically identical topics
// fragment into separate groups.
// Implements: prd003-classification (R1-R4);
//
//	docs/ARCHITECTURE § Classification.
package topics

import (
	"strings"
	"unicode"
)

const (
	// Uncategorized is the normalized key assigned when no allowed topic
	// matches a label (R1.4).
	Uncategorized = "uncategorized"

	// UncategorizedLabel is the display spelling of Uncategorized.
	UncategorizedLabel = "Uncategorized"

	// similarityThreshold is the minimum token-overlap (Jaccard) ratio at
	// which a label snaps to an allowed topic (R1.3). Chosen so that a
	// two-token label sharing one token with a two-token topic ("deep
	// learning" vs "machine learning": 1/3) does not match, while a label
	// missing one token of a two-token topic ("learning" vs "machine
	// learning": 1/2) does.
	similarityThreshold = 0.5

	// maxAbbrevLen caps how long a label can be and still be read as an
	// abbreviation. Real abbreviations ("DB", "NLP", "CV") are short;
	// longer labels go through the token-overlap path instead.
	maxAbbrevLen = 6

	// minContainLen is the shortest label eligible for substring
	// containment. Two-rune fragments occur inside too many words ("as"
	// sits inside "databases") and must clear the anchored abbreviation
	// check instead.
	minContainLen = 3
)

// Normalize canonicalizes a raw topic label into a comparable key: trim,
// lowercase, turn word separators (hyphen, slash, underscore) into spaces,
// drop all other punctuation, collapse whitespace runs (R1.1). Deterministic
// and idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '/', r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// escapeResponses are model outputs that explicitly decline to pick a topic
// (R1.5). Compared after normalization.
var escapeResponses = map[string]bool{
	"other":             true,
	"none":              true,
	"none of the above": true,
	"not listed":        true,
	"cannot classify":   true,
	"unclassified":      true,
	Uncategorized:       true,
}

// List holds the session's allowed topics in user order. Immutable once
// built; all matching goes through value receivers.
type List struct {
	labels []string // original spellings, first occurrence wins
	keys   []string // normalized forms, parallel to labels
}

// NewList builds a List from user-supplied topic strings. Entries that
// normalize to nothing are dropped; entries that normalize to the same key
// keep the first spelling (R1.6: case-only variants collapse to one key).
func NewList(labels []string) List {
	var l List
	seen := make(map[string]bool)
	for _, label := range labels {
		key := Normalize(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		l.labels = append(l.labels, strings.TrimSpace(label))
		l.keys = append(l.keys, key)
	}
	return l
}

// Len reports the number of distinct allowed topics.
func (l List) Len() int { return len(l.keys) }

// Labels returns the display spellings in user order.
func (l List) Labels() []string {
	out := make([]string, len(l.labels))
	copy(out, l.labels)
	return out
}

// Keys returns the normalized keys in user order.
func (l List) Keys() []string {
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}

// LabelFor returns the display spelling for a normalized key. Unknown keys
// come back unchanged so callers can render groups built before a topic was
// removed from a list.
func (l List) LabelFor(key string) string {
	if key == Uncategorized {
		return UncategorizedLabel
	}
	for i, k := range l.keys {
		if k == key {
			return l.labels[i]
		}
	}
	return key
}

// Match maps a raw model label onto the allowed set (R1.2-R1.4): exact match
// on normalized forms, then substring containment in either direction, then
// abbreviation expansion, then token overlap of at least similarityThreshold.
// The first allowed topic to match wins at each step, making the result
// deterministic in user order. Empty labels, escape responses, and labels
// below the threshold map to Uncategorized. Closure: the returned key is
// always Uncategorized or one of l.Keys().
func (l List) Match(raw string) (key, label string, matched bool) {
	norm := Normalize(raw)
	if norm == "" || escapeResponses[norm] {
		return Uncategorized, UncategorizedLabel, false
	}

	for i, k := range l.keys {
		if norm == k {
			return k, l.labels[i], true
		}
	}

	// Substring containment catches partial answers ("data" for
	// "databases") and verbose ones ("the topic is machine learning").
	if len([]rune(norm)) >= minContainLen {
		for i, k := range l.keys {
			if strings.Contains(k, norm) || strings.Contains(norm, k) {
				return l.keys[i], l.labels[i], true
			}
		}
	}

	for i, k := range l.keys {
		if matchAbbreviation(norm, k) {
			return l.keys[i], l.labels[i], true
		}
	}

	best, bestRatio := -1, 0.0
	normTokens := strings.Fields(norm)
	for i, k := range l.keys {
		if r := overlapRatio(normTokens, strings.Fields(k)); r > bestRatio {
			best, bestRatio = i, r
		}
	}
	if best >= 0 && bestRatio >= similarityThreshold {
		return l.keys[best], l.labels[best], true
	}

	return Uncategorized, UncategorizedLabel, false
}

// matchAbbreviation reports whether a short single-token label reads as an
// abbreviation of the topic: the initials of a multi-word topic ("ml" for
// "machine learning") or a subsequence of a single-word topic anchored at its
// first letter ("db" for "databases"). The first-letter anchor keeps
// arbitrary letter soup from snapping to unrelated topics.
func matchAbbreviation(label, topic string) bool {
	runes := []rune(label)
	if len(runes) < 2 || len(runes) > maxAbbrevLen || strings.ContainsRune(label, ' ') {
		return false
	}

	words := strings.Fields(topic)
	switch {
	case len(words) == 0:
		return false
	case len(words) > 1:
		if len(runes) != len(words) {
			return false
		}
		for i, w := range words {
			if []rune(w)[0] != runes[i] {
				return false
			}
		}
		return true
	default:
		word := []rune(words[0])
		if word[0] != runes[0] {
			return false
		}
		i := 0
		for _, r := range word {
			if i < len(runes) && r == runes[i] {
				i++
			}
		}
		return i == len(runes)
	}
}

// overlapRatio is the Jaccard ratio |a ∩ b| / |a ∪ b| over token sets.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	intersection := 0
	for t := range setB {
		if setA[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
