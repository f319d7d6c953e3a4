// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TopicGroup collects the papers classified under one normalized topic key.
// Groups are recomputed from the full paper collection on every grouping
// pass; they are never updated incrementally. Per prd005-synthesis R1.1-R1.4.
type TopicGroup struct {
	// Key is the normalized topic key, unique within a session.
	Key string `json:"key" yaml:"key"`

	// Label is the display spelling of the topic: the matched allowed
	// topic's original form, or "Uncategorized".
	Label string `json:"label" yaml:"label"`

	// Members lists member paper IDs in original discovery order.
	Members []string `json:"members" yaml:"members"`

	// Synthesis is the cross-paper synthesis text. Empty until the
	// synthesis stage has run for this group; stored verbatim as returned
	// by the model, with a References block appended.
	Synthesis string `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
}
