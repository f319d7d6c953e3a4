// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the papercast pipeline.
// Implements: prd002-ingestion (Paper, R3.1-R3.4);
//
//	prd001-search (SearchResult, R4.1-R4.3);
//	prd003-classification (Paper topic fields, R2.3-R2.5);
//	prd005-synthesis (TopicGroup, R1.1-R1.4).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// Paper holds one ingested research document: citation metadata, extracted
// text, and the topic and summary fields filled in by later pipeline stages.
// Per prd002-ingestion R3.1, a paper enters the session only after ID, Title,
// and Text are populated. Instances live in memory for the duration of one
// session; nothing is persisted beyond the episode artifacts.
type Paper struct {
	// ID is a slug unique within the session, derived from the source
	// identifier (e.g. "2301.07041" or a sha256 prefix of the URL).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Text is the full extracted text used for summarization. For
	// abstract-only ingestion it equals the abstract.
	Text string `json:"text" yaml:"text"`

	// URL is the location the paper was fetched from, when known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// DOI is the paper's DOI, when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the arXiv identifier, when known.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Venue is the journal or conference name, when known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// Source identifies where the paper came from
	// (e.g. "arxiv", "semantic_scholar", "corpus").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Summary is the individual paper summary produced by the summary
	// stage. Empty until that stage has run for this paper.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// RawTopic is the topic label exactly as returned by the classifier
	// model. Empty when the paper has not been classified or
	// classification failed. Per prd003-classification R2.3.
	RawTopic string `json:"raw_topic,omitempty" yaml:"raw_topic,omitempty"`

	// TopicKey is the normalized topic key derived from RawTopic. Empty
	// means unclassified; unclassified papers are excluded from grouping
	// and synthesis but stay in the session corpus (R2.5).
	TopicKey string `json:"topic_key,omitempty" yaml:"topic_key,omitempty"`
}

// Classified reports whether the paper carries a normalized topic key.
func (p *Paper) Classified() bool { return p.TopicKey != "" }

// SourceID returns the most citable identifier for the paper: DOI, then
// arXiv ID, then URL, then the session ID as a last resort.
func (p *Paper) SourceID() string {
	switch {
	case p.DOI != "":
		return p.DOI
	case p.ArxivID != "":
		return "arXiv:" + p.ArxivID
	case p.URL != "":
		return p.URL
	default:
		return p.ID
	}
}
