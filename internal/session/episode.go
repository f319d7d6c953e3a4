// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercast/internal/topics"
	"github.com/pdiddy/papercast/pkg/types"
)

const (
	manifestFile      = "episode.yaml"
	episodeTopicsFile = "topics.yaml"
	summariesDir      = "summaries"
	synthesesDir      = "syntheses"
)

// synthesisNotice marks topics whose synthesis never completed; the member
// summaries are still written (R2.4).
const synthesisNotice = "synthesis unavailable; individual paper summaries remain"

// Manifest is the episode.yaml record: what one episode contains and where
// its artifacts are. Paths are relative to the episode directory, except
// audio paths, which point into the audio output directory.
// Implements: prd007-episodes R2.1.
type Manifest struct {
	Episode string    `yaml:"episode"`
	Created time.Time `yaml:"created"`

	// Topics lists the episode segments in air order.
	Topics []ManifestTopic `yaml:"topics"`

	// Papers lists every paper in the session, classified or not.
	Papers []ManifestPaper `yaml:"papers"`

	// Unclassified lists papers that never received a topic key; they are
	// reported rather than silently dropped.
	Unclassified []string `yaml:"unclassified,omitempty"`
}

// ManifestTopic describes one episode segment.
type ManifestTopic struct {
	Key       string   `yaml:"key"`
	Label     string   `yaml:"label"`
	Papers    []string `yaml:"papers"`
	Synthesis string   `yaml:"synthesis,omitempty"`
	Audio     string   `yaml:"audio,omitempty"`
	Notice    string   `yaml:"notice,omitempty"`
}

// ManifestPaper describes one session paper.
type ManifestPaper struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Source  string `yaml:"source,omitempty"`
	Summary string `yaml:"summary,omitempty"`
}

// WriteEpisode renders the episode artifacts under baseDir/<episode-id>:
// the manifest, a reusable topics.yaml, one markdown summary per
// summarized paper and one markdown synthesis per synthesized topic
// (R2.1-R2.5). audioFiles maps topic keys to rendered audio paths and may
// be nil when audio was skipped. Returns the episode directory.
func (s *Session) WriteEpisode(baseDir string, audioFiles map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(baseDir, s.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating episode directory: %w", err)
	}

	manifest := Manifest{
		Episode: s.id,
		Created: s.created,
	}

	for _, id := range s.order {
		p := s.papers[id]
		mp := ManifestPaper{ID: p.ID, Title: p.Title, Source: p.SourceID()}
		if strings.TrimSpace(p.Summary) != "" {
			rel := filepath.Join(summariesDir, p.ID+".md")
			if err := writeMarkdown(filepath.Join(dir, rel), p.Title, summaryMeta(p), p.Summary); err != nil {
				return "", err
			}
			mp.Summary = rel
		}
		manifest.Papers = append(manifest.Papers, mp)
		if !p.Classified() {
			manifest.Unclassified = append(manifest.Unclassified, p.ID)
		}
	}

	for _, g := range s.groups {
		mt := ManifestTopic{Key: g.Key, Label: g.Label, Papers: g.Members}
		if audioFiles != nil {
			mt.Audio = audioFiles[g.Key]
		}
		if strings.TrimSpace(g.Synthesis) == "" {
			mt.Notice = synthesisNotice
		} else {
			rel := filepath.Join(synthesesDir, g.Key+".md")
			if err := writeMarkdown(filepath.Join(dir, rel), g.Label, "", g.Synthesis); err != nil {
				return "", err
			}
			mt.Synthesis = rel
		}
		manifest.Topics = append(manifest.Topics, mt)
	}

	// Drop a copy of the allowed topics so the episode is reproducible
	// from its own directory (R2.5).
	tf := &topics.TopicsFile{Topics: s.topics.Labels()}
	if err := topics.WriteTopicsFile(filepath.Join(dir, episodeTopicsFile), tf); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("marshaling episode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return "", fmt.Errorf("writing episode manifest: %w", err)
	}

	return dir, nil
}

// writeMarkdown writes a small markdown document: title heading, optional
// metadata line, body.
func writeMarkdown(path, title, meta, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if meta != "" {
		fmt.Fprintf(&b, "%s\n\n", meta)
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// summaryMeta renders the authors and citable identifier line under a
// summary heading.
func summaryMeta(p *types.Paper) string {
	if len(p.Authors) == 0 {
		return p.SourceID()
	}
	return strings.Join(p.Authors, ", ") + " (" + p.SourceID() + ")"
}
