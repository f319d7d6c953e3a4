// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audio renders topic syntheses to speech through an
// OpenAI-compatible text-to-speech endpoint and plays back the results.
//
// Implements: prd006-audio (R1-R6);
//
//	docs/ARCHITECTURE § Audio.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/papercast/internal/httputil"
	"github.com/pdiddy/papercast/pkg/types"
)

// speechAPIURL is the text-to-speech endpoint. Declared as a var so tests
// can substitute an httptest server.
var speechAPIURL = "https://api.openai.com/v1/audio/speech"

// maxInputChars is the endpoint's per-request input limit (R2.2). Longer
// scripts are split and the returned audio concatenated.
const maxInputChars = 4096

const (
	defaultModel     = "tts-1"
	defaultVoice     = "alloy"
	defaultFormat    = "mp3"
	defaultOutputDir = "output/audio"
)

// speechRequest is the JSON body for the speech endpoint (R3.1).
type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// speechError is the endpoint's JSON error envelope.
type speechError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Renderer converts synthesis scripts to audio files.
type Renderer struct {
	cfg    types.AudioConfig
	client *http.Client
}

// NewRenderer builds a renderer, applying the model, voice, format and
// output directory defaults (R1.1-R1.4).
func NewRenderer(cfg types.AudioConfig) *Renderer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultVoice
	}
	if cfg.Format == "" {
		cfg.Format = defaultFormat
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	return &Renderer{cfg: cfg, client: httputil.NewClient(cfg.Timeout)}
}

// Render converts text to audio. Scripts over the endpoint's input limit
// are split at sentence boundaries and the audio segments concatenated in
// order (R2.3); MP3 and the other container formats the endpoint returns
// tolerate stream concatenation.
func (r *Renderer) Render(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty text")
	}
	if r.cfg.APIKey == "" {
		return nil, errors.New("speech API key not configured")
	}

	var audio []byte
	for i, segment := range SplitText(text, maxInputChars) {
		b, err := r.renderSegment(ctx, segment)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		audio = append(audio, b...)
	}
	return audio, nil
}

// RenderToFile renders text and writes the audio to path, creating parent
// directories as needed.
func (r *Renderer) RenderToFile(ctx context.Context, text, path string) error {
	audio, err := r.Render(ctx, text)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audio directory: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("writing audio file: %w", err)
	}
	return nil
}

func (r *Renderer) renderSegment(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model:          r.cfg.Model,
		Input:          text,
		Voice:          r.cfg.Voice,
		ResponseFormat: r.cfg.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speechAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	// The endpoint rate-limits with 429; DoWithRetry replays the POST
	// body on each attempt (R3.3).
	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		var apiErr speechError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("speech API returned HTTP %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("speech API returned HTTP %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech API returned no audio")
	}
	return audio, nil
}

// BatchResult summarizes one audio rendering pass.
type BatchResult struct {
	Rendered int
	Skipped  int
	Failed   int

	// Files maps topic keys to audio file paths, including files that
	// already existed and were skipped.
	Files map[string]string
}

// Total returns the number of groups processed.
func (b *BatchResult) Total() int { return b.Rendered + b.Skipped + b.Failed }

// HasFailures reports whether any group failed to render.
func (b *BatchResult) HasFailures() bool { return b.Failed > 0 }

// RenderBatch renders one audio file per topic group under the configured
// output directory, named <key>.<format>. Groups without synthesis text are
// skipped (R4.1), as are groups whose output file already exists (R4.2). A
// failed group does not stop the batch (R4.3). Progress is reported on w.
func (r *Renderer) RenderBatch(ctx context.Context, groups []*types.TopicGroup, w io.Writer) *BatchResult {
	result := &BatchResult{Files: make(map[string]string)}

	for _, g := range groups {
		if strings.TrimSpace(g.Synthesis) == "" {
			fmt.Fprintf(w, "skipped: %s (no synthesis)\n", g.Key)
			result.Skipped++
			continue
		}

		outPath := filepath.Join(r.cfg.OutputDir, g.Key+"."+r.cfg.Format)
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", g.Key)
			result.Skipped++
			result.Files[g.Key] = outPath
			continue
		}

		fmt.Fprintf(w, "rendering: %s (%d chars)\n", g.Key, utf8.RuneCountInString(g.Synthesis))
		if err := r.RenderToFile(ctx, g.Synthesis, outPath); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", g.Key, err)
			result.Failed++
			continue
		}
		result.Files[g.Key] = outPath
		result.Rendered++
	}

	fmt.Fprintf(w, "\nBatch summary: %d rendered, %d skipped, %d failed (total: %d)\n",
		result.Rendered, result.Skipped, result.Failed, result.Total())
	return result
}
