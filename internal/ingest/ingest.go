// Package ingest turns search results into session papers. It resolves
// identifiers to fetchable locations, downloads documents with a politeness
// delay, and extracts the plain text the downstream stages work on.
// Implements: prd002-ingestion (R1-R6);
//
//	docs/ARCHITECTURE § Ingestion.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/papercast/internal/httputil"
	"github.com/pdiddy/papercast/pkg/types"
)

// defaultMaxPDFBytes caps downloads when the config leaves the limit unset.
const defaultMaxPDFBytes = 50 << 20 // 50 MiB

// BatchResult holds the outcome of a batch ingestion run.
type BatchResult struct {
	Ingested int
	Skipped  int
	Failed   int
	Papers   []*types.Paper
}

// Total returns the total number of results processed.
func (r BatchResult) Total() int {
	return r.Ingested + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// IngestPaper turns a single search result into a session paper. It
// downloads the document unless abstract-only mode is on or the PDF is
// already in the work directory, extracts text, and checks the corpus
// contract. The cached return value reports whether the download was
// skipped (R2.4).
func IngestPaper(ctx context.Context, client *http.Client, ex Extractor, result types.SearchResult, cfg types.IngestConfig, w io.Writer) (paper *types.Paper, cached bool, err error) {
	id := ingestID(result)
	idType, normalized := Classify(id)
	if idType == TypeUnknown {
		return nil, false, fmt.Errorf("unrecognized identifier format: %q", id)
	}

	p := paperFromResult(result, idType, normalized)

	// Abstract-only mode builds the paper from search metadata alone (R5.3).
	if cfg.AbstractOnly || ex == nil {
		if result.Abstract == "" {
			return nil, false, fmt.Errorf("no abstract available for %s", p.ID)
		}
		p.Text = result.Abstract
		if err := ValidatePaper(p); err != nil {
			return nil, false, err
		}
		fmt.Fprintf(w, "ingested: %s (abstract only)\n", p.ID)
		return p, false, nil
	}

	pdfPath := filepath.Join(cfg.WorkDir, p.ID+".pdf")

	var text string
	if _, statErr := os.Stat(pdfPath); statErr == nil {
		fmt.Fprintf(w, "cached: %s (already downloaded)\n", p.ID)
		cached = true
		text, err = ex.Extract(pdfPath)
	} else {
		if mkErr := os.MkdirAll(cfg.WorkDir, 0o755); mkErr != nil {
			return nil, false, fmt.Errorf("creating work directory: %w", mkErr)
		}
		fmt.Fprintf(w, "downloading: %s (%s)\n", p.ID, idType)
		text, err = fetchText(ctx, client, ex, DocumentURL(idType, normalized), pdfPath, cfg)
	}

	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("no text extracted for %s", p.ID)
	}
	if err != nil {
		// Fall back to the abstract rather than losing the paper (R4.3).
		if result.Abstract == "" {
			return nil, false, err
		}
		fmt.Fprintf(w, "  warning: text extraction failed: %v, using abstract\n", err)
		text = result.Abstract
	}
	p.Text = text

	if err := ValidatePaper(p); err != nil {
		return nil, false, err
	}
	return p, cached, nil
}

// IngestBatch processes search results in order, printing per-item status
// and returning a summary. It continues after individual failures (R5.1)
// and applies a delay between consecutive downloads (R2.1). When the
// extraction tool is missing it degrades to abstract-only mode for the
// whole batch (R5.3).
func IngestBatch(ctx context.Context, client *http.Client, ex Extractor, results []types.SearchResult, cfg types.IngestConfig, w io.Writer) BatchResult {
	if !cfg.AbstractOnly && (ex == nil || !ex.Available()) {
		fmt.Fprintf(w, "warning: pdftotext not found on PATH, ingesting abstracts only\n")
		cfg.AbstractOnly = true
	}

	var result BatchResult
	for i, r := range results {
		if i > 0 && !cfg.AbstractOnly && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		paper, wasCached, err := IngestPaper(ctx, client, ex, r, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", ingestID(r), err)
			result.Failed++
			continue
		}
		if wasCached {
			result.Skipped++
		} else {
			result.Ingested++
		}
		result.Papers = append(result.Papers, paper)
	}
	fmt.Fprintf(w, "\nBatch summary: %d ingested, %d skipped, %d failed (total: %d)\n",
		result.Ingested, result.Skipped, result.Failed, result.Total())
	return result
}

// ingestID picks the identifier to ingest: the backend-preferred IngestID,
// falling back to the display identifier for hand-edited results files.
func ingestID(result types.SearchResult) string {
	if result.IngestID != "" {
		return result.IngestID
	}
	return result.Identifier
}

// paperFromResult carries search metadata over to the paper record
// (R3.2-R3.4), so ingestion never re-queries the search APIs.
func paperFromResult(result types.SearchResult, idType IdentifierType, normalized string) *types.Paper {
	p := &types.Paper{
		ID:       Slug(idType, normalized),
		Title:    strings.TrimSpace(result.Title),
		Authors:  result.Authors,
		Abstract: result.Abstract,
		Venue:    result.Venue,
		Date:     result.Date,
		Source:   result.Source,
		URL:      PageURL(idType, normalized),
	}
	switch idType {
	case TypeArxiv:
		p.ArxivID = normalized
	case TypeDOI:
		p.DOI = normalized
	}
	if p.Source == "" {
		p.Source = idType.String()
	}
	return p
}

// fetchText downloads the document at rawURL and returns its plain text.
// PDFs are kept at pdfPath and run through the extractor; HTML landing
// pages (a common outcome of DOI resolution) are reduced to text by tag
// stripping and not kept on disk (R4.1, R4.2).
func fetchText(ctx context.Context, client *http.Client, ex Extractor, rawURL, pdfPath string, cfg types.IngestConfig) (string, error) {
	req, err := httputil.NewRequest(ctx, http.MethodGet, rawURL, cfg.UserAgent)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	maxBytes := cfg.MaxPDFBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxPDFBytes
	}

	// Download to a temp file, rename on success (R2.5).
	tmpFile, err := os.CreateTemp(filepath.Dir(pdfPath), ".ingest-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, io.LimitReader(resp.Body, maxBytes+1))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	// Size cap (R2.3).
	if n > maxBytes {
		os.Remove(tmpPath)
		return "", fmt.Errorf("document exceeds %d byte limit", maxBytes)
	}

	isPDF, err := hasPDFMagic(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if isPDF {
		if err := os.Rename(tmpPath, pdfPath); err != nil {
			os.Remove(tmpPath)
			return "", fmt.Errorf("renaming temp file: %w", err)
		}
		return ex.Extract(pdfPath)
	}

	// Not a PDF: treat it as an HTML landing page. Landing pages are not
	// worth keeping in the work directory.
	data, err := os.ReadFile(tmpPath)
	os.Remove(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading download: %w", err)
	}
	return StripHTML(string(data)), nil
}

// hasPDFMagic reports whether the file starts with the %PDF signature.
func hasPDFMagic(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening download: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		// Shorter than four bytes cannot be a PDF.
		return false, nil
	}
	return bytes.Equal(head, []byte("%PDF")), nil
}
