// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/papercast/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

const fakeLandingPage = `<html><head><title>Landing</title></head>
<body><h1>A Paper</h1><p>The full text of the paper as served by the publisher.</p></body></html>`

// fakeExtractor returns canned text and records calls.
type fakeExtractor struct {
	available bool
	text      string
	err       error
	calls     int
	lastPath  string
}

func (f *fakeExtractor) Available() bool { return f.available }

func (f *fakeExtractor) Extract(pdfPath string) (string, error) {
	f.calls++
	f.lastPath = pdfPath
	return f.text, f.err
}

// newTestServer serves fake PDFs under /pdf/ and HTML landing pages under /doi/.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case strings.HasPrefix(r.URL.Path, "/doi/"):
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, fakeLandingPage)
		default:
			http.NotFound(w, r)
		}
	}))
}

// overrideBaseURLs points the resolution bases at the test server and
// returns a cleanup function that restores the originals.
func overrideBaseURLs(tsURL string) func() {
	origPDF := arxivPDFBase
	origAbs := arxivAbsBase
	origDOI := doiBase

	arxivPDFBase = tsURL + "/pdf/"
	arxivAbsBase = tsURL + "/abs/"
	doiBase = tsURL + "/doi/"

	return func() {
		arxivPDFBase = origPDF
		arxivAbsBase = origAbs
		doiBase = origDOI
	}
}

func testIngestConfig(dir string) types.IngestConfig {
	return types.IngestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "papercast-test/0.1",
		},
		WorkDir: dir,
	}
}

func arxivResult() types.SearchResult {
	return types.SearchResult{
		Identifier: "2301.07041",
		Title:      "Test Paper Title",
		Authors:    []string{"Alice Smith", "Bob Jones"},
		Abstract:   "This is the abstract of the test paper.",
		Venue:      "NeurIPS",
		Date:       time.Date(2023, 1, 17, 0, 0, 0, 0, time.UTC),
		Source:     "arxiv",
		IngestID:   "2301.07041",
	}
}

func TestIngestPaperArxiv(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	dir := t.TempDir()
	ex := &fakeExtractor{available: true, text: "Extracted text content."}
	var buf bytes.Buffer

	paper, cached, err := IngestPaper(context.Background(), ts.Client(), ex, arxivResult(), testIngestConfig(dir), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if cached {
		t.Error("expected download, got cached")
	}
	if paper.ID != "2301.07041" {
		t.Errorf("paper.ID = %q, want %q", paper.ID, "2301.07041")
	}
	if paper.ArxivID != "2301.07041" {
		t.Errorf("paper.ArxivID = %q", paper.ArxivID)
	}
	if paper.Title != "Test Paper Title" {
		t.Errorf("paper.Title = %q", paper.Title)
	}
	if paper.Text != "Extracted text content." {
		t.Errorf("paper.Text = %q", paper.Text)
	}
	if paper.Abstract != "This is the abstract of the test paper." {
		t.Errorf("paper.Abstract = %q", paper.Abstract)
	}
	if paper.Venue != "NeurIPS" {
		t.Errorf("paper.Venue = %q", paper.Venue)
	}
	if paper.Source != "arxiv" {
		t.Errorf("paper.Source = %q", paper.Source)
	}
	if paper.URL != ts.URL+"/abs/2301.07041" {
		t.Errorf("paper.URL = %q, want abs page", paper.URL)
	}

	// The PDF should be kept in the work directory.
	data, err := os.ReadFile(filepath.Join(dir, "2301.07041.pdf"))
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("PDF content = %q", string(data))
	}
	if ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", ex.calls)
	}
	if !strings.Contains(buf.String(), "downloading:") {
		t.Error("output should contain 'downloading:'")
	}
}

func TestIngestPaperUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	ex := &fakeExtractor{available: true, text: "text"}
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), ts.Client(), ex, arxivResult(), testIngestConfig(t.TempDir()), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if gotUA != "papercast-test/0.1" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "papercast-test/0.1")
	}
}

func TestIngestPaperCached(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2301.07041.pdf"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := &fakeExtractor{available: true, text: "Cached text."}
	var buf bytes.Buffer

	paper, cached, err := IngestPaper(context.Background(), http.DefaultClient, ex, arxivResult(), testIngestConfig(dir), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if !cached {
		t.Error("expected cached, got download")
	}
	if paper.Text != "Cached text." {
		t.Errorf("paper.Text = %q", paper.Text)
	}
	if ex.lastPath != filepath.Join(dir, "2301.07041.pdf") {
		t.Errorf("extractor path = %q", ex.lastPath)
	}
	if !strings.Contains(buf.String(), "cached:") {
		t.Error("output should contain 'cached:'")
	}
}

func TestIngestPaperAbstractOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := testIngestConfig(dir)
	cfg.AbstractOnly = true
	var buf bytes.Buffer

	paper, cached, err := IngestPaper(context.Background(), http.DefaultClient, &fakeExtractor{available: true}, arxivResult(), cfg, &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if cached {
		t.Error("abstract-only should not report cached")
	}
	if paper.Text != "This is the abstract of the test paper." {
		t.Errorf("paper.Text = %q, want the abstract", paper.Text)
	}
	if !strings.Contains(buf.String(), "abstract only") {
		t.Error("output should mention abstract only")
	}

	// Nothing downloaded.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir should be empty, has %d entries", len(entries))
	}
}

func TestIngestPaperAbstractOnlyWithoutAbstract(t *testing.T) {
	cfg := testIngestConfig(t.TempDir())
	cfg.AbstractOnly = true

	r := arxivResult()
	r.Abstract = ""
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), http.DefaultClient, nil, r, cfg, &buf)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no abstract available") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestIngestPaperUnknownIdentifier(t *testing.T) {
	r := types.SearchResult{IngestID: "not-a-valid-id", Title: "X"}
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), http.DefaultClient, &fakeExtractor{available: true}, r, testIngestConfig(t.TempDir()), &buf)
	if err == nil {
		t.Fatal("expected error for unknown identifier")
	}
	if !strings.Contains(err.Error(), "unrecognized identifier format") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestIngestPaperHTMLLandingPage(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	dir := t.TempDir()
	ex := &fakeExtractor{available: true, text: "unused"}

	r := types.SearchResult{
		Identifier: "10.1145/1234567.1234568",
		IngestID:   "10.1145/1234567.1234568",
		Title:      "DOI Paper",
		Abstract:   "Short abstract.",
		Source:     "semanticscholar",
	}
	var buf bytes.Buffer

	paper, _, err := IngestPaper(context.Background(), ts.Client(), ex, r, testIngestConfig(dir), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if !strings.Contains(paper.Text, "full text of the paper") {
		t.Errorf("paper.Text = %q, want stripped landing page text", paper.Text)
	}
	if strings.Contains(paper.Text, "<") {
		t.Errorf("paper.Text still contains markup: %q", paper.Text)
	}
	if paper.DOI != "10.1145/1234567.1234568" {
		t.Errorf("paper.DOI = %q", paper.DOI)
	}
	// The extractor is only for PDFs; a landing page bypasses it.
	if ex.calls != 0 {
		t.Errorf("extractor calls = %d, want 0", ex.calls)
	}
	// Landing pages are not kept on disk.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir should be empty, has %d entries", len(entries))
	}
}

func TestIngestPaperExtractionFailureFallsBackToAbstract(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	ex := &fakeExtractor{available: true, err: fmt.Errorf("exit status 1")}
	var buf bytes.Buffer

	paper, _, err := IngestPaper(context.Background(), ts.Client(), ex, arxivResult(), testIngestConfig(t.TempDir()), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if paper.Text != "This is the abstract of the test paper." {
		t.Errorf("paper.Text = %q, want the abstract", paper.Text)
	}
	if !strings.Contains(buf.String(), "warning: text extraction failed") {
		t.Errorf("output should contain extraction warning, got:\n%s", buf.String())
	}
}

func TestIngestPaperExtractionFailureWithoutAbstract(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	ex := &fakeExtractor{available: true, err: fmt.Errorf("exit status 1")}

	r := arxivResult()
	r.Abstract = ""
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), ts.Client(), ex, r, testIngestConfig(t.TempDir()), &buf)
	if err == nil {
		t.Fatal("expected error when extraction fails and no abstract exists")
	}
}

func TestIngestPaperDownloadErrorFallsBackToAbstract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	ex := &fakeExtractor{available: true, text: "unused"}
	var buf bytes.Buffer

	paper, _, err := IngestPaper(context.Background(), ts.Client(), ex, arxivResult(), testIngestConfig(t.TempDir()), &buf)
	if err != nil {
		t.Fatalf("IngestPaper: %v", err)
	}
	if paper.Text != "This is the abstract of the test paper." {
		t.Errorf("paper.Text = %q, want the abstract", paper.Text)
	}
	if !strings.Contains(buf.String(), "HTTP 404") {
		t.Errorf("warning should mention the HTTP status, got:\n%s", buf.String())
	}
}

func TestIngestPaperSizeLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 ")
		fmt.Fprint(w, strings.Repeat("x", 1024))
	}))
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testIngestConfig(t.TempDir())
	cfg.MaxPDFBytes = 100

	r := arxivResult()
	r.Abstract = ""
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), ts.Client(), &fakeExtractor{available: true}, r, cfg, &buf)
	if err == nil {
		t.Fatal("expected error for oversized document")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestIngestPaperMissingTitle(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	r := arxivResult()
	r.Title = ""
	var buf bytes.Buffer

	_, _, err := IngestPaper(context.Background(), ts.Client(), &fakeExtractor{available: true, text: "text"}, r, testIngestConfig(t.TempDir()), &buf)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "missing title") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestIngestBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	dir := t.TempDir()
	ex := &fakeExtractor{available: true, text: "Extracted text."}
	var buf bytes.Buffer

	results := []types.SearchResult{
		arxivResult(),
		{IngestID: "bad-identifier", Title: "Broken"},
		{IngestID: ts.URL + "/pdf/direct.pdf", Title: "Direct Paper", Abstract: "A."},
	}

	result := IngestBatch(context.Background(), ts.Client(), ex, results, testIngestConfig(dir), &buf)

	if result.Ingested != 2 {
		t.Errorf("Ingested = %d, want 2", result.Ingested)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Total() != 3 {
		t.Errorf("Total = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if len(result.Papers) != 2 {
		t.Errorf("len(Papers) = %d, want 2", len(result.Papers))
	}
	if !strings.Contains(buf.String(), "failed:  bad-identifier") {
		t.Errorf("output should report the failed identifier, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Batch summary:") {
		t.Error("output should contain batch summary")
	}
}

func TestIngestBatchCachedCountsSkipped(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2301.07041.pdf"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := &fakeExtractor{available: true, text: "Cached text."}
	var buf bytes.Buffer

	result := IngestBatch(context.Background(), http.DefaultClient, ex, []types.SearchResult{arxivResult()}, testIngestConfig(dir), &buf)

	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if result.Ingested != 0 {
		t.Errorf("Ingested = %d, want 0", result.Ingested)
	}
}

func TestIngestBatchDegradesWithoutExtractor(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{available: false}
	var buf bytes.Buffer

	result := IngestBatch(context.Background(), http.DefaultClient, ex, []types.SearchResult{arxivResult()}, testIngestConfig(dir), &buf)

	if result.Ingested != 1 {
		t.Fatalf("Ingested = %d, want 1 (abstract only)", result.Ingested)
	}
	if result.Papers[0].Text != "This is the abstract of the test paper." {
		t.Errorf("paper.Text = %q, want the abstract", result.Papers[0].Text)
	}
	if !strings.Contains(buf.String(), "pdftotext not found") {
		t.Errorf("output should warn about missing pdftotext, got:\n%s", buf.String())
	}
	if ex.calls != 0 {
		t.Errorf("extractor calls = %d, want 0", ex.calls)
	}
}
