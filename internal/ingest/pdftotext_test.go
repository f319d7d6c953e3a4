// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runPipedFunc  func(name string, args []string, stdout io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunPiped(name string, args []string, stdout io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdout)
	}
	return nil
}

func TestPdftotextAvailable(t *testing.T) {
	p := &Pdftotext{exec: &mockExecutor{availableBins: map[string]bool{"pdftotext": true}}}
	if !p.Available() {
		t.Error("Available() = false, want true when binary on PATH")
	}

	p = &Pdftotext{exec: &mockExecutor{availableBins: map[string]bool{}}}
	if p.Available() {
		t.Error("Available() = true, want false when binary missing")
	}
}

func TestPdftotextExtract(t *testing.T) {
	p := &Pdftotext{exec: &mockExecutor{
		runPipedFunc: func(name string, args []string, stdout io.Writer) error {
			if name != "pdftotext" {
				return errors.New("expected pdftotext binary")
			}
			// Layout mode, PDF path, stdout marker.
			if len(args) != 3 || args[0] != "-layout" || args[1] != "/papers/x.pdf" || args[2] != "-" {
				return errors.New("unexpected args")
			}
			_, _ = stdout.Write([]byte("Extracted text content."))
			return nil
		},
	}}

	text, err := p.Extract("/papers/x.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Extracted text content." {
		t.Errorf("text = %q", text)
	}
}

func TestPdftotextExtractEmptyOutput(t *testing.T) {
	p := &Pdftotext{exec: &mockExecutor{
		runPipedFunc: func(string, []string, io.Writer) error { return nil },
	}}

	_, err := p.Extract("/papers/x.pdf")
	if err == nil {
		t.Fatal("expected error for empty output")
	}
	if !strings.Contains(err.Error(), "empty output") {
		t.Errorf("error = %q, should mention empty output", err.Error())
	}
}

func TestPdftotextExtractRunError(t *testing.T) {
	p := &Pdftotext{exec: &mockExecutor{
		runPipedFunc: func(string, []string, io.Writer) error {
			return errors.New("exit status 1")
		},
	}}

	_, err := p.Extract("/papers/broken.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "running pdftotext") {
		t.Errorf("error = %q, should wrap the run failure", err.Error())
	}
}
