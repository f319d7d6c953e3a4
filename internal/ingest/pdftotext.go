// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
)

const binPdftotext = "pdftotext"

// Extractor converts a downloaded PDF into plain text. The production
// implementation shells out to pdftotext; tests substitute fakes.
type Extractor interface {
	// Available reports whether the extraction tool can run on this host.
	Available() bool

	// Extract reads the PDF at pdfPath and returns its plain text.
	Extract(pdfPath string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(name string, args []string, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunPiped(name string, args []string, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// Pdftotext extracts text with the poppler pdftotext binary (R4.1). Layout
// mode keeps multi-column papers readable in extraction order.
type Pdftotext struct {
	exec executor
}

// NewPdftotext returns an Extractor backed by the pdftotext binary on PATH.
func NewPdftotext() *Pdftotext {
	return &Pdftotext{exec: defaultExec}
}

func (p *Pdftotext) Available() bool {
	_, err := p.exec.LookPath(binPdftotext)
	return err == nil
}

func (p *Pdftotext) Extract(pdfPath string) (string, error) {
	var out bytes.Buffer
	if err := p.exec.RunPiped(binPdftotext, []string{"-layout", pdfPath, "-"}, &out); err != nil {
		return "", fmt.Errorf("running pdftotext on %s: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}
