// Package pdftext turns PDF statements into plain text for line-oriented
// field scanning.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor produces the text of a PDF file.
type Extractor interface {
	Text(ctx context.Context, path string) (string, error)
}

// Tool extracts text by running the pdftotext utility in layout mode.
// Layout mode keeps amounts on the same line as their labels, which the
// field scanners depend on.
type Tool struct {
	Binary string // defaults to "pdftotext"
}

// NewTool returns a Tool using the pdftotext binary from PATH.
func NewTool() *Tool {
	return &Tool{Binary: "pdftotext"}
}

// Text runs pdftotext -layout and returns its stdout.
func (t *Tool) Text(ctx context.Context, path string) (string, error) {
	bin := t.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	cmd := exec.CommandContext(ctx, bin, "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s -layout %s: %v: %s", bin, path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
