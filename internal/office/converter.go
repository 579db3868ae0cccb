// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office wraps the external office-suite process that converts
// legacy .doc files into .docx. The pipeline only depends on the
// path-in/path-out contract; the conversion itself is opaque.
package office

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/margincrop/pkg/types"
)

// DefaultTimeout bounds a single conversion subprocess run.
const DefaultTimeout = 2 * time.Minute

// sofficePaths lists common LibreOffice install locations checked when the
// binary is not on PATH.
var sofficePaths = []string{
	"/usr/bin/soffice",
	"/usr/bin/libreoffice",
	"/opt/homebrew/bin/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	`C:\Program Files\LibreOffice\program\soffice.exe`,
}

// Converter turns a legacy .doc file into .docx. The soffice implementation
// is the production backend; tests substitute fakes.
type Converter interface {
	// Name returns the backend name for status output.
	Name() string

	// Available reports whether the backend can run.
	Available() bool

	// Convert converts inputPath into outputDir and returns the path of
	// the produced .docx file.
	Convert(ctx context.Context, inputPath, outputDir string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunCombined(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

var defaultExec executor = &osExecutor{}

// SofficeConverter shells out to LibreOffice in headless mode.
type SofficeConverter struct {
	bin     string
	timeout time.Duration
	exec    executor
}

// NewSofficeConverter locates the soffice binary and returns a converter.
// cfg.SofficePath overrides auto-detection; cfg.Timeout of zero means
// DefaultTimeout.
func NewSofficeConverter(cfg types.ConversionConfig) (*SofficeConverter, error) {
	return newSofficeConverter(cfg, defaultExec)
}

func newSofficeConverter(cfg types.ConversionConfig, exec executor) (*SofficeConverter, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bin := cfg.SofficePath
	if bin == "" {
		bin = detectSoffice(exec)
	}
	if bin == "" {
		return nil, fmt.Errorf("no office converter available: soffice not found on PATH or in known locations")
	}

	return &SofficeConverter{bin: bin, timeout: timeout, exec: exec}, nil
}

func detectSoffice(exec executor) string {
	if path, err := exec.LookPath("soffice"); err == nil {
		return path
	}
	for _, path := range sofficePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *SofficeConverter) Name() string { return "soffice" }

func (c *SofficeConverter) Available() bool { return c.bin != "" }

// Convert runs soffice --headless --convert-to docx, returning the produced
// file path. Failures carry the tool's combined output as the reason.
func (c *SofficeConverter) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", &types.ConversionError{Path: inputPath, Reason: "input file does not exist", Err: err}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &types.ConversionError{Path: inputPath, Reason: fmt.Sprintf("creating output directory: %v", err), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"--headless", "--convert-to", "docx", "--outdir", outputDir, inputPath}
	out, err := c.exec.RunCombined(ctx, c.bin, args...)
	if err != nil {
		reason := strings.TrimSpace(string(out))
		if reason == "" {
			reason = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			reason = fmt.Sprintf("conversion timed out after %v", c.timeout)
		}
		return "", &types.ConversionError{Path: inputPath, Reason: reason, Err: err}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	produced := filepath.Join(outputDir, base+".docx")
	if _, err := os.Stat(produced); err != nil {
		return "", &types.ConversionError{Path: inputPath, Reason: "converter reported success but produced no .docx", Err: err}
	}
	return produced, nil
}
