// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output manages destination naming and atomic writes. Cropped
// documents are always written to a temporary file in the destination
// directory and renamed into place, so a failed or cancelled job never
// leaves a partially written output behind.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/margincrop/internal/format"
	"github.com/pdiddy/margincrop/pkg/types"
)

// Filename builds the output file name for an input path: base name plus
// suffix, with the extension determined by the input's kind.
func Filename(inputPath, suffix string, kind format.Kind) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return base + suffix + format.OutputExt(kind)
}

// Path builds the full output path inside outputDir.
func Path(inputPath, outputDir, suffix string, kind format.Kind) string {
	return filepath.Join(outputDir, Filename(inputPath, suffix, kind))
}

// ValidateDir checks that dir names a writable directory, creating it if it
// does not exist. It runs before any job in that destination starts.
func ValidateDir(dir string) error {
	if dir == "" {
		return &types.OutputError{Path: dir, Reason: "destination directory must not be empty"}
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &types.OutputError{Path: dir, Reason: fmt.Sprintf("cannot create: %v", err)}
		}
	case err != nil:
		return &types.OutputError{Path: dir, Reason: err.Error()}
	case !info.IsDir():
		return &types.OutputError{Path: dir, Reason: "not a directory"}
	}

	// Probe for write permission; Stat mode bits are unreliable across
	// platforms and mounts.
	probe, err := os.CreateTemp(dir, ".margincrop-probe-*")
	if err != nil {
		return &types.OutputError{Path: dir, Reason: "not writable"}
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// TempFile creates a temporary file next to destPath for staged output.
func TempFile(destPath string) (*os.File, error) {
	return os.CreateTemp(filepath.Dir(destPath), ".margincrop-*.tmp")
}

// Commit atomically moves a staged temp file to its final destination.
func Commit(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Discard removes a staged temp file, ignoring errors; used on the failure
// and cancellation paths.
func Discard(tmpPath string) {
	if tmpPath != "" {
		os.Remove(tmpPath)
	}
}
