// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format classifies input documents by file extension and maps each
// class to its crop strategy and output extension.
package format

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/margincrop/pkg/types"
)

// Kind tags the crop strategy an input document requires.
type Kind int

const (
	// Unsupported marks an extension the pipeline does not accept.
	Unsupported Kind = iota

	// FixedPage documents carry an explicit per-page boundary box (.pdf).
	// They take the page-box crop.
	FixedPage

	// FlowSection documents compute pages from per-section layout rules
	// (.docx). They take the flow-margin crop.
	FlowSection

	// LegacyFlow documents (.doc) must be converted to the modern flow
	// format before the flow-margin crop can run.
	LegacyFlow
)

func (k Kind) String() string {
	switch k {
	case FixedPage:
		return "fixed-page"
	case FlowSection:
		return "flow-section"
	case LegacyFlow:
		return "legacy-flow"
	default:
		return "unsupported"
	}
}

// Classify determines the document kind from the path's extension,
// case-insensitively.
func Classify(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FixedPage
	case ".docx":
		return FlowSection
	case ".doc":
		return LegacyFlow
	default:
		return Unsupported
	}
}

// Check classifies path and returns an UnsupportedFormatError for anything
// the pipeline does not accept.
func Check(path string) (Kind, error) {
	kind := Classify(path)
	if kind == Unsupported {
		return Unsupported, &types.UnsupportedFormatError{
			Path:      path,
			Extension: strings.ToLower(filepath.Ext(path)),
		}
	}
	return kind, nil
}

// OutputExt returns the output file extension for an input kind. Fixed-page
// and flow-section documents keep their native format; legacy documents come
// out in the modern flow format because the conversion is irreversible
// within the pipeline.
func OutputExt(k Kind) string {
	switch k {
	case FixedPage:
		return ".pdf"
	case FlowSection, LegacyFlow:
		return ".docx"
	default:
		return ""
	}
}

// NeedsConversion reports whether the kind requires the external converter
// before cropping.
func NeedsConversion(k Kind) bool {
	return k == LegacyFlow
}
