// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// UnsupportedFormatError reports an input file whose extension is not one of
// the accepted formats.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for %s: accepted formats are .pdf, .docx, .doc", e.Extension, e.Path)
}

// ConversionError reports a failed legacy-format conversion, carrying the
// reason reported by the external tool.
type ConversionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s: %s", e.Path, e.Reason)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// MarginValidationError reports a flow-margin crop whose accumulated margins
// meet or exceed the page dimension for a pair of opposing edges.
type MarginValidationError struct {
	Path string
	// Section is the 1-based section number that failed.
	Section int
	// Edges names the offending pair, "left+right" or "top+bottom".
	Edges string
	// SumMM and LimitMM are the accumulated margin sum and the page
	// dimension it must stay below, in millimetres.
	SumMM   float64
	LimitMM float64
}

func (e *MarginValidationError) Error() string {
	return fmt.Sprintf("%s: section %d: %s margins total %.1fmm, exceeding the %.1fmm page dimension by %.1fmm",
		e.Path, e.Section, e.Edges, e.SumMM, e.LimitMM, e.SumMM-e.LimitMM)
}

// GeometryError reports a page-box crop that would produce a non-positive
// page width or height.
type GeometryError struct {
	Path string
	// Page is the 1-based page number that failed.
	Page int
	// WidthPt and HeightPt are the resulting dimensions in points.
	WidthPt  float64
	HeightPt float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: page %d: cropped page size %.1fx%.1fpt is not positive", e.Path, e.Page, e.WidthPt, e.HeightPt)
}

// OutputError reports an unusable destination.
type OutputError struct {
	Path   string
	Reason string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output destination %s: %s", e.Path, e.Reason)
}
