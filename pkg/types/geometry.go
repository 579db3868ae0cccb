// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PageGeometry describes one page or section as read from a source document:
// its physical size and its four current margins, all in millimetres.
type PageGeometry struct {
	// Page is the 1-based page or section number within the document.
	Page int `json:"page" yaml:"page"`

	// WidthMM and HeightMM are the physical page dimensions.
	WidthMM  float64 `json:"width_mm" yaml:"width_mm"`
	HeightMM float64 `json:"height_mm" yaml:"height_mm"`

	// TopMM, BottomMM, LeftMM and RightMM are the current page margins.
	// Fixed-page formats have no stored margin concept, so these are zero
	// there; flow formats populate them from the section properties.
	TopMM    float64 `json:"top_mm" yaml:"top_mm"`
	BottomMM float64 `json:"bottom_mm" yaml:"bottom_mm"`
	LeftMM   float64 `json:"left_mm" yaml:"left_mm"`
	RightMM  float64 `json:"right_mm" yaml:"right_mm"`
}
