// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the margin cropping pipeline:
// margin specifications, page geometry, jobs, results, and configuration.
package types

import "fmt"

// Unit conversion factors. PDF device units are points (1 inch = 72 pt),
// WordprocessingML stores margins in twips (1 pt = 20 twips).
const (
	// PointsPerMM converts millimetres to PDF points (72 / 25.4).
	PointsPerMM = 72.0 / 25.4

	// TwipsPerMM converts millimetres to twentieths of a point (1440 / 25.4).
	TwipsPerMM = 1440.0 / 25.4
)

// MarginSpec describes a crop request: the distance, in millimetres, to take
// from each page edge. For fixed-page documents the values shrink the visible
// page box; for flow documents they are added on top of each section's
// existing margin. A MarginSpec is immutable once attached to a Job.
type MarginSpec struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Validate rejects any negative component, naming the offending edge.
func (m MarginSpec) Validate() error {
	edges := []struct {
		name  string
		value float64
	}{
		{"top", m.Top},
		{"bottom", m.Bottom},
		{"left", m.Left},
		{"right", m.Right},
	}
	for _, e := range edges {
		if e.value < 0 {
			return fmt.Errorf("%s margin must not be negative (got %.3f mm)", e.name, e.value)
		}
	}
	return nil
}

// IsZero reports whether all four components are exactly zero.
func (m MarginSpec) IsZero() bool {
	return m.Top == 0 && m.Bottom == 0 && m.Left == 0 && m.Right == 0
}

// ToPoints converts the spec to PDF points in top, bottom, left, right order.
func (m MarginSpec) ToPoints() (top, bottom, left, right float64) {
	return m.Top * PointsPerMM, m.Bottom * PointsPerMM, m.Left * PointsPerMM, m.Right * PointsPerMM
}

// ToTwips converts the spec to twips in top, bottom, left, right order.
// Values are rounded to the nearest whole twip, the resolution
// WordprocessingML stores.
func (m MarginSpec) ToTwips() (top, bottom, left, right int64) {
	round := func(mm float64) int64 {
		v := mm * TwipsPerMM
		if v < 0 {
			return int64(v - 0.5)
		}
		return int64(v + 0.5)
	}
	return round(m.Top), round(m.Bottom), round(m.Left), round(m.Right)
}

// MarginsFromPoints builds a MarginSpec from point values. Together with
// ToPoints the conversion round-trips within 1e-3 mm.
func MarginsFromPoints(top, bottom, left, right float64) MarginSpec {
	return MarginSpec{
		Top:    top / PointsPerMM,
		Bottom: bottom / PointsPerMM,
		Left:   left / PointsPerMM,
		Right:  right / PointsPerMM,
	}
}

func (m MarginSpec) String() string {
	return fmt.Sprintf("top %.1fmm bottom %.1fmm left %.1fmm right %.1fmm", m.Top, m.Bottom, m.Left, m.Right)
}
