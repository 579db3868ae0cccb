// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcrop implements the page-box crop for fixed-page documents.
// Cropping only rewrites each page's boundary box; content streams and
// embedded resources are never re-encoded, so resolution is preserved by
// construction. The same CropRect function drives both previews and the
// final output.
package pdfcrop

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/margincrop/internal/output"
	"github.com/pdiddy/margincrop/pkg/types"
)

// Rect is a page boundary in PDF device units (points), origin bottom-left.
type Rect struct {
	LLx, LLy, URx, URy float64
}

// Width returns the rectangle width in points.
func (r Rect) Width() float64 { return r.URx - r.LLx }

// Height returns the rectangle height in points.
func (r Rect) Height() float64 { return r.URy - r.LLy }

// CropRect computes the post-crop page boundary for one page. The PDF
// coordinate origin is bottom-left, so the left and bottom margins move the
// lower-left corner inward and the right and top margins move the upper-right
// corner inward. It is a pure function, safe to call repeatedly and
// concurrently; previews must use it rather than an approximation.
func CropRect(page Rect, spec types.MarginSpec) (Rect, error) {
	top, bottom, left, right := spec.ToPoints()
	cropped := Rect{
		LLx: page.LLx + left,
		LLy: page.LLy + bottom,
		URx: page.URx - right,
		URy: page.URy - top,
	}
	if cropped.Width() <= 0 || cropped.Height() <= 0 {
		return Rect{}, &types.GeometryError{WidthPt: cropped.Width(), HeightPt: cropped.Height()}
	}
	return cropped, nil
}

// visibleBoxes returns each page's effective visible boundary: the crop box
// when the page has one, otherwise the media box. Crops must start from what
// the viewer actually shows, or re-cropping an already cropped document would
// silently do nothing.
func visibleBoxes(ctx *model.Context) ([]Rect, error) {
	pbs, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("reading page boundaries: %w", err)
	}

	rects := make([]Rect, len(pbs))
	for i, pb := range pbs {
		r := pb.CropBox()
		if r == nil {
			return nil, fmt.Errorf("page %d: no boundary box", i+1)
		}
		rects[i] = Rect{LLx: r.LL.X, LLy: r.LL.Y, URx: r.UR.X, URy: r.UR.Y}
	}
	return rects, nil
}

func readBoxes(inputPath string) ([]Rect, error) {
	ctx, err := api.ReadContextFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}
	return visibleBoxes(ctx)
}

// Geometries reads per-page visible dimensions from a document. Fixed-page
// formats have no stored margins, so the margin fields stay zero.
func Geometries(inputPath string) ([]types.PageGeometry, error) {
	boxes, err := readBoxes(inputPath)
	if err != nil {
		return nil, err
	}

	geoms := make([]types.PageGeometry, len(boxes))
	for i, b := range boxes {
		geoms[i] = types.PageGeometry{
			Page:     i + 1,
			WidthMM:  b.Width() / types.PointsPerMM,
			HeightMM: b.Height() / types.PointsPerMM,
		}
	}
	return geoms, nil
}

// planBoxes maps each visible page box to its cropped boundary. A page whose
// cropped width or height would not be positive yields a GeometryError naming
// that page.
func planBoxes(inputPath string, boxes []Rect, spec types.MarginSpec) ([]Rect, error) {
	rects := make([]Rect, len(boxes))
	for i, b := range boxes {
		cropped, err := CropRect(b, spec)
		if err != nil {
			var ge *types.GeometryError
			if errors.As(err, &ge) {
				ge.Path = inputPath
				ge.Page = i + 1
			}
			return nil, err
		}
		rects[i] = cropped
	}
	return rects, nil
}

// Plan validates the crop against every page and returns the resulting
// boundaries. Nothing is written.
func Plan(inputPath string, spec types.MarginSpec) ([]Rect, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	boxes, err := readBoxes(inputPath)
	if err != nil {
		return nil, err
	}
	return planBoxes(inputPath, boxes, spec)
}

// Crop applies the page-box crop to every page of inputPath, writing the
// result to outputPath via a temp file so failures leave no partial output.
// It returns the number of pages processed.
func Crop(inputPath, outputPath string, spec types.MarginSpec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.CROP
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", inputPath, err)
	}

	boxes, err := visibleBoxes(ctx)
	if err != nil {
		return 0, err
	}
	rects, err := planBoxes(inputPath, boxes, spec)
	if err != nil {
		return 0, err
	}

	// Each page gets its own absolute rectangle; boundaries can differ per
	// page and a margin-relative box would anchor to the media box instead
	// of the visible one.
	for i, r := range rects {
		box := &model.Box{Rect: pdftypes.NewRectangle(r.LLx, r.LLy, r.URx, r.URy)}
		if err := ctx.Crop(pdftypes.IntSet{i + 1: true}, box); err != nil {
			return 0, fmt.Errorf("cropping page %d of %s: %w", i+1, inputPath, err)
		}
	}

	tmp, err := output.TempFile(outputPath)
	if err != nil {
		return 0, fmt.Errorf("staging output for %s: %w", outputPath, err)
	}
	tmpPath := tmp.Name()

	if err := api.WriteContext(ctx, tmp); err != nil {
		tmp.Close()
		output.Discard(tmpPath)
		return 0, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	if err := tmp.Close(); err != nil {
		output.Discard(tmpPath)
		return 0, fmt.Errorf("closing staged output: %w", err)
	}

	if err := output.Commit(tmpPath, outputPath); err != nil {
		return 0, err
	}
	return len(rects), nil
}

// PageCount returns the number of pages in a document.
func PageCount(inputPath string) (int, error) {
	n, err := api.PageCountFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", inputPath, err)
	}
	return n, nil
}
