// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolution audits that a crop transform did not reduce the native
// resolution of embedded raster resources. The transforms never resample or
// recompress, so a failed check signals a regression in the pipeline, not a
// condition to repair.
package resolution

import (
	"archive/zip"
	"fmt"
	"image"
	"os"
	"strings"

	// Raster formats that may appear as embedded resources.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Raster describes one embedded raster resource: its pixel dimensions and
// the effective pixels-per-inch it renders at on its page.
type Raster struct {
	Page   int
	Name   string
	Width  int
	Height int
	DPI    float64
}

// Prober inventories the embedded raster resources of a document. The
// production implementation is format specific; tests substitute fakes.
type Prober interface {
	Rasters(path string) ([]Raster, error)
}

// MinDPI returns the smallest DPI across rasters, or 0 when there are none.
func MinDPI(rasters []Raster) float64 {
	min := 0.0
	for i, r := range rasters {
		if i == 0 || r.DPI < min {
			min = r.DPI
		}
	}
	return min
}

// Verify reports whether every embedded raster in processed renders at a DPI
// at least as high as in original. A document without rasters passes.
func Verify(p Prober, original, processed string) (bool, error) {
	origRasters, err := p.Rasters(original)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", original, err)
	}
	if len(origRasters) == 0 {
		return true, nil
	}

	procRasters, err := p.Rasters(processed)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", processed, err)
	}

	return MinDPI(procRasters) >= MinDPI(origRasters), nil
}

// PDFProber inventories raster XObjects in a fixed-page document by
// extracting each image and decoding its pixel dimensions.
type PDFProber struct{}

// Rasters extracts embedded images and relates their pixel width to the
// physical width of the page carrying them.
func (PDFProber) Rasters(path string) ([]Raster, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rasters []Raster
	digest := func(img model.Image, singleImgPerPage bool, maxPageDigits int) error {
		cfg, _, err := image.DecodeConfig(img)
		if err != nil {
			// Exotic encodings (CCITT, JBIG2) fall outside the audit.
			return nil
		}
		r := Raster{Page: img.PageNr, Name: img.Name, Width: cfg.Width, Height: cfg.Height}
		if img.PageNr >= 1 && img.PageNr <= len(dims) {
			widthIn := dims[img.PageNr-1].Width / 72.0
			if widthIn > 0 {
				r.DPI = float64(cfg.Width) / widthIn
			}
		}
		rasters = append(rasters, r)
		return nil
	}

	if err := api.ExtractImages(f, nil, digest, api.LoadConfiguration()); err != nil {
		return nil, fmt.Errorf("extracting images: %w", err)
	}
	return rasters, nil
}

// ArchiveMediaEqual reports whether the media parts of two .docx archives
// are byte-identical. The flow-margin transform copies every non-document
// entry raw, so differing media means a raster was re-encoded.
func ArchiveMediaEqual(original, processed string) (bool, error) {
	origMedia, err := mediaDigests(original)
	if err != nil {
		return false, err
	}
	procMedia, err := mediaDigests(processed)
	if err != nil {
		return false, err
	}

	if len(origMedia) != len(procMedia) {
		return false, nil
	}
	for name, d := range origMedia {
		if procMedia[name] != d {
			return false, nil
		}
	}
	return true, nil
}

type entryDigest struct {
	crc  uint32
	size uint64
}

func mediaDigests(path string) (map[string]entryDigest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	digests := make(map[string]entryDigest)
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			digests[f.Name] = entryDigest{crc: f.CRC32, size: f.UncompressedSize64}
		}
	}
	return digests, nil
}

// DocxProber satisfies Prober for flow documents. Flow formats carry no page
// rendering of their own, so the raster inventory is the media archive; DPI
// comparison degenerates to byte equality, which VerifyDocx covers directly.
type DocxProber struct{}

// Rasters lists media entries without DPI (flow formats delegate rendering
// to the layout engine).
func (DocxProber) Rasters(path string) ([]Raster, error) {
	digests, err := mediaDigests(path)
	if err != nil {
		return nil, err
	}
	rasters := make([]Raster, 0, len(digests))
	for name := range digests {
		rasters = append(rasters, Raster{Name: name})
	}
	return rasters, nil
}

// Checker bundles the per-format verification used after a crop.
type Checker struct {
	PDF Prober
}

// NewChecker returns a Checker with the production PDF prober.
func NewChecker() *Checker {
	return &Checker{PDF: PDFProber{}}
}

// VerifyPDF audits a fixed-page crop.
func (c *Checker) VerifyPDF(original, processed string) (bool, error) {
	return Verify(c.PDF, original, processed)
}

// VerifyDocx audits a flow-margin crop: media entries must be untouched.
func (c *Checker) VerifyDocx(original, processed string) (bool, error) {
	return ArchiveMediaEqual(original, processed)
}

// ReportDPI returns the minimum raster DPI of a fixed-page document, or 0
// when it embeds none; used for the before/after fields of a JobResult.
func (c *Checker) ReportDPI(path string) float64 {
	rasters, err := c.PDF.Rasters(path)
	if err != nil {
		return 0
	}
	return MinDPI(rasters)
}
