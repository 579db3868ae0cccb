// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docxcrop implements the flow-margin crop for section-based
// documents. A flow format has no visible page box; cropping means growing
// each section's page margin by the requested amount on top of whatever
// margin already exists. Only margin attributes inside the section
// properties change; every other byte of the document, including all
// content and media parts, is carried over untouched.
package docxcrop

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/margincrop/internal/output"
	"github.com/pdiddy/margincrop/pkg/types"
)

const documentPart = "word/document.xml"

// Margin defaults in twips for edges a section leaves unspecified. Word
// renders a missing pgMar attribute as one inch, so accumulating on top of
// this constant matches what the user sees on screen.
const DefaultMarginTwips = 1440

// Page size defaults in twips for sections without an explicit pgSz,
// matching the word processor's Letter default.
const (
	DefaultPageWidthTwips  = 12240
	DefaultPageHeightTwips = 15840
)

var (
	sectPrRE = regexp.MustCompile(`(?s)<w:sectPr[ >].*?</w:sectPr>`)
	pgMarRE  = regexp.MustCompile(`<w:pgMar\b[^>]*/?>`)
	pgSzRE   = regexp.MustCompile(`<w:pgSz\b[^>]*/?>`)
)

// edge attribute patterns within a pgMar or pgSz tag.
var attrRE = map[string]*regexp.Regexp{
	"w:top":    regexp.MustCompile(`w:top="(-?\d+)"`),
	"w:bottom": regexp.MustCompile(`w:bottom="(-?\d+)"`),
	"w:left":   regexp.MustCompile(`w:left="(-?\d+)"`),
	"w:right":  regexp.MustCompile(`w:right="(-?\d+)"`),
	"w:w":      regexp.MustCompile(`w:w="(\d+)"`),
	"w:h":      regexp.MustCompile(`w:h="(\d+)"`),
}

// sectionPlan holds one section's current and computed margins in twips.
type sectionPlan struct {
	// index within document.xml of the sectPr block, and the block text.
	loc  []int
	text string

	widthTw, heightTw int64

	curTop, curBottom, curLeft, curRight int64
	newTop, newBottom, newLeft, newRight int64
}

// attrTwips reads an integer attribute from a tag, falling back to def when
// the attribute is absent.
func attrTwips(tag, name string, def int64) int64 {
	m := attrRE[name].FindStringSubmatch(tag)
	if m == nil {
		return def
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return def
	}
	return v
}

func twipsToMM(tw int64) float64 {
	return float64(tw) / types.TwipsPerMM
}

// plan reads every sectPr in documentXML, accumulates the requested crop on
// top of each section's current margins, and validates the result against
// the section's page size before anything is written. The returned plans are
// in document order.
func plan(path, documentXML string, spec types.MarginSpec) ([]sectionPlan, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	locs := sectPrRE.FindAllStringIndex(documentXML, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%s: no section properties found in %s", path, documentPart)
	}

	cropTop, cropBottom, cropLeft, cropRight := spec.ToTwips()

	plans := make([]sectionPlan, len(locs))
	for i, loc := range locs {
		text := documentXML[loc[0]:loc[1]]
		p := sectionPlan{loc: loc, text: text}

		szTag := pgSzRE.FindString(text)
		p.widthTw = attrTwips(szTag, "w:w", DefaultPageWidthTwips)
		p.heightTw = attrTwips(szTag, "w:h", DefaultPageHeightTwips)

		marTag := pgMarRE.FindString(text)
		p.curTop = attrTwips(marTag, "w:top", DefaultMarginTwips)
		p.curBottom = attrTwips(marTag, "w:bottom", DefaultMarginTwips)
		p.curLeft = attrTwips(marTag, "w:left", DefaultMarginTwips)
		p.curRight = attrTwips(marTag, "w:right", DefaultMarginTwips)

		p.newTop = p.curTop + cropTop
		p.newBottom = p.curBottom + cropBottom
		p.newLeft = p.curLeft + cropLeft
		p.newRight = p.curRight + cropRight

		if p.newLeft+p.newRight >= p.widthTw {
			return nil, &types.MarginValidationError{
				Path:    path,
				Section: i + 1,
				Edges:   "left+right",
				SumMM:   twipsToMM(p.newLeft + p.newRight),
				LimitMM: twipsToMM(p.widthTw),
			}
		}
		if p.newTop+p.newBottom >= p.heightTw {
			return nil, &types.MarginValidationError{
				Path:    path,
				Section: i + 1,
				Edges:   "top+bottom",
				SumMM:   twipsToMM(p.newTop + p.newBottom),
				LimitMM: twipsToMM(p.heightTw),
			}
		}

		plans[i] = p
	}
	return plans, nil
}

// rewriteSection returns the sectPr block with its pgMar grown per the plan.
// Edges with a zero crop keep their original attribute bytes; a section
// without a pgMar element gets one inserted with the computed values, unless
// the whole crop is zero, in which case the block passes through untouched.
func rewriteSection(p sectionPlan, spec types.MarginSpec) string {
	cropTop, cropBottom, cropLeft, cropRight := spec.ToTwips()
	if cropTop == 0 && cropBottom == 0 && cropLeft == 0 && cropRight == 0 {
		return p.text
	}

	marLoc := pgMarRE.FindStringIndex(p.text)
	if marLoc == nil {
		// No explicit margins: write the accumulated values outright.
		tag := fmt.Sprintf(`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d"/>`,
			p.newTop, p.newRight, p.newBottom, p.newLeft)
		end := strings.LastIndex(p.text, "</w:sectPr>")
		return p.text[:end] + tag + p.text[end:]
	}

	tag := p.text[marLoc[0]:marLoc[1]]
	edges := []struct {
		attr string
		crop int64
		newV int64
	}{
		{"w:top", cropTop, p.newTop},
		{"w:bottom", cropBottom, p.newBottom},
		{"w:left", cropLeft, p.newLeft},
		{"w:right", cropRight, p.newRight},
	}
	for _, e := range edges {
		if e.crop == 0 {
			// A zero crop leaves the edge's bytes exactly as they were.
			continue
		}
		replacement := fmt.Sprintf(`%s="%d"`, e.attr, e.newV)
		if attrRE[e.attr].MatchString(tag) {
			tag = attrRE[e.attr].ReplaceAllString(tag, replacement)
		} else {
			// Attribute absent: implicit default grows by the crop.
			tag = strings.Replace(tag, "<w:pgMar", "<w:pgMar "+replacement, 1)
		}
	}
	return p.text[:marLoc[0]] + tag + p.text[marLoc[1]:]
}

// readDocumentXML extracts the main document part from a .docx archive.
func readDocumentXML(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("missing %s", documentPart)
}

func openArchive(path string) (*zip.Reader, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s as archive: %w", path, err)
	}
	return zr, data, nil
}

// Geometries returns one PageGeometry per section with the document's
// current page size and margins.
func Geometries(path string) ([]types.PageGeometry, error) {
	zr, _, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	docXML, err := readDocumentXML(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	plans, err := plan(path, docXML, types.MarginSpec{})
	if err != nil {
		return nil, err
	}

	geoms := make([]types.PageGeometry, len(plans))
	for i, p := range plans {
		geoms[i] = types.PageGeometry{
			Page:     i + 1,
			WidthMM:  twipsToMM(p.widthTw),
			HeightMM: twipsToMM(p.heightTw),
			TopMM:    twipsToMM(p.curTop),
			BottomMM: twipsToMM(p.curBottom),
			LeftMM:   twipsToMM(p.curLeft),
			RightMM:  twipsToMM(p.curRight),
		}
	}
	return geoms, nil
}

// Plan computes the post-crop margins per section without writing anything.
// Previews render these exact values: a margin line drawn at current+crop
// from the edge is this computation.
func Plan(path string, spec types.MarginSpec) ([]types.PageGeometry, error) {
	zr, _, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	docXML, err := readDocumentXML(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	plans, err := plan(path, docXML, spec)
	if err != nil {
		return nil, err
	}

	geoms := make([]types.PageGeometry, len(plans))
	for i, p := range plans {
		geoms[i] = types.PageGeometry{
			Page:     i + 1,
			WidthMM:  twipsToMM(p.widthTw),
			HeightMM: twipsToMM(p.heightTw),
			TopMM:    twipsToMM(p.newTop),
			BottomMM: twipsToMM(p.newBottom),
			LeftMM:   twipsToMM(p.newLeft),
			RightMM:  twipsToMM(p.newRight),
		}
	}
	return geoms, nil
}

// Crop grows every section's margins by spec and writes the result to
// outputPath via a temp file. Validation runs over all sections before any
// byte is written, so a failing document is left untouched. All archive
// entries other than the document part are copied in raw form. It returns
// the number of sections adjusted.
func Crop(inputPath, outputPath string, spec types.MarginSpec) (int, error) {
	zr, _, err := openArchive(inputPath)
	if err != nil {
		return 0, err
	}
	docXML, err := readDocumentXML(zr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", inputPath, err)
	}

	plans, err := plan(inputPath, docXML, spec)
	if err != nil {
		return 0, err
	}

	// Assemble the new document part. Plans are in document order, so the
	// rewrite walks the XML left to right.
	var b strings.Builder
	prev := 0
	for _, p := range plans {
		b.WriteString(docXML[prev:p.loc[0]])
		b.WriteString(rewriteSection(p, spec))
		prev = p.loc[1]
	}
	b.WriteString(docXML[prev:])
	newDoc := b.String()

	tmp, err := output.TempFile(outputPath)
	if err != nil {
		return 0, fmt.Errorf("staging output for %s: %w", outputPath, err)
	}
	tmpPath := tmp.Name()

	zw := zip.NewWriter(tmp)
	for _, f := range zr.File {
		if f.Name == documentPart {
			hdr := &zip.FileHeader{
				Name:     f.Name,
				Method:   f.Method,
				Modified: f.Modified,
			}
			w, err := zw.CreateHeader(hdr)
			if err == nil {
				_, err = w.Write([]byte(newDoc))
			}
			if err != nil {
				zw.Close()
				tmp.Close()
				output.Discard(tmpPath)
				return 0, fmt.Errorf("writing %s: %w", documentPart, err)
			}
			continue
		}
		// Raw copy: content bytes pass through without recompression.
		if err := zw.Copy(f); err != nil {
			zw.Close()
			tmp.Close()
			output.Discard(tmpPath)
			return 0, fmt.Errorf("copying %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		output.Discard(tmpPath)
		return 0, fmt.Errorf("finalizing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		output.Discard(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	if err := output.Commit(tmpPath, outputPath); err != nil {
		return 0, err
	}
	return len(plans), nil
}
