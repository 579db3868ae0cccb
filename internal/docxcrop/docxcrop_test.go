// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docxcrop

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/margincrop/pkg/types"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

// docBody wraps body content in the WordprocessingML document envelope.
func docBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`</w:body></w:document>`
}

// a4SectPr builds a section with an A4 page and the given pgMar attributes.
func a4SectPr(pgMar string) string {
	return `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` + pgMar + `</w:sectPr>`
}

// writeDocx assembles a .docx archive with the given document part and any
// extra entries, returning its path.
func writeDocx(t *testing.T, dir, name, documentXML string, extra map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := map[string][]byte{
		"[Content_Types].xml": []byte(contentTypesXML),
		"word/document.xml":   []byte(documentXML),
	}
	for k, v := range extra {
		entries[k] = v
	}
	for _, entryName := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(entryName)
		require.NoError(t, err)
		_, err = w.Write(entries[entryName])
		require.NoError(t, err)
	}
	for k, v := range extra {
		w, err := zw.Create(k)
		require.NoError(t, err)
		_, err = w.Write(v)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// readEntry extracts one entry from a .docx archive.
func readEntry(t *testing.T, path, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return data
		}
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return nil
}

func TestCropAccumulatesMargins(t *testing.T) {
	dir := t.TempDir()
	// Current top margin 25 mm (1417 twips).
	doc := docBody(a4SectPr(`<w:pgMar w:top="1417" w:right="1440" w:bottom="1440" w:left="1440"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	// Requesting a 28 mm crop on top yields a 53 mm final top margin.
	sections, err := Crop(in, out, types.MarginSpec{Top: 28})
	require.NoError(t, err)
	assert.Equal(t, 1, sections)

	geoms, err := Geometries(out)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	assert.InDelta(t, 53.0, geoms[0].TopMM, 0.05)
	// Unrequested edges keep their current margins.
	assert.InDelta(t, 25.4, geoms[0].BottomMM, 0.05)
	assert.InDelta(t, 25.4, geoms[0].LeftMM, 0.05)
	assert.InDelta(t, 25.4, geoms[0].RightMM, 0.05)
}

func TestCropZeroLeavesMarginBytesUntouched(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1417" w:right="851" w:bottom="1134" w:left="1701"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	_, err := Crop(in, out, types.MarginSpec{})
	require.NoError(t, err)

	// A zero request on every edge reproduces the document part
	// bit-for-bit, not merely numerically close.
	assert.Equal(t, readEntry(t, in, "word/document.xml"), readEntry(t, out, "word/document.xml"))
}

func TestCropZeroLeavesSectionWithoutPgMarUntouched(t *testing.T) {
	dir := t.TempDir()
	// No pgMar element at all; a zero request must not synthesize one.
	doc := docBody(a4SectPr(``))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	_, err := Crop(in, out, types.MarginSpec{})
	require.NoError(t, err)

	assert.Equal(t, readEntry(t, in, "word/document.xml"), readEntry(t, out, "word/document.xml"))
}

func TestCropZeroEdgeExact(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1417" w:right="851" w:bottom="1134" w:left="1701"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	// Crop only the top; the other three attribute strings must survive.
	_, err := Crop(in, out, types.MarginSpec{Top: 10})
	require.NoError(t, err)

	outDoc := string(readEntry(t, out, "word/document.xml"))
	assert.Contains(t, outDoc, `w:right="851"`)
	assert.Contains(t, outDoc, `w:bottom="1134"`)
	assert.Contains(t, outDoc, `w:left="1701"`)
	assert.NotContains(t, outDoc, `w:top="1417"`)
}

func TestCropAdjustsEverySection(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(
		`<w:p><w:pPr>` + a4SectPr(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>`) + `</w:pPr></w:p>` +
			`<w:p><w:r><w:t>second section text</w:t></w:r></w:p>` +
			a4SectPr(`<w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720"/>`),
	)
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	sections, err := Crop(in, out, types.MarginSpec{Left: 10, Right: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, sections)

	geoms, err := Geometries(out)
	require.NoError(t, err)
	require.Len(t, geoms, 2)
	assert.InDelta(t, 25.4+10, geoms[0].LeftMM, 0.05)
	assert.InDelta(t, 12.7+10, geoms[1].LeftMM, 0.05)
	assert.InDelta(t, 25.4+10, geoms[0].RightMM, 0.05)
	assert.InDelta(t, 12.7+10, geoms[1].RightMM, 0.05)
}

func TestCropDefaultsMissingMargins(t *testing.T) {
	dir := t.TempDir()
	// No pgMar at all: every edge starts at the documented one inch default.
	doc := docBody(a4SectPr(``))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	_, err := Crop(in, out, types.MarginSpec{Top: 10})
	require.NoError(t, err)

	geoms, err := Geometries(out)
	require.NoError(t, err)
	assert.InDelta(t, 35.4, geoms[0].TopMM, 0.05)
	assert.InDelta(t, 25.4, geoms[0].BottomMM, 0.05)
}

func TestCropValidationFailureLeavesSourceUntouched(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)
	out := filepath.Join(dir, "out.docx")

	before, err := os.ReadFile(in)
	require.NoError(t, err)

	// A4 is 210 mm wide; current margins are 25.4 mm each, so 80 mm more
	// per side pushes left+right to 210.8 mm.
	_, err = Crop(in, out, types.MarginSpec{Left: 80, Right: 80})
	var mve *types.MarginValidationError
	require.True(t, errors.As(err, &mve))
	assert.Equal(t, "left+right", mve.Edges)
	assert.Equal(t, 1, mve.Section)
	assert.Greater(t, mve.SumMM, mve.LimitMM)

	after, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, before, after, "source must remain byte-unmodified")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output on validation failure")
}

func TestCropRejectsExactPageDimension(t *testing.T) {
	dir := t.TempDir()
	// 2977 + 2977 twips of current margin; cropping 52.5 mm per side lands
	// the top+bottom sum exactly on the 16838-twip page height.
	top := 2977
	crop := (16838 - 2*top) / 2 // twips left to split evenly
	cropMM := float64(crop) / types.TwipsPerMM
	doc := docBody(a4SectPr(fmt.Sprintf(`<w:pgMar w:top="%d" w:right="1440" w:bottom="%d" w:left="1440"/>`, top, top)))
	in := writeDocx(t, dir, "in.docx", doc, nil)

	// Sum == page dimension is rejected: the boundary is strict >=.
	_, err := Crop(in, filepath.Join(dir, "out.docx"), types.MarginSpec{Top: cropMM, Bottom: cropMM})
	var mve *types.MarginValidationError
	require.True(t, errors.As(err, &mve))
	assert.Equal(t, "top+bottom", mve.Edges)
}

func TestCropPreservesContentBytes(t *testing.T) {
	dir := t.TempDir()
	media := bytes.Repeat([]byte{0x89, 0x50, 0x4e, 0x47}, 64)
	doc := docBody(a4SectPr(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>`))
	in := writeDocx(t, dir, "in.docx", doc, map[string][]byte{"word/media/image1.png": media})
	out := filepath.Join(dir, "out.docx")

	_, err := Crop(in, out, types.MarginSpec{Top: 5, Bottom: 5, Left: 5, Right: 5})
	require.NoError(t, err)

	assert.Equal(t, media, readEntry(t, out, "word/media/image1.png"))
	assert.Equal(t, readEntry(t, in, "[Content_Types].xml"), readEntry(t, out, "[Content_Types].xml"))
}

func TestCropIdempotent(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)

	out1 := filepath.Join(dir, "a.docx")
	out2 := filepath.Join(dir, "b.docx")
	_, err := Crop(in, out1, types.MarginSpec{Top: 12.3, Left: 4.5})
	require.NoError(t, err)
	_, err = Crop(in, out2, types.MarginSpec{Top: 12.3, Left: 4.5})
	require.NoError(t, err)

	a, err := os.ReadFile(out1)
	require.NoError(t, err)
	b, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same input and spec must yield byte-identical output")
}

func TestPlanReportsComputedMargins(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1417" w:right="1440" w:bottom="1440" w:left="1440"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)

	geoms, err := Plan(in, types.MarginSpec{Top: 28})
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	// The preview value equals what Crop will write.
	assert.InDelta(t, 53.0, geoms[0].TopMM, 0.05)

	// Plan never touches the file.
	out := filepath.Join(dir, "never.docx")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGeometriesReadsCurrentState(t *testing.T) {
	dir := t.TempDir()
	doc := docBody(a4SectPr(`<w:pgMar w:top="1440" w:right="720" w:bottom="1440" w:left="720"/>`))
	in := writeDocx(t, dir, "in.docx", doc, nil)

	geoms, err := Geometries(in)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	assert.InDelta(t, 210.0, geoms[0].WidthMM, 0.05)
	assert.InDelta(t, 297.0, geoms[0].HeightMM, 0.05)
	assert.InDelta(t, 12.7, geoms[0].LeftMM, 0.05)
}
