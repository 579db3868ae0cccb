// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/margincrop/internal/docxcrop"
	"github.com/pdiddy/margincrop/internal/format"
	"github.com/pdiddy/margincrop/internal/pdfcrop"
	"github.com/pdiddy/margincrop/internal/resolution"
	"github.com/pdiddy/margincrop/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show page dimensions and current margins of a document",
	Long: `Inspect reports each page's (or section's) dimensions and margins in
millimetres without modifying anything. For PDFs it also reports the lowest
embedded image resolution.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	kind, err := format.Check(path)
	if err != nil {
		return err
	}

	var geoms []types.PageGeometry
	switch kind {
	case format.FixedPage:
		geoms, err = pdfcrop.Geometries(path)
	case format.FlowSection:
		geoms, err = docxcrop.Geometries(path)
	case format.LegacyFlow:
		return fmt.Errorf("%s is a legacy .doc file: run crop to convert it, then inspect the result", path)
	}
	if err != nil {
		return err
	}

	printGeometries(geoms, kind)

	if kind == format.FixedPage {
		if dpi := resolution.NewChecker().ReportDPI(path); dpi > 0 {
			fmt.Printf("\nLowest image resolution: %.0f dpi\n", dpi)
		}
	}
	return nil
}

func printGeometries(geoms []types.PageGeometry, kind format.Kind) {
	// Fixed-page formats carry no stored margins, so only the dimensions
	// are meaningful there.
	if kind == format.FixedPage {
		fmt.Fprintf(os.Stdout, "%-8s  %-9s  %-9s\n", "Page", "Width", "Height")
		for _, g := range geoms {
			fmt.Fprintf(os.Stdout, "%-8d  %-9s  %-9s\n", g.Page, mm(g.WidthMM), mm(g.HeightMM))
		}
		return
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-9s  %-9s  %-8s  %-8s  %-8s  %-8s\n",
		"Section", "Width", "Height", "Top", "Bottom", "Left", "Right")
	for _, g := range geoms {
		fmt.Fprintf(os.Stdout, "%-8d  %-9s  %-9s  %-8s  %-8s  %-8s  %-8s\n",
			g.Page, mm(g.WidthMM), mm(g.HeightMM),
			mm(g.TopMM), mm(g.BottomMM), mm(g.LeftMM), mm(g.RightMM))
	}
}

func mm(v float64) string {
	return fmt.Sprintf("%.1fmm", v)
}
