// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/margincrop/internal/docxcrop"
	"github.com/pdiddy/margincrop/internal/format"
	"github.com/pdiddy/margincrop/internal/pdfcrop"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show what a crop would produce without writing anything",
	Long: `Preview computes the exact result of cropping a document with the given
margins and prints it. The computation is the same one the crop command
uses, so a crop that previews cleanly will not fail on geometry.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Float64("top", 0, "millimetres to crop from the top edge")
	previewCmd.Flags().Float64("bottom", 0, "millimetres to crop from the bottom edge")
	previewCmd.Flags().Float64("left", 0, "millimetres to crop from the left edge")
	previewCmd.Flags().Float64("right", 0, "millimetres to crop from the right edge")
	previewCmd.Flags().Int("page", 0, "show only this page or section (0 = all)")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]
	margins := marginsFromFlags(cmd)
	page, _ := cmd.Flags().GetInt("page")

	kind, err := format.Check(path)
	if err != nil {
		return err
	}

	switch kind {
	case format.FixedPage:
		rects, err := pdfcrop.Plan(path, margins)
		if err != nil {
			return err
		}
		if page > len(rects) {
			return fmt.Errorf("%s has only %d page(s)", path, len(rects))
		}
		fmt.Printf("Cropping %s (%s)\n\n", path, margins)
		fmt.Fprintf(os.Stdout, "%-8s  %-9s  %-9s\n", "Page", "Width", "Height")
		for i, r := range rects {
			if page > 0 && i+1 != page {
				continue
			}
			fmt.Fprintf(os.Stdout, "%-8d  %-9s  %-9s\n", i+1, pt(r.Width()), pt(r.Height()))
		}

	case format.FlowSection:
		geoms, err := docxcrop.Plan(path, margins)
		if err != nil {
			return err
		}
		if page > len(geoms) {
			return fmt.Errorf("%s has only %d section(s)", path, len(geoms))
		}
		if page > 0 {
			geoms = geoms[page-1 : page]
		}
		fmt.Printf("Cropping %s (%s)\n\n", path, margins)
		printGeometries(geoms, kind)

	case format.LegacyFlow:
		return fmt.Errorf("%s is a legacy .doc file: preview is only available after conversion", path)
	}
	return nil
}

func pt(v float64) string {
	return fmt.Sprintf("%.1fpt", v)
}
