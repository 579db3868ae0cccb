// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/margincrop/internal/batch"
	"github.com/pdiddy/margincrop/internal/history"
	"github.com/pdiddy/margincrop/internal/office"
	"github.com/pdiddy/margincrop/pkg/types"
)

var cropCmd = &cobra.Command{
	Use:   "crop [files...]",
	Short: "Crop margins from a batch of documents",
	Long: `Crop applies the requested margins to each input document and writes
the result to the output directory with a filename suffix. PDF inputs lose
the given amount from each page edge; .docx inputs gain it on top of their
current section margins; .doc inputs are converted to .docx first.

Inputs come from the command line or from a YAML manifest (--manifest),
which may set per-document margins. Failures are isolated: one bad document
never stops the rest of the batch.`,
	RunE: runCrop,
}

func init() {
	cropCmd.Flags().Float64("top", 0, "millimetres to crop from the top edge")
	cropCmd.Flags().Float64("bottom", 0, "millimetres to crop from the bottom edge")
	cropCmd.Flags().Float64("left", 0, "millimetres to crop from the left edge")
	cropCmd.Flags().Float64("right", 0, "millimetres to crop from the right edge")
	cropCmd.Flags().String("out", "", "output directory (default: alongside each input)")
	cropCmd.Flags().String("suffix", types.DefaultOutputSuffix, "suffix appended to output filenames")
	cropCmd.Flags().Int("workers", types.DefaultWorkers, "number of documents processed concurrently")
	cropCmd.Flags().String("manifest", "", "YAML manifest describing the batch")
	cropCmd.Flags().Duration("convert-timeout", 0, "timeout for legacy .doc conversion (default 2m)")
	cropCmd.Flags().Bool("no-history", false, "skip recording the run in the history database")

	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	if len(args) == 0 && manifestPath == "" {
		return fmt.Errorf("provide input files or --manifest")
	}
	if len(args) > 0 && manifestPath != "" {
		return fmt.Errorf("provide input files or --manifest, not both")
	}
	if manifestPath != "" && marginFlagsChanged(cmd) {
		return fmt.Errorf("set margins with flags or in the manifest, not both")
	}

	outDir, _ := cmd.Flags().GetString("out")
	suffix, _ := cmd.Flags().GetString("suffix")
	workers, _ := cmd.Flags().GetInt("workers")

	// Config file values apply where flags were left at their defaults.
	if !cmd.Flags().Changed("workers") {
		if v := viper.GetInt("batch.workers"); v > 0 {
			workers = v
		}
	}
	if !cmd.Flags().Changed("suffix") {
		if v := viper.GetString("batch.output_suffix"); v != "" {
			suffix = v
		}
	}

	margins := marginsFromFlags(cmd)

	var jobs []*types.Job
	if manifestPath != "" {
		m, err := batch.ReadManifest(manifestPath)
		if err != nil {
			return err
		}
		// The manifest owns the batch margins; the run record reflects
		// what the jobs actually used.
		margins = m.Margins
		jobs = m.Jobs(outDir, suffix)
	} else {
		for _, path := range args {
			dir := outDir
			if dir == "" {
				dir = jobDir(path)
			}
			jobs = append(jobs, types.NewJob(path, dir, suffix, margins))
		}
	}

	converter := newConverter(cmd)
	collector := batch.NewCollector(batch.NewWriterNotifier(os.Stdout))
	orch := batch.New(types.BatchConfig{Workers: workers, OutputDir: outDir, OutputSuffix: suffix}, converter, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	summary, err := orch.Submit(ctx, jobs)
	if err != nil {
		return err
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		if err := recordRun(started, margins, summary, collector.Results()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history not recorded: %v\n", err)
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed", summary.Failed)
	}
	return nil
}

// marginFlagsChanged reports whether any margin edge was set on the command
// line, as opposed to resting at its zero default.
func marginFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"top", "bottom", "left", "right"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func marginsFromFlags(cmd *cobra.Command) types.MarginSpec {
	top, _ := cmd.Flags().GetFloat64("top")
	bottom, _ := cmd.Flags().GetFloat64("bottom")
	left, _ := cmd.Flags().GetFloat64("left")
	right, _ := cmd.Flags().GetFloat64("right")
	return types.MarginSpec{Top: top, Bottom: bottom, Left: left, Right: right}
}

// jobDir returns the directory an input lives in, so outputs land next to it.
func jobDir(inputPath string) string {
	return filepath.Dir(inputPath)
}

// newConverter builds the office converter, or nil when no office suite is
// installed. Legacy jobs then fail individually with a clear message.
func newConverter(cmd *cobra.Command) office.Converter {
	timeout, _ := cmd.Flags().GetDuration("convert-timeout")
	cfg := types.ConversionConfig{
		SofficePath: viper.GetString("soffice_path"),
		Timeout:     timeout,
	}
	conv, err := office.NewSofficeConverter(cfg)
	if err != nil || !conv.Available() {
		return nil
	}
	return conv
}

func recordRun(started time.Time, margins types.MarginSpec, summary types.BatchSummary, results []types.JobResult) error {
	store, err := history.NewStore(historyConfig(), dataDir())
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.RecordRun(context.Background(), started, margins, summary, results)
	return err
}
