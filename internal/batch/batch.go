// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch schedules document crop jobs across a bounded worker pool.
// Each job selects its transform from the input's format, runs in isolation,
// and reports progress through a Notifier. One job failing never affects its
// siblings; the summary is produced only after every job is terminal.
package batch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/margincrop/internal/docxcrop"
	"github.com/pdiddy/margincrop/internal/format"
	"github.com/pdiddy/margincrop/internal/office"
	"github.com/pdiddy/margincrop/internal/output"
	"github.com/pdiddy/margincrop/internal/pdfcrop"
	"github.com/pdiddy/margincrop/internal/resolution"
	"github.com/pdiddy/margincrop/pkg/types"
)

// Orchestrator runs batches of crop jobs with at most Workers jobs in
// flight. The converter may be nil when no office suite is installed;
// legacy-format jobs then fail individually with a descriptive error.
type Orchestrator struct {
	workers   int
	converter office.Converter
	checker   *resolution.Checker
	notifier  Notifier
	cancelled atomic.Bool
}

// New creates an orchestrator. A non-positive cfg.Workers falls back to
// types.DefaultWorkers; a nil notifier is replaced with a no-op.
func New(cfg types.BatchConfig, converter office.Converter, notifier Notifier) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = types.DefaultWorkers
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{
		workers:   workers,
		converter: converter,
		checker:   resolution.NewChecker(),
		notifier:  notifier,
	}
}

// Cancel stops admitting queued jobs. In-flight jobs observe the flag
// between stages and either finish or reach a failed terminal state; staged
// temp files are discarded, so no partial output remains.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// Submit runs all jobs and blocks until every one is terminal, returning
// the aggregate summary. Only a malformed batch request errors upfront:
// an empty or unwritable destination rejects the whole batch before any
// job starts. Individual job failures are recorded, never fatal.
func (o *Orchestrator) Submit(ctx context.Context, jobs []*types.Job) (types.BatchSummary, error) {
	start := time.Now()
	var summary types.BatchSummary

	if len(jobs) == 0 {
		o.notifier.BatchDone(summary)
		return summary, nil
	}

	// Destination checks run before any job starts.
	seen := make(map[string]bool)
	for _, job := range jobs {
		if seen[job.OutputDir] {
			continue
		}
		seen[job.OutputDir] = true
		if err := output.ValidateDir(job.OutputDir); err != nil {
			return summary, err
		}
	}

	jobCh := make(chan *types.Job)
	resultCh := make(chan types.JobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- o.runJob(ctx, job)
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		if res.Success {
			summary.AddSuccess()
		} else {
			summary.AddFailure(res.InputPath)
		}
	}
	summary.Elapsed = time.Since(start)

	o.notifier.BatchDone(summary)
	return summary, nil
}

// stopped reports whether the batch was cancelled or the context ended.
func (o *Orchestrator) stopped(ctx context.Context) bool {
	return o.cancelled.Load() || ctx.Err() != nil
}

// progress records and publishes a job progress update.
func (o *Orchestrator) progress(job *types.Job, pct int) {
	o.notifier.JobProgress(job, job.SetProgress(pct))
}

// fail marks the job failed and returns its result record.
func (o *Orchestrator) fail(job *types.Job, err error) types.JobResult {
	job.Fail(err.Error())
	res := types.JobResult{
		JobID:      job.ID,
		InputPath:  job.InputPath,
		Success:    false,
		ErrMessage: err.Error(),
	}
	o.notifier.JobDone(job, res)
	return res
}

// runJob drives one job through its state machine:
// PENDING -> {CONVERTING ->} CROPPING -> COMPLETED | FAILED.
func (o *Orchestrator) runJob(ctx context.Context, job *types.Job) types.JobResult {
	if o.stopped(ctx) {
		return o.fail(job, fmt.Errorf("cancelled before start"))
	}

	o.progress(job, 10)

	if err := job.Margins.Validate(); err != nil {
		return o.fail(job, err)
	}

	kind, err := format.Check(job.InputPath)
	if err != nil {
		return o.fail(job, err)
	}

	outPath := output.Path(job.InputPath, job.OutputDir, job.Suffix, kind)

	var res types.JobResult
	switch kind {
	case format.FixedPage:
		res, err = o.cropPDF(ctx, job, outPath)
	case format.FlowSection:
		res, err = o.cropDocx(ctx, job, job.InputPath, outPath)
	case format.LegacyFlow:
		res, err = o.convertAndCrop(ctx, job, outPath)
	}
	if err != nil {
		return o.fail(job, err)
	}

	job.SetStatus(types.StatusCompleted)
	o.progress(job, 100)
	o.notifier.JobDone(job, res)
	return res
}

// cropPDF runs the page-box transform and the resolution audit.
func (o *Orchestrator) cropPDF(ctx context.Context, job *types.Job, outPath string) (types.JobResult, error) {
	job.SetStatus(types.StatusCropping)
	o.progress(job, 30)

	dpiBefore := o.checker.ReportDPI(job.InputPath)

	pages, err := pdfcrop.Crop(job.InputPath, outPath, job.Margins)
	if err != nil {
		return types.JobResult{}, err
	}
	o.progress(job, 90)

	if o.stopped(ctx) {
		os.Remove(outPath)
		return types.JobResult{}, fmt.Errorf("cancelled")
	}

	ok, err := o.checker.VerifyPDF(job.InputPath, outPath)
	if err == nil && !ok {
		err = fmt.Errorf("resolution check failed for %s: output rasters below input resolution", job.InputPath)
	}
	if err != nil {
		os.Remove(outPath)
		return types.JobResult{}, err
	}

	return types.JobResult{
		JobID:            job.ID,
		InputPath:        job.InputPath,
		OutputPath:       outPath,
		Success:          true,
		PagesProcessed:   pages,
		ResolutionBefore: dpiBefore,
		ResolutionAfter:  o.checker.ReportDPI(outPath),
	}, nil
}

// cropDocx runs the flow-margin transform on srcPath (the original input or
// a conversion product) and audits that media bytes survived.
func (o *Orchestrator) cropDocx(ctx context.Context, job *types.Job, srcPath, outPath string) (types.JobResult, error) {
	job.SetStatus(types.StatusCropping)
	o.progress(job, 60)

	sections, err := docxcrop.Crop(srcPath, outPath, job.Margins)
	if err != nil {
		return types.JobResult{}, err
	}
	o.progress(job, 90)

	if o.stopped(ctx) {
		os.Remove(outPath)
		return types.JobResult{}, fmt.Errorf("cancelled")
	}

	ok, err := o.checker.VerifyDocx(srcPath, outPath)
	if err == nil && !ok {
		err = fmt.Errorf("resolution check failed for %s: media entries changed", srcPath)
	}
	if err != nil {
		os.Remove(outPath)
		return types.JobResult{}, err
	}

	return types.JobResult{
		JobID:          job.ID,
		InputPath:      job.InputPath,
		OutputPath:     outPath,
		Success:        true,
		PagesProcessed: sections,
	}, nil
}

// convertAndCrop handles legacy inputs: external conversion into a scratch
// directory, then the flow-margin transform on the product.
func (o *Orchestrator) convertAndCrop(ctx context.Context, job *types.Job, outPath string) (types.JobResult, error) {
	if o.converter == nil {
		return types.JobResult{}, &types.ConversionError{
			Path:   job.InputPath,
			Reason: "no office converter available for legacy documents",
		}
	}

	job.SetStatus(types.StatusConverting)
	o.progress(job, 20)

	scratch, err := os.MkdirTemp("", "margincrop-convert-*")
	if err != nil {
		return types.JobResult{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	converted, err := o.converter.Convert(ctx, job.InputPath, scratch)
	if err != nil {
		return types.JobResult{}, err
	}
	o.progress(job, 50)

	if o.stopped(ctx) {
		return types.JobResult{}, fmt.Errorf("cancelled")
	}

	return o.cropDocx(ctx, job, converted, outPath)
}
