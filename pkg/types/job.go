// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusConverting JobStatus = "converting"
	StatusCropping   JobStatus = "cropping"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job identifies one document to crop: the input file, the destination
// directory, and the margin spec to apply. The orchestrator owns a Job for
// its whole lifetime; exactly one worker mutates it. Status and progress are
// still guarded by a mutex so observers may read them while the job runs.
type Job struct {
	ID        string
	InputPath string
	OutputDir string
	Suffix    string
	Margins   MarginSpec

	mu       sync.Mutex
	status   JobStatus
	progress int
	errMsg   string
}

// NewJob creates a pending job with a fresh ID.
func NewJob(inputPath, outputDir, suffix string, margins MarginSpec) *Job {
	return &Job{
		ID:        uuid.NewString(),
		InputPath: inputPath,
		OutputDir: outputDir,
		Suffix:    suffix,
		Margins:   margins,
		status:    StatusPending,
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// SetStatus transitions the job to the given state.
func (j *Job) SetStatus(s JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = s
}

// Progress returns the current progress percentage.
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// SetProgress records progress, clamped to 0..100. Progress never moves
// backwards: a lower value than the current one is ignored.
func (j *Job) SetProgress(pct int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct > j.progress {
		j.progress = pct
	}
	return j.progress
}

// Fail records an error message and marks the job failed.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errMsg = msg
	j.status = StatusFailed
}

// ErrMessage returns the failure message, empty unless the job failed.
func (j *Job) ErrMessage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

// JobResult is the immutable record of a finished job.
type JobResult struct {
	JobID            string  `json:"job_id" yaml:"job_id"`
	InputPath        string  `json:"input_path" yaml:"input_path"`
	OutputPath       string  `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Success          bool    `json:"success" yaml:"success"`
	PagesProcessed   int     `json:"pages_processed" yaml:"pages_processed"`
	ResolutionBefore float64 `json:"resolution_before" yaml:"resolution_before"`
	ResolutionAfter  float64 `json:"resolution_after" yaml:"resolution_after"`
	ErrMessage       string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchSummary aggregates the results of one batch run. It is produced once,
// after every submitted job has reached a terminal state.
type BatchSummary struct {
	Total        int           `json:"total" yaml:"total"`
	Successful   int           `json:"successful" yaml:"successful"`
	Failed       int           `json:"failed" yaml:"failed"`
	FailedInputs []string      `json:"failed_inputs,omitempty" yaml:"failed_inputs,omitempty"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// AddSuccess counts one successful job.
func (s *BatchSummary) AddSuccess() {
	s.Successful++
	s.Total++
}

// AddFailure counts one failed job and records its input path.
func (s *BatchSummary) AddFailure(inputPath string) {
	s.Failed++
	s.Total++
	s.FailedInputs = append(s.FailedInputs, inputPath)
}

// HasFailures reports whether any job in the batch failed.
func (s *BatchSummary) HasFailures() bool {
	return s.Failed > 0
}
