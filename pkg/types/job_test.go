// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
)

func TestJobLifecycle(t *testing.T) {
	job := NewJob("in.pdf", "out", "_cropped", MarginSpec{Top: 10})

	if job.ID == "" {
		t.Fatal("job should receive an ID")
	}
	if got := job.Status(); got != StatusPending {
		t.Fatalf("new job status = %q, want %q", got, StatusPending)
	}

	job.SetStatus(StatusCropping)
	if got := job.Status(); got != StatusCropping {
		t.Fatalf("status = %q, want %q", got, StatusCropping)
	}

	job.Fail("boom")
	if got := job.Status(); got != StatusFailed {
		t.Fatalf("status after Fail = %q, want %q", got, StatusFailed)
	}
	if got := job.ErrMessage(); got != "boom" {
		t.Fatalf("error message = %q, want %q", got, "boom")
	}
	if !job.Status().Terminal() {
		t.Fatal("failed status should be terminal")
	}
}

func TestJobProgressMonotonic(t *testing.T) {
	job := NewJob("in.pdf", "out", "_cropped", MarginSpec{})

	if got := job.SetProgress(30); got != 30 {
		t.Fatalf("progress = %d, want 30", got)
	}
	// A lower value never moves progress backwards.
	if got := job.SetProgress(10); got != 30 {
		t.Fatalf("progress = %d, want 30 after lower update", got)
	}
	if got := job.SetProgress(150); got != 100 {
		t.Fatalf("progress = %d, want clamp to 100", got)
	}
	if got := job.SetProgress(-5); got != 100 {
		t.Fatalf("progress = %d, want 100 after negative update", got)
	}
}

func TestBatchSummaryCounts(t *testing.T) {
	var s BatchSummary
	s.AddSuccess()
	s.AddSuccess()
	s.AddFailure("bad.pdf")

	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.Successful != 2 {
		t.Errorf("successful = %d, want 2", s.Successful)
	}
	if s.Failed != 1 {
		t.Errorf("failed = %d, want 1", s.Failed)
	}
	if len(s.FailedInputs) != 1 || s.FailedInputs[0] != "bad.pdf" {
		t.Errorf("failed inputs = %v, want [bad.pdf]", s.FailedInputs)
	}
	if !s.HasFailures() {
		t.Error("HasFailures should be true")
	}
}
