// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/margincrop/pkg/types"
)

// Notifier observes batch execution. Implementations must tolerate
// concurrent calls; the orchestrator invokes them from worker goroutines.
// Progress percentages are monotonically non-decreasing per job and reach
// 100 on success.
type Notifier interface {
	JobProgress(job *types.Job, pct int)
	JobDone(job *types.Job, result types.JobResult)
	BatchDone(summary types.BatchSummary)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) JobProgress(*types.Job, int)         {}
func (NopNotifier) JobDone(*types.Job, types.JobResult) {}
func (NopNotifier) BatchDone(types.BatchSummary)        {}

// WriterNotifier prints per-job status lines and the batch summary to an
// io.Writer, serialized through a mutex.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier wraps w with a WriterNotifier.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) JobProgress(job *types.Job, pct int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%-11s %s (%d%%)\n", string(job.Status())+":", filepath.Base(job.InputPath), pct)
}

func (n *WriterNotifier) JobDone(job *types.Job, result types.JobResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := filepath.Base(job.InputPath)
	if result.Success {
		fmt.Fprintf(n.w, "completed: %s -> %s\n", name, result.OutputPath)
		return
	}
	fmt.Fprintf(n.w, "failed:    %s (%s)\n", name, result.ErrMessage)
}

func (n *WriterNotifier) BatchDone(summary types.BatchSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "\nBatch summary: %d succeeded, %d failed (total: %d) in %v\n",
		summary.Successful, summary.Failed, summary.Total, summary.Elapsed.Round(time.Millisecond))
	for _, input := range summary.FailedInputs {
		fmt.Fprintf(n.w, "  failed input: %s\n", input)
	}
}

// Collector retains every result for later persistence, e.g. the history
// store. It can wrap another notifier.
type Collector struct {
	mu      sync.Mutex
	results []types.JobResult
	next    Notifier
}

// NewCollector returns a Collector forwarding to next (which may be nil).
func NewCollector(next Notifier) *Collector {
	if next == nil {
		next = NopNotifier{}
	}
	return &Collector{next: next}
}

func (c *Collector) JobProgress(job *types.Job, pct int) {
	c.next.JobProgress(job, pct)
}

func (c *Collector) JobDone(job *types.Job, result types.JobResult) {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
	c.next.JobDone(job, result)
}

func (c *Collector) BatchDone(summary types.BatchSummary) {
	c.next.BatchDone(summary)
}

// Results returns the collected job results.
func (c *Collector) Results() []types.JobResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.JobResult, len(c.results))
	copy(out, c.results)
	return out
}
