// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/margincrop/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	margins := types.MarginSpec{Top: 10, Bottom: 10, Left: 5, Right: 5}

	results := []types.JobResult{
		{JobID: "j1", InputPath: "/in/a.pdf", OutputPath: "/out/a_cropped.pdf", Success: true, PagesProcessed: 3, ResolutionBefore: 300, ResolutionAfter: 300},
		{JobID: "j2", InputPath: "/in/b.docx", Success: false, ErrMessage: "margins exceed page width"},
	}
	summary := types.BatchSummary{Total: 2, Successful: 1, Failed: 1, Elapsed: 1500 * time.Millisecond}

	started := time.Now().UTC().Truncate(time.Millisecond)
	runID, err := s.RecordRun(ctx, started, margins, summary, results)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, runID, run.ID)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, run.Elapsed)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Successful)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, margins, run.Margins)
}

func TestRunResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	results := []types.JobResult{
		{JobID: "j1", InputPath: "/in/a.pdf", OutputPath: "/out/a_cropped.pdf", Success: true, PagesProcessed: 7},
		{JobID: "j2", InputPath: "/in/b.doc", OutputPath: "/out/b_cropped.docx", Success: true, PagesProcessed: 1},
	}
	runID, err := s.RecordRun(ctx, time.Now(), types.MarginSpec{Top: 1}, types.BatchSummary{Total: 2, Successful: 2}, results)
	require.NoError(t, err)

	got, err := s.RunResults(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, results[0], got[0])
	assert.Equal(t, results[1], got[1])

	// Unknown run has no results.
	empty, err := s.RunResults(ctx, "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListRunsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.RecordRun(ctx, base.Add(time.Duration(i)*time.Hour), types.MarginSpec{}, types.BatchSummary{Total: 1, Successful: 1}, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Most recent first.
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestCustomDBPath(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "history.db")
	s, err := NewStore(types.HistoryConfig{DBPath: dbPath}, dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ListRuns(context.Background(), 0)
	assert.NoError(t, err)
}
