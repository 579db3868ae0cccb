// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists batch runs and their per-job results in a
// SQLite database, so past crops can be listed and inspected later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/margincrop/pkg/types"
)

const dbFile = "margincrop.db"

// Run is one recorded batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	Elapsed    time.Duration
	Total      int
	Successful int
	Failed     int
	Margins    types.MarginSpec
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database. When cfg.DBPath is empty
// the database lives at dataDir/margincrop.db.
func NewStore(cfg types.HistoryConfig, dataDir string) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, dbFile)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			total INTEGER NOT NULL,
			successful INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			margin_top REAL NOT NULL,
			margin_bottom REAL NOT NULL,
			margin_left REAL NOT NULL,
			margin_right REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			job_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			input_path TEXT NOT NULL,
			output_path TEXT,
			success INTEGER NOT NULL,
			pages_processed INTEGER NOT NULL,
			resolution_before REAL,
			resolution_after REAL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a finished batch with its per-job results and returns
// the run ID. The run and all of its results commit atomically.
func (s *Store) RecordRun(ctx context.Context, startedAt time.Time, margins types.MarginSpec, summary types.BatchSummary, results []types.JobResult) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, elapsed_ms, total, successful, failed,
			margin_top, margin_bottom, margin_left, margin_right)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339Nano), summary.Elapsed.Milliseconds(),
		summary.Total, summary.Successful, summary.Failed,
		margins.Top, margins.Bottom, margins.Left, margins.Right,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (job_id, run_id, input_path, output_path, success,
			pages_processed, resolution_before, resolution_after, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			r.JobID, runID, r.InputPath, r.OutputPath, r.Success,
			r.PagesProcessed, r.ResolutionBefore, r.ResolutionAfter, r.ErrMessage,
		)
		if err != nil {
			return "", fmt.Errorf("inserting result for %s: %w", r.InputPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns up to limit runs, most recent first. A limit of zero or
// less means no cap.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, elapsed_ms, total, successful, failed,
		margin_top, margin_bottom, margin_left, margin_right
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var elapsedMS int64
		if err := rows.Scan(&r.ID, &started, &elapsedMS, &r.Total, &r.Successful, &r.Failed,
			&r.Margins.Top, &r.Margins.Bottom, &r.Margins.Left, &r.Margins.Right); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the per-job results of one run, in insertion order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]types.JobResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, input_path, output_path, success, pages_processed,
			resolution_before, resolution_after, error
		 FROM results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []types.JobResult
	for rows.Next() {
		var r types.JobResult
		var outputPath, errMsg sql.NullString
		if err := rows.Scan(&r.JobID, &r.InputPath, &outputPath, &r.Success,
			&r.PagesProcessed, &r.ResolutionBefore, &r.ResolutionAfter, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.OutputPath = outputPath.String
		r.ErrMessage = errMsg.String
		results = append(results, r)
	}
	return results, rows.Err()
}
