// Package recorder persists harness runs to a SQLite log.
//
// Recording is optional (enabled with --record) and strictly best-effort
// bookkeeping: a recorder failure never changes the run's exit code.
package recorder

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wbtools/apitest/internal/harness"
)

//go:embed schema.sql
var schemaSQL string

// Recorder writes run outcomes to SQLite.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens the run log at the given path. ":memory:" gives an
// ephemeral in-process database.
//
// The database uses WAL mode with a single writer connection, a 5-second
// busy timeout, and foreign key enforcement. Schema creation is idempotent.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect run log: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record writes one completed run and all of its case results in a single
// transaction, returning the generated run id.
func (r *Recorder) Record(ctx context.Context, selection []string, startedAt time.Time, result *harness.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, selection, pass, passed, failed, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		startedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		strings.Join(selection, ","),
		result.Pass,
		result.Passed,
		result.Failed,
		result.Total,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	for _, cr := range result.Cases {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results (run_id, seq, suite, case_name, pass, detail, elapsed_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID, cr.Seq, cr.Suite, cr.Case, cr.Pass, cr.Detail, cr.Elapsed.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("record case %s/%s: %w", cr.Suite, cr.Case, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID        string
	Selection string
	Pass      bool
	Passed    int
	Failed    int
	Total     int
}

// Runs returns all recorded runs, most recent first.
func (r *Recorder) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, selection, pass, passed, failed, total
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Selection, &s.Pass, &s.Passed, &s.Failed, &s.Total); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CaseResults returns the case rows for a run in sequence order.
func (r *Recorder) CaseResults(ctx context.Context, runID string) ([]harness.CaseResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, suite, case_name, pass, detail, elapsed_ms
		FROM case_results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	var out []harness.CaseResult
	for rows.Next() {
		var cr harness.CaseResult
		var elapsedMs int64
		if err := rows.Scan(&cr.Seq, &cr.Suite, &cr.Case, &cr.Pass, &cr.Detail, &elapsedMs); err != nil {
			return nil, fmt.Errorf("scan case result: %w", err)
		}
		cr.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, cr)
	}
	return out, rows.Err()
}
