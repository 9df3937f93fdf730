// Package history records run outcomes in a SQLite database so that
// consecutive CLI invocations can tell failures from recoveries.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/notify"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoRuns is returned by Last when nothing has been recorded yet.
var ErrNoRuns = errors.New("no runs recorded")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL, -- unix nanoseconds
	duration_ms INTEGER NOT NULL,
	files       INTEGER NOT NULL,
	suites      INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	headline    TEXT NOT NULL
)`

// Run is one recorded invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Suites    int
	Passed    int
	Failed    int
	Skipped   int
	Errors    int
	Success   bool
	Headline  string
}

// NewRun builds a record from a notification summary.
func NewRun(id string, startedAt time.Time, s *notify.RunSummary) Run {
	return Run{
		ID:        id,
		StartedAt: startedAt,
		Duration:  s.Duration,
		Files:     s.TotalFiles,
		Suites:    s.TotalSuites,
		Passed:    s.PassedSuites,
		Failed:    s.FailedSuites,
		Skipped:   s.SkippedSuites,
		Errors:    len(s.Errors),
		Success:   s.Success(),
		Headline:  notify.Headline(s),
	}
}

// Store is a SQLite backed run history.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens or creates the history database. The location may be a file
// path or a sqlite:// connection string.
func Open(location string) (*Store, error) {
	dsn, err := parseLocation(location)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, files, suites, passed, failed, skipped, errors, success, headline)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixNano(),
		run.Duration.Milliseconds(),
		run.Files, run.Suites, run.Passed, run.Failed, run.Skipped, run.Errors,
		run.Success,
		run.Headline,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Last returns the most recent run.
func (s *Store) Last(ctx context.Context) (*Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `SELECT id, started_at, duration_ms, files, suites, passed, failed, skipped, errors, success, headline
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  int64
			durationMs int64
		)
		if err := rows.Scan(&run.ID, &startedAt, &durationMs, &run.Files, &run.Suites,
			&run.Passed, &run.Failed, &run.Skipped, &run.Errors, &run.Success, &run.Headline); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt).UTC()
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// parseLocation accepts a plain path, sqlite://path or sqlite:path.
func parseLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("empty history location")
	}
	if strings.HasPrefix(location, "sqlite://") {
		return strings.TrimPrefix(location, "sqlite://"), nil
	}
	if strings.HasPrefix(location, "sqlite:") {
		return strings.TrimPrefix(location, "sqlite:"), nil
	}
	if i := strings.Index(location, "://"); i > 0 {
		return "", fmt.Errorf("unsupported history scheme: %s", location[:i])
	}
	return location, nil
}
