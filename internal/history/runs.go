package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"foldersort/internal/services"
)

// Run kinds.
const (
	KindDirectory = "directory"
	KindArchive   = "archive"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Run is one recorded sort.
type Run struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Root         string    `json:"root"`
	Source       string    `json:"source,omitempty"`
	Status       string    `json:"status"`
	Planned      int       `json:"planned"`
	Moved        int       `json:"moved"`
	Unmoved      int       `json:"unmoved"`
	Directories  int       `json:"directories"`
	ErrorMessage string    `json:"error,omitempty"`
	ArtifactKey  string    `json:"artifact_key,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	FailureCount int       `json:"failure_count"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is one per-file or per-folder problem recorded for a run.
type Failure struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
	File     string `json:"file,omitempty"`
	Path     string `json:"path,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Message  string `json:"message"`
}

const runColumns = `r.id, r.kind, r.root, r.source, r.status, r.planned, r.moved, r.unmoved,
	r.directories, r.error_message, r.artifact_key, r.started_at, r.finished_at,
	(SELECT COUNT(1) FROM run_failures f WHERE f.run_id = r.id)`

// Record stores run together with its failures in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(run.ID) == "" {
		return services.Wrap(services.ErrValidation, "history", "record", "run id is required", nil)
	}
	return retryOnBusy(ctx, func() error {
		return s.recordTx(ctx, run)
	})
}

func (s *Store) recordTx(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, kind, root, source, status, planned, moved, unmoved, directories,
		 error_message, artifact_key, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Root, run.Source, run.Status, run.Planned, run.Moved, run.Unmoved,
		run.Directories, run.ErrorMessage, run.ArtifactKey,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Failures {
		_, err := tx.ExecContext(ctx, `INSERT INTO run_failures
			(run_id, kind, severity, category, type, file, path, skipped, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, f.Kind, f.Severity, f.Category, f.Type, f.File, f.Path, f.Skipped, f.Message,
		)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the most recent runs, newest first, without their failures.
// A non-positive limit returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs r ORDER BY r.started_at DESC, r.id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its failures.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get run", fmt.Sprintf("run %s", id), nil)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, severity, category, type, file, path, skipped, message
		FROM run_failures WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load failures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Kind, &f.Severity, &f.Category, &f.Type, &f.File, &f.Path, &f.Skipped, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		run.Failures = append(run.Failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	ctx = ensureContext(ctx)
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		n, err := s.pruneTx(ctx, keep)
		removed = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

// pruneTx removes failures before their runs so no rows are orphaned even on
// a connection without foreign key enforcement.
func (s *Store) pruneTx(ctx context.Context, keep int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const stale = `SELECT id FROM runs WHERE id NOT IN
		(SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)`
	if _, err := tx.ExecContext(ctx, "DELETE FROM run_failures WHERE run_id IN ("+stale+")", keep); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id IN ("+stale+")", keep)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return removed, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	err := row.Scan(&run.ID, &run.Kind, &run.Root, &run.Source, &run.Status, &run.Planned, &run.Moved,
		&run.Unmoved, &run.Directories, &run.ErrorMessage, &run.ArtifactKey, &started, &finished,
		&run.FailureCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
