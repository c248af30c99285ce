package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/shared"
)

// RunRepository records one row per enrich invocation.
type RunRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// Start inserts run with a generated ID and sequence number, running status and start time.
func (r *RunRepository) Start(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence
	run.Status = models.RunRunning
	run.StartedAt = r.now()

	query := `
		INSERT INTO runs (id, sequence, budget, already_retrieved, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, run.ID, run.Sequence, run.Budget, run.AlreadyRetrieved, string(run.Status), run.StartedAt); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish stores the final counters, status and finish time of run.
func (r *RunRepository) Finish(run *models.Run) error {
	finished := r.now()
	run.FinishedAt = &finished

	query := `
		UPDATE runs
		SET resolved = ?, duplicates = ?, no_match = ?, deferred = ?, abandoned = ?,
			requests = ?, rate_limited = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		run.Resolved,
		run.Duplicates,
		run.NoMatch,
		run.Deferred,
		run.Abandoned,
		run.Requests,
		run.RateLimited,
		string(run.Status),
		run.Error,
		finished,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *RunRepository) Recent(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT id, sequence, budget, already_retrieved, resolved, duplicates, no_match, deferred, abandoned,
			requests, rate_limited, status, COALESCE(error, ''), started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, sequence DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			run      models.Run
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.Sequence,
			&run.Budget,
			&run.AlreadyRetrieved,
			&run.Resolved,
			&run.Duplicates,
			&run.NoMatch,
			&run.Deferred,
			&run.Abandoned,
			&run.Requests,
			&run.RateLimited,
			&status,
			&run.Error,
			&run.StartedAt,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = models.RunStatus(status)
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}
