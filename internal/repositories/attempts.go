package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotfill/internal/models"
)

// AttemptRepository persists deferred-search counters so a row that keeps failing is eventually given up on.
type AttemptRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAttemptRepository creates a new AttemptRepository with the given database connection
func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db, now: time.Now}
}

// RecordFailure increments the counter for row and returns the new total.
func (r *AttemptRepository) RecordFailure(row models.InputRow, reason string) (int, error) {
	now := r.now()
	query := `
		INSERT INTO search_attempts (track_key, artist, title, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(track_key) DO UPDATE SET
			attempts = attempts + 1,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, row.Key(), row.Artist, row.Title, reason, now, now); err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	return r.Attempts(row.Key())
}

// Attempts returns the failure count for key, 0 when none is recorded.
func (r *AttemptRepository) Attempts(key string) (int, error) {
	var n int
	err := r.db.QueryRow("SELECT attempts FROM search_attempts WHERE track_key = ?", key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return n, nil
}

// Clear forgets the counter for key. Called once a row is processed.
func (r *AttemptRepository) Clear(key string) error {
	if _, err := r.db.Exec("DELETE FROM search_attempts WHERE track_key = ?", key); err != nil {
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	return nil
}

// List returns all counters, most attempts first.
func (r *AttemptRepository) List() ([]models.Attempt, error) {
	rows, err := r.db.Query(`
		SELECT track_key, artist, title, attempts, COALESCE(last_error, ''), created_at, updated_at
		FROM search_attempts
		ORDER BY attempts DESC, updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(&a.Key, &a.Artist, &a.Title, &a.Attempts, &a.LastError, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}
