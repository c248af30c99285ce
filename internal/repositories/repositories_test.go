package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClock returns a now func that advances one second per call.
func fakeClock() func() time.Time {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestAttemptRepository(t *testing.T) {
	row := models.InputRow{Artist: "Kult", Title: "Arahja"}

	t.Run("RecordFailure increments", func(t *testing.T) {
		repo := NewAttemptRepository(setupTestDB(t))

		for want := 1; want <= 3; want++ {
			got, err := repo.RecordFailure(row, "status 502")
			if err != nil {
				t.Fatalf("RecordFailure() error = %v", err)
			}
			if got != want {
				t.Errorf("RecordFailure() = %d, want %d", got, want)
			}
		}
	})

	t.Run("key is normalized", func(t *testing.T) {
		repo := NewAttemptRepository(setupTestDB(t))

		if _, err := repo.RecordFailure(row, "first"); err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
		got, err := repo.RecordFailure(models.InputRow{Artist: " KULT ", Title: "arahja"}, "second")
		if err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
		if got != 2 {
			t.Errorf("expected normalized keys to share a counter, got %d", got)
		}
	})

	t.Run("Attempts unknown key", func(t *testing.T) {
		repo := NewAttemptRepository(setupTestDB(t))

		got, err := repo.Attempts("missing|key")
		if err != nil {
			t.Fatalf("Attempts() error = %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewAttemptRepository(setupTestDB(t))
		repo.RecordFailure(row, "boom")

		if err := repo.Clear(row.Key()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if got, _ := repo.Attempts(row.Key()); got != 0 {
			t.Errorf("expected cleared counter, got %d", got)
		}
	})

	t.Run("List orders by attempts", func(t *testing.T) {
		repo := NewAttemptRepository(setupTestDB(t))
		repo.now = fakeClock()

		other := models.InputRow{Artist: "Myslovitz", Title: "Peggy Brown"}
		repo.RecordFailure(row, "one")
		repo.RecordFailure(other, "two")
		repo.RecordFailure(other, "three")

		attempts, err := repo.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(attempts) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(attempts))
		}
		if attempts[0].Artist != "Myslovitz" || attempts[0].Attempts != 2 || attempts[0].LastError != "three" {
			t.Errorf("unexpected first attempt %+v", attempts[0])
		}
		if !attempts[0].UpdatedAt.After(attempts[0].CreatedAt) {
			t.Errorf("expected updated_at after created_at, got %v / %v", attempts[0].UpdatedAt, attempts[0].CreatedAt)
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Start and Finish", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		repo.now = fakeClock()

		run := &models.Run{Budget: 5, AlreadyRetrieved: 9995}
		if err := repo.Start(run); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if run.ID == "" {
			t.Error("expected run ID to be generated")
		}
		if run.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence)
		}
		if run.Status != models.RunRunning {
			t.Errorf("expected running status, got %s", run.Status)
		}

		run.Resolved = 3
		run.NoMatch = 1
		run.Deferred = 1
		run.Requests = 6
		run.Status = models.RunCompleted
		if err := repo.Finish(run); err != nil {
			t.Fatalf("Finish() error = %v", err)
		}

		runs, err := repo.Recent(5)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		got := runs[0]
		if got.ID != run.ID || got.Resolved != 3 || got.NoMatch != 1 || got.Deferred != 1 || got.Requests != 6 {
			t.Errorf("unexpected run %+v", got)
		}
		if got.Status != models.RunCompleted {
			t.Errorf("expected completed status, got %s", got.Status)
		}
		if got.FinishedAt == nil {
			t.Error("expected finished_at to be set")
		}
		if got.Processed() != 4 {
			t.Errorf("expected 4 processed rows, got %d", got.Processed())
		}
	})

	t.Run("Finish unknown run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Finish(&models.Run{ID: "nope"}); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("Recent newest first with limit", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		repo.now = fakeClock()

		var ids []string
		for i := 0; i < 3; i++ {
			run := &models.Run{Budget: i}
			if err := repo.Start(run); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			ids = append(ids, run.ID)
		}

		runs, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
			t.Errorf("unexpected order %s, %s", runs[0].ID, runs[1].ID)
		}
		if runs[0].Sequence != 3 || runs[1].Sequence != 2 {
			t.Errorf("unexpected sequences %d, %d", runs[0].Sequence, runs[1].Sequence)
		}
		if runs[0].FinishedAt != nil {
			t.Error("unfinished run should have nil finished_at")
		}
	})
}
