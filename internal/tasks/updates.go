package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/spotfill/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// RowProgress is the Data payload of [SearchTracks] updates sent after a row finishes.
type RowProgress struct {
	Row       models.InputRow
	Outcome   Outcome
	Processed int           // Rows counted toward the goal, including earlier runs
	Goal      int           // Overall goal
	Percent   float64       // Processed / Goal * 100
	ETA       time.Duration // Estimated time left in this run
}

// Operation phase enumeration
type Phase int

const (
	LoadRows Phase = iota
	SearchTracks
	RateWait
	Backoff
	Complete
)

func (p Phase) String() string {
	switch p {
	case LoadRows:
		return "load_rows"
	case SearchTracks:
		return "search_tracks"
	case RateWait:
		return "rate_wait"
	case Backoff:
		return "backoff"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func loadRowsUpdate(pending, budget int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRows,
		Step:    0,
		Total:   budget,
		Message: fmt.Sprintf("%d pending rows, processing %d this run", pending, budget),
	}
}

func searchTrackUpdate(step, total, processed, goal int, row models.InputRow) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Processing track %d/%d (%.2f%%): %s", processed, goal, percent(processed, goal), row),
	}
}

func rowDoneUpdate(step, total int, p RowProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s (ETA %s)", step, total, p.Outcome, p.Row, formatETA(p.ETA)),
		Data:    p,
	}
}

func rateWaitUpdate(step, total int, d time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RateWait,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("API call limit reached. Waiting for %.2f seconds.", d.Seconds()),
	}
}

func backoffUpdate(step, total int, d time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Backoff,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Rate limit exceeded. Waiting for %s.", d),
	}
}

func completeUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Attempted(),
		Total:   result.Total,
		Message: fmt.Sprintf("Done: %d resolved, %d duplicates, %d without match, %d deferred", result.Resolved, result.Duplicates, result.NoMatch, result.Deferred),
		Data:    result,
	}
}

func percent(n, of int) float64 {
	if of <= 0 {
		return 0
	}
	return float64(n) * 100 / float64(of)
}

// formatETA renders d in minutes with two decimals, matching the legacy progress output.
func formatETA(d time.Duration) string {
	return fmt.Sprintf("%.2f minutes", d.Minutes())
}
