package tasks

import (
	"strconv"
	"strings"

	"github.com/desertthunder/spotfill/internal/models"
)

// DefaultGoal is the total number of tracks the output table should eventually hold.
const DefaultGoal = 10000

// ComputeBudget returns how many pending rows this run may attempt.
//
// remaining = goal - alreadyRetrieved, floored at zero. A positive operatorCap lowers it further; zero or negative
// means no cap.
func ComputeBudget(goal, alreadyRetrieved, operatorCap int) int {
	remaining := max(goal-alreadyRetrieved, 0)
	if operatorCap > 0 {
		return min(operatorCap, remaining)
	}
	return remaining
}

// ParseOperatorCap parses the operator's answer to the run-size prompt. ok is false for anything but a positive integer.
func ParseOperatorCap(s string) (n int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Truncate limits rows to budget entries, keeping order.
func Truncate(rows []models.InputRow, budget int) []models.InputRow {
	if budget <= 0 {
		return nil
	}
	if len(rows) > budget {
		return rows[:budget]
	}
	return rows
}
