package models

import "time"

// RunStatus is the lifecycle state of a recorded enrich run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Attempt counts failed (deferred) searches for one artist/title key across runs.
type Attempt struct {
	Key       string
	Artist    string
	Title     string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Run is the bookkeeping record of one enrich invocation.
type Run struct {
	ID               string
	Sequence         int
	Budget           int
	AlreadyRetrieved int
	Resolved         int
	Duplicates       int
	NoMatch          int
	Deferred         int
	Abandoned        int
	Requests         int
	RateLimited      int
	Status           RunStatus
	Error            string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Processed returns how many rows this run marked processed.
func (r Run) Processed() int {
	return r.Resolved + r.Duplicates + r.NoMatch + r.Abandoned
}
