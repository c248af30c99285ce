package tasks

import "time"

const defaultEstimatorWindow = 50

// Estimator keeps a rolling average of per-row durations.
type Estimator struct {
	samples []time.Duration
	next    int
	full    bool
	sum     time.Duration
}

// NewEstimator averages over the last size samples. Non-positive sizes use 50.
func NewEstimator(size int) *Estimator {
	if size <= 0 {
		size = defaultEstimatorWindow
	}
	return &Estimator{samples: make([]time.Duration, size)}
}

// Observe records one row's duration, evicting the oldest sample when the window is full.
func (e *Estimator) Observe(d time.Duration) {
	if e.full {
		e.sum -= e.samples[e.next]
	}
	e.samples[e.next] = d
	e.sum += d
	e.next++
	if e.next == len(e.samples) {
		e.next = 0
		e.full = true
	}
}

// Len returns the number of samples in the window.
func (e *Estimator) Len() int {
	if e.full {
		return len(e.samples)
	}
	return e.next
}

// Average returns the mean of the window, 0 with no samples.
func (e *Estimator) Average() time.Duration {
	n := e.Len()
	if n == 0 {
		return 0
	}
	return e.sum / time.Duration(n)
}

// ETA estimates the time for remaining rows.
func (e *Estimator) ETA(remaining int) time.Duration {
	if remaining <= 0 {
		return 0
	}
	return e.Average() * time.Duration(remaining)
}
