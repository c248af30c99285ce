package tasks

import (
	"context"
	"time"
)

const (
	DefaultRequestsPerWindow = 180
	DefaultWindow            = time.Minute
)

// RateGate is a fixed-window request limiter.
//
// A window opens at its first request and admits up to limit requests. The request after the limit waits for the
// rest of the window, then opens a new one. A window that has already run out is replaced by a fresh one
// without waiting.
type RateGate struct {
	limit  int
	window time.Duration
	clock  Clock

	count int
	start time.Time
	waits int
}

// NewRateGate creates a gate admitting limit requests per window. Non-positive values fall back to 180 per minute.
func NewRateGate(limit int, window time.Duration, clock Clock) *RateGate {
	if limit <= 0 {
		limit = DefaultRequestsPerWindow
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RateGate{limit: limit, window: window, clock: clock}
}

// Wait admits one request, sleeping first if the current window is full. Returns how long it slept.
func (g *RateGate) Wait(ctx context.Context) (time.Duration, error) {
	now := g.clock.Now()
	if g.count > 0 && now.Sub(g.start) >= g.window {
		g.count = 0
	}

	var slept time.Duration
	if g.count >= g.limit {
		if remaining := g.window - now.Sub(g.start); remaining > 0 {
			if err := g.clock.Sleep(ctx, remaining); err != nil {
				return 0, err
			}
			slept = remaining
			g.waits++
		}
		g.count = 0
		now = g.clock.Now()
	}

	if g.count == 0 {
		g.start = now
	}
	g.count++
	return slept, nil
}

// Delay reports how long the next [RateGate.Wait] would sleep, without admitting anything.
func (g *RateGate) Delay() time.Duration {
	if g.count < g.limit {
		return 0
	}
	return max(g.window-g.clock.Now().Sub(g.start), 0)
}

// Count returns requests admitted in the current window.
func (g *RateGate) Count() int {
	return g.count
}

// Waits returns how many times the gate had to sleep.
func (g *RateGate) Waits() int {
	return g.waits
}
