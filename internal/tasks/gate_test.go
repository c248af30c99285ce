package tasks

import (
	"context"
	"testing"
	"time"

	tu "github.com/desertthunder/spotfill/internal/testing"
)

func TestRateGate(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("admits up to the limit without waiting", func(t *testing.T) {
		clock := tu.NewFakeClock(t0)
		gate := NewRateGate(180, time.Minute, clock)

		for i := range 180 {
			slept, err := gate.Wait(context.Background())
			if err != nil {
				t.Fatalf("request %d: unexpected error: %v", i+1, err)
			}
			if slept != 0 {
				t.Fatalf("request %d: expected no wait, got %s", i+1, slept)
			}
			clock.Advance(100 * time.Millisecond)
		}

		if gate.Count() != 180 {
			t.Errorf("expected count 180, got %d", gate.Count())
		}
		if len(clock.Sleeps()) != 0 {
			t.Errorf("expected no sleeps, got %v", clock.Sleeps())
		}
	})

	t.Run("delays the request past the limit to the next window", func(t *testing.T) {
		clock := tu.NewFakeClock(t0)
		gate := NewRateGate(180, time.Minute, clock)

		for range 180 {
			if _, err := gate.Wait(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			clock.Advance(100 * time.Millisecond)
		}

		if d := gate.Delay(); d != 42*time.Second {
			t.Errorf("expected delay 42s, got %s", d)
		}

		slept, err := gate.Wait(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if slept != 42*time.Second {
			t.Errorf("expected 42s wait, got %s", slept)
		}
		if sent := clock.Now().Sub(t0); sent < time.Minute {
			t.Errorf("181st request sent %s after the first, want >= 1m", sent)
		}
		if gate.Count() != 1 {
			t.Errorf("expected a fresh window with count 1, got %d", gate.Count())
		}
		if gate.Waits() != 1 {
			t.Errorf("expected 1 wait, got %d", gate.Waits())
		}
	})

	t.Run("expired window resets without waiting", func(t *testing.T) {
		clock := tu.NewFakeClock(t0)
		gate := NewRateGate(3, time.Minute, clock)

		for range 3 {
			gate.Wait(context.Background())
		}
		clock.Advance(61 * time.Second)

		slept, err := gate.Wait(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if slept != 0 {
			t.Errorf("expected no wait after the window expired, got %s", slept)
		}
		if gate.Count() != 1 {
			t.Errorf("expected count 1, got %d", gate.Count())
		}
	})

	t.Run("partial window expiry starts a new window", func(t *testing.T) {
		clock := tu.NewFakeClock(t0)
		gate := NewRateGate(3, time.Minute, clock)

		gate.Wait(context.Background())
		clock.Advance(2 * time.Minute)
		gate.Wait(context.Background())
		gate.Wait(context.Background())
		gate.Wait(context.Background())

		if gate.Count() != 3 {
			t.Fatalf("expected count 3, got %d", gate.Count())
		}
		if d := gate.Delay(); d != time.Minute {
			t.Errorf("expected the window to start at its first request, delay %s", d)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		clock := tu.NewFakeClock(t0)
		gate := NewRateGate(1, time.Minute, clock)
		gate.Wait(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := gate.Wait(ctx); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		gate := NewRateGate(0, 0, nil)
		if gate.limit != DefaultRequestsPerWindow || gate.window != DefaultWindow {
			t.Errorf("expected defaults, got %d per %s", gate.limit, gate.window)
		}
	})
}

func TestSystemClock(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		if err := (SystemClock{}).Sleep(context.Background(), 0); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := (SystemClock{}).Sleep(ctx, time.Hour); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
