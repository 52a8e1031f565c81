package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNewIdleTimer(t *testing.T) {
	t.Run("rejects timeout below minimum", func(t *testing.T) {
		if _, err := NewIdleTimer(100*time.Millisecond, nil); err == nil {
			t.Error("expected error for timeout below minimum")
		}
	})

	t.Run("accepts minimum timeout", func(t *testing.T) {
		timer, err := NewIdleTimer(MinimumIdleTimeout, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		timer.Stop()
	})
}

func TestIdleTimer_Touch(t *testing.T) {
	timer := newIdleTimer(time.Minute, nil)
	defer timer.Stop()

	initial := timer.LastActivity()
	time.Sleep(10 * time.Millisecond)
	timer.Touch()

	if !timer.LastActivity().After(initial) {
		t.Error("expected activity time to be updated")
	}
}

func TestIdleTimer_Remaining(t *testing.T) {
	timeout := 2 * time.Minute
	timer := newIdleTimer(timeout, nil)
	defer timer.Stop()

	remaining := timer.Remaining()
	if remaining < timeout-time.Second || remaining > timeout {
		t.Errorf("expected remaining ~%v, got %v", timeout, remaining)
	}

	time.Sleep(100 * time.Millisecond)
	before := timer.Remaining()
	timer.Touch()

	if timer.Remaining() <= before {
		t.Error("expected remaining time to reset after activity")
	}
}

func TestIdleTimer_Fires(t *testing.T) {
	t.Run("calls onIdle once after timeout", func(t *testing.T) {
		var calls atomic.Int32
		timer := newIdleTimer(200*time.Millisecond, func() { calls.Add(1) })
		defer timer.Stop()

		time.Sleep(500 * time.Millisecond)

		if calls.Load() != 1 {
			t.Errorf("expected onIdle once, got %d", calls.Load())
		}
		if timer.Remaining() != 0 {
			t.Errorf("expected no time remaining, got %v", timer.Remaining())
		}
	})

	t.Run("activity postpones timeout", func(t *testing.T) {
		var fired atomic.Bool
		timer := newIdleTimer(300*time.Millisecond, func() { fired.Store(true) })
		defer timer.Stop()

		for range 4 {
			time.Sleep(100 * time.Millisecond)
			timer.Touch()
		}

		if fired.Load() {
			t.Error("onIdle should not be called while activity is ongoing")
		}

		time.Sleep(600 * time.Millisecond)
		if !fired.Load() {
			t.Error("expected onIdle once activity stopped")
		}
	})
}

func TestIdleTimer_Stop(t *testing.T) {
	var fired atomic.Bool
	timer := newIdleTimer(200*time.Millisecond, func() { fired.Store(true) })

	time.Sleep(50 * time.Millisecond)
	timer.Stop()
	time.Sleep(400 * time.Millisecond)

	if fired.Load() {
		t.Error("onIdle should not be called after Stop()")
	}

	// Touch after Stop is a no-op.
	timer.Touch()
}
