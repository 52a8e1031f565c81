package lifecycle

import (
	"fmt"
	"sync"
	"time"
)

// MinimumIdleTimeout is the shortest idle timeout NewIdleTimer accepts.
const MinimumIdleTimeout = time.Second

// IdleTimer calls onIdle once no activity has been recorded for the timeout.
// A development provider started for a test run uses it to exit on its own.
type IdleTimer struct {
	timeout time.Duration
	onIdle  func()

	mu           sync.Mutex
	lastActivity time.Time
	timer        *time.Timer
	stopped      bool
	fired        bool
}

// NewIdleTimer creates and arms an idle timer.
func NewIdleTimer(timeout time.Duration, onIdle func()) (*IdleTimer, error) {
	if timeout < MinimumIdleTimeout {
		return nil, fmt.Errorf("idle timeout must be at least %v, got %v", MinimumIdleTimeout, timeout)
	}
	return newIdleTimer(timeout, onIdle), nil
}

// newIdleTimer skips the minimum check so tests can use short timeouts.
func newIdleTimer(timeout time.Duration, onIdle func()) *IdleTimer {
	t := &IdleTimer{
		timeout:      timeout,
		onIdle:       onIdle,
		lastActivity: time.Now(),
	}
	t.timer = time.AfterFunc(timeout, t.expire)
	return t
}

// expire runs when the timer fires. Activity recorded after the timer was
// armed re-arms it for the remaining time.
func (t *IdleTimer) expire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	if remaining := t.timeout - time.Since(t.lastActivity); remaining > 0 {
		t.timer.Reset(remaining)
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()

	if t.onIdle != nil {
		t.onIdle()
	}
}

// Touch records activity.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return
	}
	t.lastActivity = time.Now()
}

// Stop disarms the timer. onIdle is not called afterwards.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.timer.Stop()
}

// LastActivity returns the time of the last recorded activity.
func (t *IdleTimer) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

// Remaining returns the time left until the timer fires.
func (t *IdleTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return max(t.timeout-time.Since(t.lastActivity), 0)
}
