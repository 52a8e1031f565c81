package auth

import (
	"errors"
	"sync"
	"time"
)

// ErrAccountLocked is returned while a username is locked out after repeated
// failed proofs.
var ErrAccountLocked = errors.New("too many failed attempts")

const (
	// DefaultMaxFailures is the number of failed proofs before a lockout.
	DefaultMaxFailures = 3

	// DefaultLockout is how long a lockout lasts.
	DefaultLockout = 60 * time.Second
)

type attemptTracker struct {
	count       int
	lockedUntil time.Time
}

// RateLimiter locks a username out after too many failed proofs. A
// successful login resets the count.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptTracker
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

// NewRateLimiter creates a limiter allowing maxFailures failed proofs before
// locking a username for lockout.
func NewRateLimiter(maxFailures int, lockout time.Duration) *RateLimiter {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &RateLimiter{
		attempts:    make(map[string]*attemptTracker),
		maxFailures: maxFailures,
		lockout:     lockout,
		now:         time.Now,
	}
}

// CheckLimit reports whether username may attempt a login and, if not, how
// long until the lockout ends.
func (rl *RateLimiter) CheckLimit(username string) (time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tracker, ok := rl.attempts[username]
	if !ok {
		return 0, nil
	}
	if wait := tracker.lockedUntil.Sub(rl.now()); wait > 0 {
		return wait, ErrAccountLocked
	}
	if !tracker.lockedUntil.IsZero() {
		// lockout served
		delete(rl.attempts, username)
	}
	return 0, nil
}

// RecordFailure counts a failed proof and returns true when it triggered a
// lockout.
func (rl *RateLimiter) RecordFailure(username string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tracker, ok := rl.attempts[username]
	if !ok {
		tracker = &attemptTracker{}
		rl.attempts[username] = tracker
	}
	tracker.count++
	if tracker.count >= rl.maxFailures {
		tracker.lockedUntil = rl.now().Add(rl.lockout)
		return true
	}
	return false
}

// RecordSuccess clears the failure count for username.
func (rl *RateLimiter) RecordSuccess(username string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.attempts, username)
}

// Failures returns the current failure count for username.
func (rl *RateLimiter) Failures(username string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if tracker, ok := rl.attempts[username]; ok {
		return tracker.count
	}
	return 0
}
