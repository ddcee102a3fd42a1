// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"sync"
	"time"
)

// Lockout defaults.
const (
	// DefaultLockoutDuration is the time an identifier is locked out after too many failures.
	DefaultLockoutDuration = 15 * time.Minute

	// DefaultLockoutThreshold is the number of consecutive failures that triggers a lockout.
	DefaultLockoutThreshold = 7

	// DefaultThrottleCapacity bounds the number of identifiers tracked at once.
	DefaultThrottleCapacity = 10000
)

// ThrottleConfig configures a Throttle.
type ThrottleConfig struct {
	Threshold int
	Duration  time.Duration
	// Capacity is the number of identifiers tracked before stale entries are pruned.
	Capacity int
}

// Throttle tracks failed login attempts per identifier and locks an
// identifier out once the threshold is reached. It is safe for concurrent use.
type Throttle struct {
	cfg ThrottleConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*attemptState
}

type attemptState struct {
	failures    int
	lockedUntil time.Time
	lastFailure time.Time
}

// NewThrottle creates a Throttle, filling zero fields with defaults.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultLockoutThreshold
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultLockoutDuration
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultThrottleCapacity
	}
	return &Throttle{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*attemptState),
	}
}

// LockoutRemaining returns how long identifier stays locked, or zero.
func (t *Throttle) LockoutRemaining(identifier string) time.Duration {
	key := NormalizeIdentifier(identifier)

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.entries[key]
	if !ok {
		return 0
	}
	remaining := st.lockedUntil.Sub(t.now())
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// IsLocked reports whether identifier is currently locked out.
func (t *Throttle) IsLocked(identifier string) bool {
	return t.LockoutRemaining(identifier) > 0
}

// RecordFailure counts a failed attempt and returns the failure count.
// Reaching the threshold locks the identifier for the configured duration.
func (t *Throttle) RecordFailure(identifier string) int {
	key := NormalizeIdentifier(identifier)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.entries[key]
	if !ok {
		if len(t.entries) >= t.cfg.Capacity {
			t.pruneLocked(now)
		}
		st = &attemptState{}
		t.entries[key] = st
	}

	// A lockout that has run its course starts a fresh window.
	if !st.lockedUntil.IsZero() && !now.Before(st.lockedUntil) {
		st.failures = 0
		st.lockedUntil = time.Time{}
	}

	st.failures++
	st.lastFailure = now
	if st.failures >= t.cfg.Threshold {
		st.lockedUntil = now.Add(t.cfg.Duration)
	}
	return st.failures
}

// RecordSuccess clears the failure history for identifier.
func (t *Throttle) RecordSuccess(identifier string) {
	key := NormalizeIdentifier(identifier)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Prune drops entries whose lockout has expired and whose last failure is
// older than the lockout duration. It returns the number of entries removed.
func (t *Throttle) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked(t.now())
}

// Len returns the number of tracked identifiers.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Throttle) pruneLocked(now time.Time) int {
	removed := 0
	for key, st := range t.entries {
		if now.Before(st.lockedUntil) {
			continue
		}
		if now.Sub(st.lastFailure) < t.cfg.Duration {
			continue
		}
		delete(t.entries, key)
		removed++
	}
	return removed
}
