package sitekit

import (
	"sync"
	"time"
)

// RateLimiter caps how often a key may act within a sliding window. The
// engine uses one instance per concern: login attempts per IP, and one
// counted view per IP+post pair.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
}

// NewRateLimiter creates a RateLimiter that allows max events per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
	}
	go l.cleanup()
	return l
}

func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	for range ticker.C {
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for key, hits := range l.attempts {
			kept := hits[:0]
			for _, t := range hits {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(l.attempts, key)
			} else {
				l.attempts[key] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Allow checks if key has not exhausted its budget and records the event.
func (l *RateLimiter) Allow(key string) bool {
	if !l.Check(key) {
		return false
	}
	l.Record(key)
	return true
}

// Check returns true if key has budget left in the window. It does not
// record an event; call Record separately, e.g. only on login failure.
func (l *RateLimiter) Check(key string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.attempts[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.attempts[key] = kept
	return len(kept) < l.max
}

// Record registers an event for key.
func (l *RateLimiter) Record(key string) {
	l.mu.Lock()
	l.attempts[key] = append(l.attempts[key], time.Now())
	l.mu.Unlock()
}
