package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps in process memory. Identifiers
// whose hits have all left the window are dropped at most once per window.
type MemoryLimiter struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string][]time.Time
	lastSweep time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		window:  window,
		now:     time.Now,
		entries: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Check(_ context.Context, identifier string, maxRequests int) (Result, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	hits := l.entries[identifier]
	kept := hits[:0]
	for _, ts := range hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	allowed := len(kept) < maxRequests
	if allowed {
		kept = append(kept, now)
	}
	if len(kept) == 0 {
		delete(l.entries, identifier)
	} else {
		l.entries[identifier] = kept
	}

	reset := now.Add(l.window)
	if len(kept) > 0 {
		reset = kept[0].Add(l.window)
	}
	remaining := maxRequests - len(kept)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   allowed,
		Limit:     maxRequests,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// sweep drops identifiers with no hit after cutoff. Hits are appended in
// order, so the last one is the newest.
func (l *MemoryLimiter) sweep(cutoff time.Time) {
	for id, hits := range l.entries {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.entries, id)
		}
	}
}
