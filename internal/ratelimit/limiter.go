// Package ratelimit implements the in-memory sliding-window counter from
// spec §4.4: a mapping from key to an ordered list of request timestamps,
// with a periodic sweep bounded to once per 60s. This is hand-rolled
// against the stdlib rather than go-zero's core/limit (Redis/Lua token
// counters) or golang.org/x/time/rate (a token bucket) because the spec
// pins the exact sliding-log algorithm and boundary behavior (§8 S5); both
// pack alternatives implement a materially different algorithm.
package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 60 * time.Second

// Limiter is one sliding-window scope (e.g. "global", "auth", "api_key").
// Keys are typically a client IP, a user id, or an API key prefix.
type Limiter struct {
	max    int
	window time.Duration

	mu   sync.Mutex
	log  map[string][]time.Time
	last time.Time
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		log:    make(map[string][]time.Time),
		last:   time.Now(),
	}
}

// Check records one attempt for key and reports whether it is allowed
// under the sliding window. It is safe for concurrent use.
func (l *Limiter) Check(key string) bool {
	now := time.Now()
	l.maybeSweep(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	entries := dropOlderThan(l.log[key], cutoff)

	if len(entries) >= l.max {
		l.log[key] = entries
		return false
	}

	entries = append(entries, now)
	l.log[key] = entries
	return true
}

// maybeSweep walks every key's list at most once per sweepInterval,
// dropping stale entries and removing keys left empty, to bound memory
// for a limiter that otherwise never shrinks its key set.
func (l *Limiter) maybeSweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.last) < sweepInterval {
		return
	}
	l.last = now

	cutoff := now.Add(-l.window)
	for key, entries := range l.log {
		filtered := dropOlderThan(entries, cutoff)
		if len(filtered) == 0 {
			delete(l.log, key)
			continue
		}
		l.log[key] = filtered
	}
}

func dropOlderThan(entries []time.Time, cutoff time.Time) []time.Time {
	kept := entries[:0:0]
	for _, t := range entries {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
