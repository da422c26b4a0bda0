package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter per source address: a window admits
// at most quota events, and the first event after the window elapses resets
// it. Deliberately not a token bucket: a source that burns its quota stays
// blocked until its window rolls over, with no gradual refill.
type rateLimiter struct {
	window time.Duration
	quota  int

	mu      sync.Mutex
	sources map[string]*windowRecord
}

type windowRecord struct {
	count int
	start time.Time
}

func newRateLimiter(window time.Duration, quota int) *rateLimiter {
	return &rateLimiter{
		window:  window,
		quota:   quota,
		sources: map[string]*windowRecord{},
	}
}

// admit reports whether one more event from source fits in the current
// window. Rejection is silent; the caller decides whether to notify anyone.
func (rl *rateLimiter) admit(source string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rec, ok := rl.sources[source]
	if !ok || now.Sub(rec.start) >= rl.window {
		rl.sources[source] = &windowRecord{count: 1, start: now}
		return true
	}
	if rec.count >= rl.quota {
		return false
	}
	rec.count++
	return true
}

// sweep evicts records whose window started more than maxIdle ago. Called
// from the janitor so the admit path never pays for map iteration. Returns
// the number of evicted records.
func (rl *rateLimiter) sweep(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	evicted := 0
	for source, rec := range rl.sources {
		if now.Sub(rec.start) > maxIdle {
			delete(rl.sources, source)
			evicted++
		}
	}
	return evicted
}
