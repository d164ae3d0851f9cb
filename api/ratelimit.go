package api

import (
	"sync"
	"time"
)

// rateWindow tracks one client's request count in the current window.
type rateWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter caps requests per client per fixed window.
type RateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*rateWindow
	maxRequests  int
	windowPeriod time.Duration
}

// NewRateLimiter creates a limiter allowing maxRequests per windowPeriod
// per key.
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:      make(map[string]*rateWindow),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
	}
}

// Allow records one request for the key and reports whether it is within
// the limit, along with the current count and window reset time.
func (r *RateLimiter) Allow(key string) (bool, int, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	win, ok := r.windows[key]
	if !ok || now.Sub(win.windowStart) > r.windowPeriod {
		r.windows[key] = &rateWindow{count: 1, windowStart: now}
		return true, 1, now.Add(r.windowPeriod)
	}

	win.count++
	reset := win.windowStart.Add(r.windowPeriod)
	if win.count > r.maxRequests {
		return false, win.count, reset
	}
	return true, win.count, reset
}
