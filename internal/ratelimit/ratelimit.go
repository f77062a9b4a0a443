// Package ratelimit provides a fixed-window request limiter keyed by a
// derived client identifier. State is process-local and advisory: it is
// reset on restart and not shared across instances.
package ratelimit

import (
	"sync"
	"time"
)

// Decision reports the outcome of a single admission check.
type Decision struct {
	// Allowed is true when the request fits inside the current window.
	Allowed bool

	// Remaining is the number of requests left in the window after this one.
	Remaining int

	// ResetTime is when the current window expires and the count restarts.
	ResetTime time.Time
}

type window struct {
	count int
	reset time.Time
}

// Limiter tracks request counts per client identifier over a fixed window.
// All methods are safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*window
	now     func() time.Time
}

// New creates a limiter admitting up to limit requests per window duration
// for each distinct identifier.
func New(limit int, windowDur time.Duration) *Limiter {
	return NewWithClock(limit, windowDur, time.Now)
}

// NewWithClock is New with an injectable clock, used by tests to control
// window expiry deterministically.
func NewWithClock(limit int, windowDur time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}

	return &Limiter{
		limit:   limit,
		window:  windowDur,
		clients: make(map[string]*window),
		now:     now,
	}
}

// Allow records one request for the identifier and reports whether it is
// admitted. The first request in a window sets the count to 1 and the reset
// time to now plus the window duration; later requests increment the count
// until the ceiling is reached, after which requests are rejected until the
// window expires.
func (l *Limiter) Allow(identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.clients[identifier]
	if !ok || !now.Before(w.reset) {
		w = &window{count: 1, reset: now.Add(l.window)}
		l.clients[identifier] = w

		return Decision{Allowed: true, Remaining: l.limit - 1, ResetTime: w.reset}
	}

	if w.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetTime: w.reset}
	}

	w.count++

	return Decision{Allowed: true, Remaining: l.limit - w.count, ResetTime: w.reset}
}

// Sweep removes entries whose window has expired and returns how many were
// removed. Intended to run periodically so idle clients do not accumulate.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0

	for id, w := range l.clients {
		if !now.Before(w.reset) {
			delete(l.clients, id)
			removed++
		}
	}

	return removed
}

// Limit returns the per-window request ceiling.
func (l *Limiter) Limit() int {
	return l.limit
}

// Size returns the number of identifiers currently tracked.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.clients)
}
