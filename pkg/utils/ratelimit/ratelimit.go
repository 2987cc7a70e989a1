package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-memory fixed-window counter keyed by an arbitrary string
// (e.g. "onboarding:<subject>"). It is process-local: counts do not survive
// restarts and are not shared across instances.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	count       int
	windowStart time.Time
}

// New creates a Limiter allowing max calls per window for each key
func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:  window,
		max:     max,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow reports whether another call is permitted for the key, counting the
// call when it is. Once the window has elapsed the count resets.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[key] = &entry{count: 1, windowStart: now}
		return true
	}

	if e.count >= l.max {
		return false
	}
	e.count++
	return true
}
