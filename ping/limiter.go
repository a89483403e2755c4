package ping

import (
	"sync"
	"time"
)

// Limiter allows at most max pings per engine within a sliding window.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a Limiter that allows max pings per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether engine may be pinged now and records the ping.
func (l *Limiter) Allow(engine string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hits[engine]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.hits[engine] = kept
		return false
	}
	l.hits[engine] = append(kept, now)
	return true
}
