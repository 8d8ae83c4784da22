// internal/app/ratelimit.go
package app

import (
	"sync"
	"time"
)

// rateLimiter enforces a per-user cooldown between completed queries. The
// timer is armed on each successful completion, never on malformed input.
// State is process-local and not durable, like the session store.
type rateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[int64]time.Time
}

func newRateLimiter(cooldown time.Duration) *rateLimiter {
	return &rateLimiter{
		cooldown: cooldown,
		last:     make(map[int64]time.Time),
	}
}

// check reports whether the user may run a query now; when rejected it
// returns the remaining wait. It never mutates state.
func (l *rateLimiter) check(userID int64, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[userID]
	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed >= l.cooldown {
		return true, 0
	}
	return false, l.cooldown - elapsed
}

// arm records a successful completion.
func (l *rateLimiter) arm(userID int64, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[userID] = now
}
