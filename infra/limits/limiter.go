package limits

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PerKeyLimiter keeps one token bucket per key (client address, user).
// Buckets idle for longer than the idle timeout are dropped by Sweep.
type PerKeyLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewPerKeyLimiter allows rps requests per second per key with the given
// burst. A non-positive rps disables limiting.
func NewPerKeyLimiter(rps float64, burst int) *PerKeyLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &PerKeyLimiter{
		buckets: make(map[string]*bucket),
		rps:     limit,
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether one more request for key may proceed now.
func (l *PerKeyLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.seen = t
	return b.limiter.AllowN(t, 1)
}

// Sweep drops buckets not used within the idle timeout and returns how
// many were removed.
func (l *PerKeyLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for k, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, k)
			removed++
		}
	}
	return removed
}

// Len is the number of live buckets.
func (l *PerKeyLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
