package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
)

// Config holds the per-key token bucket settings
type Config struct {
	// RequestsPerMinute is the sustained rate allowed for each key
	RequestsPerMinute int
	Burst             int
	// IdleTTL is how long an unused key keeps its bucket
	IdleTTL time.Duration
}

// KeyedLimiter rate-limits callers identified by an arbitrary key, such as a client IP
type KeyedLimiter interface {
	// Allow reports whether one more request for key fits in its bucket
	Allow(key string) bool
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type keyedLimiter struct {
	config    Config
	clock     adapter.Clock
	mu        sync.Mutex
	limiters  map[string]*keyLimiter
	lastSweep time.Time
}

// NewKeyedLimiter creates a KeyedLimiter. A non-positive rate disables limiting.
func NewKeyedLimiter(cfg Config, clock adapter.Clock) KeyedLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = max(cfg.RequestsPerMinute, 1)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	return &keyedLimiter{
		config:    cfg,
		clock:     clock,
		limiters:  make(map[string]*keyLimiter),
		lastSweep: clock.Now(),
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	if l.config.RequestsPerMinute <= 0 {
		return true
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictIdle(now)

	entry, ok := l.limiters[key]
	if !ok {
		perSecond := rate.Limit(float64(l.config.RequestsPerMinute) / 60)
		entry = &keyLimiter{limiter: rate.NewLimiter(perSecond, l.config.Burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops buckets unused for IdleTTL; it runs at most once per IdleTTL
func (l *keyedLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.IdleTTL {
		return
	}
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.config.IdleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}
