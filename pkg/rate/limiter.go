// Package rate limits storefront operations per client, such as checkout
// creation per IP address.
package rate

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/sablepay/coffee-pos/pkg/cache"
)

// DefaultMaxTrackedKeys bounds how many clients a local limiter remembers.
// The least recently seen client is forgotten first, and starts over with a
// full burst when it returns.
const DefaultMaxTrackedKeys = 10000

// Limiter limits operations per key.
type Limiter interface {
	Allow(key string) (bool, error)
}

// LimiterCtor creates a Limiter allowing ratePerSecond operations per key.
type LimiterCtor func(ratePerSecond float64) Limiter

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters *cache.Cache[*rate.Limiter]
}

// NewLocalRateLimiter returns an in memory token bucket limiter per key. The
// burst is the per second rate, rounded down, and at least one.
func NewLocalRateLimiter(limit rate.Limit, maxTrackedKeys int) Limiter {
	return &localRateLimiter{
		limit:    limit,
		burst:    max(int(limit), 1),
		limiters: cache.New[*rate.Limiter]("rate-limiters", max(maxTrackedKeys, 1)),
	}
}

// NewLocalRateLimiterCtor returns a LimiterCtor for in memory limiters. A
// non-positive rate disables limiting.
func NewLocalRateLimiterCtor() LimiterCtor {
	return func(ratePerSecond float64) Limiter {
		if ratePerSecond <= 0 {
			return NoLimiter{}
		}
		return NewLocalRateLimiter(rate.Limit(ratePerSecond), DefaultMaxTrackedKeys)
	}
}

// Allow implements Limiter.Allow.
func (l *localRateLimiter) Allow(key string) (bool, error) {
	return l.limiterFor(key).Allow(), nil
}

func (l *localRateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters.Retrieve(key); ok {
		return limiter
	}

	// Can't fail: the key is absent while mu is held, and the weight is 1.
	limiter := rate.NewLimiter(l.limit, l.burst)
	_ = l.limiters.Insert(key, limiter, 1)
	return limiter
}

// NoLimiter allows everything.
type NoLimiter struct{}

// Allow implements Limiter.Allow.
func (NoLimiter) Allow(string) (bool, error) {
	return true, nil
}
