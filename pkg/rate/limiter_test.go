package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func allow(t *testing.T, l Limiter, key string) bool {
	allowed, err := l.Allow(key)
	require.NoError(t, err)
	return allowed
}

func TestNoLimiter(t *testing.T) {
	l := NoLimiter{}
	for i := 0; i < 1000; i++ {
		assert.True(t, allow(t, l, "10.0.0.1"))
	}
}

func TestLocalRateLimiter_PerKey(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(2), DefaultMaxTrackedKeys)

	assert.True(t, allow(t, l, "10.0.0.1"))
	assert.True(t, allow(t, l, "10.0.0.1"))
	assert.False(t, allow(t, l, "10.0.0.1"))

	assert.True(t, allow(t, l, "10.0.0.2"))
	assert.True(t, allow(t, l, "10.0.0.2"))
	assert.False(t, allow(t, l, "10.0.0.2"))
}

func TestLocalRateLimiter_ForgetsLeastRecentKeys(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(1), 2)

	assert.True(t, allow(t, l, "10.0.0.1"))
	assert.False(t, allow(t, l, "10.0.0.1"))

	assert.True(t, allow(t, l, "10.0.0.2"))
	assert.True(t, allow(t, l, "10.0.0.3"))

	// 10.0.0.1 was evicted, so it gets a fresh bucket.
	assert.True(t, allow(t, l, "10.0.0.1"))
	assert.False(t, allow(t, l, "10.0.0.3"))
}

func TestLocalRateLimiterCtor(t *testing.T) {
	ctor := NewLocalRateLimiterCtor()

	assert.IsType(t, NoLimiter{}, ctor(0))
	assert.IsType(t, NoLimiter{}, ctor(-1))

	// Fractional rates still allow a single request.
	l := ctor(0.5)
	assert.True(t, allow(t, l, "127.0.0.1"))
	assert.False(t, allow(t, l, "127.0.0.1"))
}
