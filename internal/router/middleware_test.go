package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate.Limit(1), 1, time.Minute)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	first := rl.GetLimiter("10.0.0.1")
	rl.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	clock = clock.Add(45 * time.Second)
	assert.Same(t, first, rl.GetLimiter("10.0.0.1"))

	// .2 has been idle past the ttl, .1 was seen 30s ago
	clock = clock.Add(30 * time.Second)
	rl.GetLimiter("10.0.0.3")
	assert.Equal(t, 2, rl.Len())
	assert.Same(t, first, rl.GetLimiter("10.0.0.1"))

	clock = clock.Add(2 * time.Minute)
	rl.GetLimiter("10.0.0.4")
	assert.Equal(t, 1, rl.Len())
	assert.NotSame(t, first, rl.GetLimiter("10.0.0.1"))
}

func TestRateLimiterKeepsBucketsWithoutTTL(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1, 0)
	base := time.Now()
	rl.now = func() time.Time { return base.Add(24 * time.Hour) }

	limiter := rl.GetLimiter("10.0.0.1")
	assert.Same(t, limiter, rl.GetLimiter("10.0.0.1"))
	assert.Equal(t, 1, rl.Len())
}
