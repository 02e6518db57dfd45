package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketLimiter(t *testing.T) {
	newLimiter := func(perMinute, burst int) (*TokenBucketLimiter, *time.Time) {
		clock := time.Unix(0, 0)
		l := NewTokenBucketLimiter(perMinute, burst)
		l.now = func() time.Time { return clock }
		t.Cleanup(l.Stop)
		return l, &clock
	}

	t.Run("Should allow a burst then block", func(t *testing.T) {
		l, _ := newLimiter(60, 3)

		assert.True(t, l.Allow("ip:1"))
		assert.True(t, l.Allow("ip:1"))
		assert.True(t, l.Allow("ip:1"))
		assert.False(t, l.Allow("ip:1"))
		assert.Equal(t, time.Second, l.RetryAfter("ip:1"))
	})

	t.Run("Should refill one token per interval", func(t *testing.T) {
		l, clock := newLimiter(60, 1)
		assert.True(t, l.Allow("ip:1"))
		assert.False(t, l.Allow("ip:1"))

		*clock = clock.Add(1500 * time.Millisecond)

		assert.True(t, l.Allow("ip:1"))
		assert.False(t, l.Allow("ip:1"))
		assert.Equal(t, time.Second, l.RetryAfter("ip:1"))

		*clock = clock.Add(250 * time.Millisecond)
		assert.Equal(t, 750*time.Millisecond, l.RetryAfter("ip:1"))
	})

	t.Run("Should report no wait while tokens remain", func(t *testing.T) {
		l, _ := newLimiter(60, 2)
		assert.True(t, l.Allow("ip:1"))

		assert.Zero(t, l.RetryAfter("ip:1"))
		assert.Zero(t, l.RetryAfter("ip:unknown"))
	})

	t.Run("Should keep keys independent", func(t *testing.T) {
		l, _ := newLimiter(60, 1)

		assert.True(t, l.Allow("ip:1"))
		assert.True(t, l.Allow("ip:2"))
	})

	t.Run("Should evict idle buckets", func(t *testing.T) {
		l, clock := newLimiter(60, 1)
		l.Allow("ip:1")
		*clock = clock.Add(30 * time.Minute)
		l.Allow("ip:2")

		*clock = clock.Add(45 * time.Minute)
		l.sweep()
		assert.NotContains(t, l.buckets, "ip:1")
		assert.Contains(t, l.buckets, "ip:2")

		*clock = clock.Add(2 * time.Hour)
		l.sweep()

		assert.Empty(t, l.buckets)
	})
}
