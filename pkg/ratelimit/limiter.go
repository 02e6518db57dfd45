// Package ratelimit throttles build requests per client key
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a keyed request may proceed
type Limiter interface {
	Allow(key string) bool
}

// TokenBucketLimiter keeps one token bucket per key. Each key starts with
// burst tokens and regains one every 1/perMinute of a minute.
type TokenBucketLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter creates a limiter allowing perMinute sustained
// requests with bursts of burst. Idle buckets are evicted by a background
// sweep until Stop is called.
func NewTokenBucketLimiter(perMinute, burst int) *TokenBucketLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	l := &TokenBucketLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idleTTL: time.Hour,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

// Allow takes one token for key if it has any
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// RetryAfter is the wait until key regains a token
func (l *TokenBucketLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return 0
	}
	missing := 1 - b.limiter.TokensAt(l.now())
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(l.limit) * float64(time.Second))
}

// Stop ends the background sweep
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *TokenBucketLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}
