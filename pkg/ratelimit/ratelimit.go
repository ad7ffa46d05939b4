// Package ratelimit provides a token-bucket limiter guarding the
// transport stage against runaway rerun storms, adapted from the
// teacher's pkg/auth rate limiters (non-distributed variant only — the
// distributed variant coordinated via DynamoDB, which this repo's
// Non-goals exclude, see DESIGN.md).
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is satisfied by any rate-limiting strategy.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// TokenBucketLimiter implements classic token-bucket rate limiting,
// keyed by an arbitrary string (here: the transport target URL).
type TokenBucketLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
}

// NewTokenBucketLimiter creates a limiter allowing maxTokens requests
// per key, refilling one token every refillRate.
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
	}
}

// Allow reports whether a request for key may proceed, consuming a
// token if so.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastRefill: time.Now()}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	tokensToAdd := int(elapsed / l.refillRate)
	if tokensToAdd > 0 {
		b.tokens = min(b.tokens+tokensToAdd, l.maxTokens)
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Reset clears the bucket for key.
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
