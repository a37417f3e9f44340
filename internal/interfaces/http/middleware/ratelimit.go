package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter grants each client a fixed number of requests per window,
// keyed by client IP. State lives in memory; stale entries are pruned
// opportunistically on the request path, so no background goroutine is
// needed.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

// NewRateLimiter allows limit requests per window for each key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		window:    window,
		buckets:   make(map[string]*bucket),
		lastPrune: time.Now(),
	}
}

// Allow consumes one request for key. It reports whether the request is
// within the limit and how many requests remain in the current window.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.pruneLocked(now)

	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{remaining: rl.limit - 1, resetAt: now.Add(rl.window)}
		return true, rl.limit - 1
	}

	if b.remaining <= 0 {
		return false, 0
	}
	b.remaining--
	return true, b.remaining
}

// pruneLocked drops buckets whose window expired at least a full window
// ago. Runs at most once per window to keep Allow cheap.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.window {
		return
	}
	rl.lastPrune = now
	for key, b := range rl.buckets {
		if now.Sub(b.resetAt) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit rejects requests over the per-IP limit with 429 and reports
// the quota through X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := limiter.Allow(c.ClientIP())
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
