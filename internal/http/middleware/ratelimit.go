// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a per-client token-bucket rate limiter built on
// golang.org/x/time/rate. Each client key (user ID when known, client IP
// otherwise) gets its own bucket; idle buckets are evicted after a TTL so the
// visitor map cannot grow without bound.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc derives the rate-limit bucket key for a request.
type keyFunc func(c *gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user when available and by
// client IP otherwise. Matches the user resolution used by the handlers:
// context "userID", then the X-User-ID header, then the client IP.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "u:" + s
			}
		}
		if s := c.GetHeader("X-User-ID"); s != "" {
			return "u:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client key.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor

	idleTTL  time.Duration
	cleanupN int
}

// NewRateLimiter builds a limiter allowing rps requests per second with the
// given burst per client key. Buckets idle for ten minutes are evicted; the
// eviction sweep runs opportunistically once the map exceeds 5000 entries.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		idleTTL:  10 * time.Minute,
		cleanupN: 5000,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()

	if len(rl.visitors) > rl.cleanupN {
		cutoff := time.Now().Add(-rl.idleTTL)
		for k, vv := range rl.visitors {
			if vv.lastSeen.Before(cutoff) {
				delete(rl.visitors, k)
			}
		}
	}
	return v.limiter
}

// Handler enforces the rate limit, returning 429 with Retry-After when a
// client's bucket is empty. Requests flagged as idempotent replays bypass the
// limiter so a retried request is never throttled into a different outcome.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		if !rl.limiterFor(rl.keyFn(c)).Allow() {
			retry := 1
			if rl.rps > 0 && rl.rps < 1 {
				retry = int(1 / float64(rl.rps))
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": asString(rid),
				"code":       "rate_limited",
				"message":    "too many requests",
			})
			return
		}
		c.Next()
	}
}
