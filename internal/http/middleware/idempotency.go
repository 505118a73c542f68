// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header and, when a key has already
// been recorded for the same user and conversation, flags the request as a
// replay. Replayed requests bypass the rate limiter and are answered from the
// stored message by the handler instead of re-running the triage pipeline.
package middleware

import (
	"context"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's
// idempotency key for message posts.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemKeyRE = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions tunes key validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Zero means 200.
	MaxLen int
	// Pattern restricts the accepted alphabet. Nil means unreserved URL
	// characters plus ':'.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a key has already been recorded for the
// given user and conversation.
type IdempotencyLookup func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error)

// GetIdempotencyKey returns the validated idempotency key for the request, or
// the empty string when none was supplied.
func GetIdempotencyKey(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyIdemKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsReplay reports whether the validator matched a previously stored key.
func IsReplay(c *gin.Context) bool {
	if v, ok := c.Get(ctxKeyIdemReplay); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// IsRateBypass reports whether the request is exempt from rate limiting.
func IsRateBypass(c *gin.Context) bool {
	if v, ok := c.Get(ctxKeyRateBypass); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if s := c.GetHeader("X-User-ID"); s != "" {
		return s
	}
	return "demo-user"
}

// IdempotencyValidator checks the Idempotency-Key header on each request.
//
// Malformed keys are ignored rather than rejected so that clients with buggy
// key generation degrade to non-idempotent behavior instead of hard errors.
// Valid keys are stored in the context; when lookup confirms the key was seen
// before for this user and conversation, the request is marked as a replay
// and exempted from rate limiting. Lookup errors fail open: the request
// proceeds as a first delivery.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultIdemKeyRE
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || len(key) > maxLen || !pattern.MatchString(key) {
			c.Next()
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			conversationID := c.Param("id")
			seen, err := lookup(c.Request.Context(), userIDFromCtx(c), conversationID, key, time.Now().UTC())
			if err == nil && seen {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
