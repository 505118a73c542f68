package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup, opts IdempotencyOptions, probe *struct {
	key    string
	replay bool
	bypass bool
}) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(opts, lookup))
	r.POST("/conversations/:id/messages", func(c *gin.Context) {
		probe.key = GetIdempotencyKey(c)
		probe.replay = IsReplay(c)
		probe.bypass = IsRateBypass(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdempotencyValidator_IgnoresMissingAndMalformedKeys(t *testing.T) {
	var probe struct {
		key    string
		replay bool
		bypass bool
	}
	r := idemRouter(nil, IdempotencyOptions{MaxLen: 8}, &probe)

	// No header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", nil))
	if w.Code != http.StatusOK || probe.key != "" {
		t.Fatalf("missing key: code=%d key=%q", w.Code, probe.key)
	}

	// Too long.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "way-too-long-key")
	r.ServeHTTP(w, req)
	if probe.key != "" {
		t.Fatalf("overlong key should be ignored, got %q", probe.key)
	}

	// Bad alphabet.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "bad key!")
	r.ServeHTTP(w, req)
	if probe.key != "" {
		t.Fatalf("malformed key should be ignored, got %q", probe.key)
	}
}

func TestIdempotencyValidator_FirstDeliveryAndReplay(t *testing.T) {
	seen := false
	var gotUser, gotConv, gotKey string
	lookup := func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
		gotUser, gotConv, gotKey = userID, conversationID, key
		return seen, nil
	}

	var probe struct {
		key    string
		replay bool
		bypass bool
	}
	r := idemRouter(lookup, IdempotencyOptions{}, &probe)

	// First delivery: key accepted, no replay flag.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	req.Header.Set("X-User-ID", "alice")
	r.ServeHTTP(w, req)
	if probe.key != "key-1" || probe.replay || probe.bypass {
		t.Fatalf("first delivery: key=%q replay=%v bypass=%v", probe.key, probe.replay, probe.bypass)
	}
	if gotUser != "alice" || gotConv != "conv-1" || gotKey != "key-1" {
		t.Fatalf("lookup args: user=%q conv=%q key=%q", gotUser, gotConv, gotKey)
	}

	// Second delivery of the same key: flagged as replay and rate-exempt.
	seen = true
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	req.Header.Set("X-User-ID", "alice")
	r.ServeHTTP(w, req)
	if !probe.replay || !probe.bypass {
		t.Fatalf("replay: replay=%v bypass=%v", probe.replay, probe.bypass)
	}
}

func TestIdempotencyValidator_LookupErrorFailsOpen(t *testing.T) {
	lookup := func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
		return true, errors.New("db down")
	}

	var probe struct {
		key    string
		replay bool
		bypass bool
	}
	r := idemRouter(lookup, IdempotencyOptions{}, &probe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-err")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup error must not block the request, got %d", w.Code)
	}
	if probe.replay {
		t.Fatalf("lookup error must not mark a replay")
	}
}

func TestUserIDFromCtx_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := userIDFromCtx(c); got != "demo-user" {
		t.Fatalf("expected demo-user fallback, got %q", got)
	}
	c.Request.Header.Set("X-User-ID", "hdr")
	if got := userIDFromCtx(c); got != "hdr" {
		t.Fatalf("expected header user, got %q", got)
	}
	c.Set("userID", "ctx")
	if got := userIDFromCtx(c); got != "ctx" {
		t.Fatalf("expected context user, got %q", got)
	}
}
