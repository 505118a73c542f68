package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediminder/mediminder-backend/internal/config"
	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/http/middleware"
	"github.com/mediminder/mediminder-backend/internal/repo"
	"gorm.io/gorm"
)

// --- tiny fake model so message posting works without the hosted API ---
type fakeModel struct{}

func (fakeModel) Generate(_ context.Context, _ string) (string, error) {
	return "Noted, keep taking your medication as scheduled.", nil
}

// --- tiny fake notifier ---
type fakeNotifier struct{}

func (fakeNotifier) SendAlert(_ context.Context, _ domain.Caregiver, _ string) error { return nil }

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath:     "/api/v1",
		RateRPS:         100,
		RateBurst:       10,
		AdherenceWindow: 30 * 24 * time.Hour,
		CORS:            config.CORSConfig{},
		Security:        config.SecurityConfig{EnableHSTS: false},
		OTEL:            config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newRouterDB(t), fakeModel{}, fakeNotifier{}, baseConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := baseConfig()
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	RegisterRoutes(r, newRouterDB(t), fakeModel{}, fakeNotifier{}, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_EndToEnd_MedicineAndAdherence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newRouterDB(t), fakeModel{}, fakeNotifier{}, baseConfig())

	// Create a medicine through the full stack.
	body := `{"name":"Metformin","dosage":"500mg","frequency":2,"start_date":"2026-08-01T00:00:00Z"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "router-user")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /medicines = %d body=%s", w.Code, w.Body.String())
	}
	var med domain.Medicine
	if err := json.Unmarshal(w.Body.Bytes(), &med); err != nil {
		t.Fatalf("decode medicine: %v", err)
	}
	if med.ID == "" || med.Name != "Metformin" {
		t.Fatalf("unexpected medicine: %+v", med)
	}

	// Empty dose history scores as fully adherent.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/adherence", nil)
	req.Header.Set("X-User-ID", "router-user")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /adherence = %d body=%s", w.Code, w.Body.String())
	}
	var score struct {
		Score     int    `json:"score"`
		RiskLevel string `json:"risk_level"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &score); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.Score != 100 || score.RiskLevel != "low" {
		t.Fatalf("expected perfect score for empty history, got %+v", score)
	}
}

func TestRegisterRoutes_EndToEnd_ConversationMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newRouterDB(t), fakeModel{}, fakeNotifier{}, baseConfig())

	// Create a conversation.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewBufferString(`{"title":"Checkin"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "router-user")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /conversations = %d body=%s", w.Code, w.Body.String())
	}
	var conv domain.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}

	// Post a message and get the assistant reply back.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages",
		bytes.NewBufferString(`{"content":"When should I take my evening dose?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "router-user")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST message = %d body=%s", w.Code, w.Body.String())
	}

	// And list it back.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+conv.ID+"/messages", nil)
	req.Header.Set("X-User-ID", "router-user")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET messages = %d body=%s", w.Code, w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRegisterRoutes_IdempotentMessageReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newRouterDB(t)
	RegisterRoutes(r, db, fakeModel{}, fakeNotifier{}, baseConfig())

	const user = "u1"
	const key = "retry-key-1"

	conv, err := repo.CreateConversation(context.Background(), db, user, "Retries")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages",
			bytes.NewBufferString(`{"content":"Logging my morning dose"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", user)
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		return w
	}

	// First delivery runs the pipeline and records the key.
	w1 := post()
	if w1.Code != http.StatusOK {
		t.Fatalf("first post = %d body=%s", w1.Code, w1.Body.String())
	}
	if w1.Header().Get("Idempotency-Replayed") == "true" {
		t.Fatalf("first delivery must not be a replay")
	}

	// Retry with the same key returns the recorded message.
	w2 := post()
	if w2.Code != http.StatusOK {
		t.Fatalf("retry post = %d body=%s", w2.Code, w2.Body.String())
	}
	if w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected Idempotency-Replayed header on retry")
	}
}
