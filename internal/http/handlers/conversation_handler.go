// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations               (create)
//   - GET    /conversations               (list, ETag support)
//   - PUT    /conversations/{id}/title    (rename)
//   - DELETE /conversations/{id}          (remove)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/adherence"
	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/repo"
	"github.com/mediminder/mediminder-backend/internal/services"
	"github.com/mediminder/mediminder-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines conversation lifecycle operations consumed by
// HTTP handlers. Implementations should be safe for concurrent use and must
// honor the provided context for cancellation and timeouts.
type ConversationService interface {
	Create(ctx context.Context, userID, title string) (*domain.Conversation, error)
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
	Delete(ctx context.Context, userID, conversationID string) error
}

// MessageService defines the chat submission pipeline and message retrieval.
type MessageService interface {
	Respond(ctx context.Context, userID, conversationID, text string) (*domain.Message, error)
	ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
}

// MedicineService defines prescription CRUD operations.
type MedicineService interface {
	Create(ctx context.Context, userID string, in services.MedicineInput) (*domain.Medicine, error)
	List(ctx context.Context, userID string) ([]domain.Medicine, error)
	Get(ctx context.Context, userID, id string) (*domain.Medicine, error)
	Update(ctx context.Context, userID, id string, in services.MedicineInput) (*domain.Medicine, error)
	Delete(ctx context.Context, userID, id string) error
}

// DoseLogService defines dose scheduling and logging operations.
type DoseLogService interface {
	Schedule(ctx context.Context, userID, medicineID string, scheduledTime time.Time) (*domain.DoseLog, error)
	List(ctx context.Context, userID string, from, to time.Time, medicineID string) ([]domain.DoseLog, error)
	Log(ctx context.Context, userID, doseID, status string, takenTime *time.Time, notes string) (*domain.DoseLog, error)
}

// CaregiverService defines caregiver contact CRUD operations.
type CaregiverService interface {
	Create(ctx context.Context, userID string, in services.CaregiverInput) (*domain.Caregiver, error)
	List(ctx context.Context, userID string) ([]domain.Caregiver, error)
	Update(ctx context.Context, userID, id string, in services.CaregiverInput) (*domain.Caregiver, error)
	Delete(ctx context.Context, userID, id string) error
}

// AdherenceService computes the adherence score over the trailing window.
type AdherenceService interface {
	Score(ctx context.Context, userID string) (adherence.Score, error)
}

// SideEffectService lists persisted triage reports.
type SideEffectService interface {
	List(ctx context.Context, userID, severity string, limit int) ([]domain.SideEffect, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the public API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	convSvc ConversationService
	msgSvc  MessageService
	medSvc  MedicineService
	doseSvc DoseLogService
	cgSvc   CaregiverService
	adhSvc  AdherenceService
	seSvc   SideEffectService
}

// New constructs a Handlers instance bound to the given services.
func New(
	convSvc ConversationService,
	msgSvc MessageService,
	medSvc MedicineService,
	doseSvc DoseLogService,
	cgSvc CaregiverService,
	adhSvc AdherenceService,
	seSvc SideEffectService,
) *Handlers {
	return &Handlers{
		convSvc: convSvc,
		msgSvc:  msgSvc,
		medSvc:  medSvc,
		doseSvc: doseSvc,
		cgSvc:   cgSvc,
		adhSvc:  adhSvc,
		seSvc:   seSvc,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally sets the conversation title; a default is used when empty.
	Title string `json:"title"`
}

// UpdateConversationTitleRequest is the JSON payload for renaming.
type UpdateConversationTitleRequest struct {
	// Title is the new conversation name (1-255 chars).
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps the user's conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// CreateConversation creates a conversation for the current user and returns
// the resource.
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.Title))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations returns the user's conversations. Supports weak ETag via
// If-None-Match and may return 304.
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.convSvc.(*services.ConversationService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.convSvc.List(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{Conversations: items})
}

// UpdateConversationTitle renames a conversation owned by the current user.
func (h *Handlers) UpdateConversationTitle(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req UpdateConversationTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}

	if err := h.convSvc.UpdateTitle(c.Request.Context(), userID(c), conversationID, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// DeleteConversation removes a conversation owned by the current user.
func (h *Handlers) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	if err := h.convSvc.Delete(c.Request.Context(), userID(c), conversationID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}
