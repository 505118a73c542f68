// Side-effect HTTP handler.
//
// GET /side-effects returns the triage history persisted by the message
// pipeline, newest first, optionally filtered by severity.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/services"
	"github.com/mediminder/mediminder-backend/internal/utils"
)

// ListSideEffectsResponse wraps the user's side-effect reports.
type ListSideEffectsResponse struct {
	SideEffects []domain.SideEffect `json:"side_effects"`
}

// ListSideEffects returns the user's persisted triage reports.
func (h *Handlers) ListSideEffects(c *gin.Context) {
	severity := c.Query("severity")
	limit := utils.AtoiDefault(c.Query("limit"), 50)

	items, err := h.seSvc.List(c.Request.Context(), userID(c), severity, limit)
	if err != nil {
		if err == services.ErrInvalidSeverity {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "severity must be one of mild, moderate, severe")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSideEffectsResponse{SideEffects: items})
}
