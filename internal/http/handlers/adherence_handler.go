// Adherence HTTP handler.
//
// GET /adherence returns the adherence score over the trailing window.
// A fetch failure is surfaced as 503 rather than a fabricated perfect score.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediminder/mediminder-backend/internal/services"
)

// GetAdherence computes and returns the current user's adherence score.
func (h *Handlers) GetAdherence(c *gin.Context) {
	score, err := h.adhSvc.Score(c.Request.Context(), userID(c))
	if err != nil {
		if err == services.ErrAdherenceUnavailable {
			fail(c, http.StatusServiceUnavailable, ErrCodeScoreUnavailable, "adherence history unavailable")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, score)
}
