// Dose log HTTP handlers.
//
// REST endpoints for scheduled doses:
//   - POST  /doses             (schedule a pending dose)
//   - GET   /doses             (list within a time range)
//   - PUT   /doses/{id}/status (record taken/missed/skipped)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/services"
)

// ScheduleDoseRequest is the JSON payload for scheduling a dose.
type ScheduleDoseRequest struct {
	MedicineID    string    `json:"medicine_id" binding:"required,uuid"`
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
}

// LogDoseRequest is the JSON payload for the single status transition.
type LogDoseRequest struct {
	Status    string     `json:"status" binding:"required,oneof=taken missed skipped"`
	TakenTime *time.Time `json:"taken_time"`
	Notes     string     `json:"notes" binding:"max=2000"`
}

// ListDosesResponse wraps the dose logs for a time range.
type ListDosesResponse struct {
	Doses []domain.DoseLog `json:"doses"`
	From  time.Time        `json:"from"`
	To    time.Time        `json:"to"`
}

// ScheduleDose inserts a pending dose log for one of the user's medicines.
func (h *Handlers) ScheduleDose(c *gin.Context) {
	var req ScheduleDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medicine_id (UUID) and scheduled_time required")
		return
	}

	d, err := h.doseSvc.Schedule(c.Request.Context(), userID(c), req.MedicineID, req.ScheduledTime)
	if err != nil {
		if err == services.ErrMedicineNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medicine not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListDoses returns the user's dose logs scheduled within [from, to).
// Defaults to the last 7 days; an optional medicine_id narrows the result.
func (h *Handlers) ListDoses(c *gin.Context) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now.Add(24 * time.Hour)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from must be RFC 3339")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to must be RFC 3339")
			return
		}
		to = t
	}
	if !to.After(from) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to must be after from")
		return
	}
	medicineID := c.Query("medicine_id")
	if medicineID != "" {
		if _, err := uuid.Parse(medicineID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medicine_id must be a UUID")
			return
		}
	}

	items, err := h.doseSvc.List(c.Request.Context(), userID(c), from, to, medicineID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListDosesResponse{Doses: items, From: from, To: to})
}

// LogDose records the lifecycle transition of a pending dose.
func (h *Handlers) LogDose(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "dose id must be a UUID")
		return
	}

	var req LogDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of taken, missed, skipped")
		return
	}

	d, err := h.doseSvc.Log(c.Request.Context(), userID(c), id, req.Status, req.TakenTime, req.Notes)
	if err != nil {
		switch err {
		case services.ErrDoseNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "dose log not found")
		case services.ErrDoseAlreadyLogged:
			fail(c, http.StatusConflict, ErrCodeDoseLogged, "dose already logged")
		case services.ErrInvalidDoseStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of taken, missed, skipped")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, d)
}
