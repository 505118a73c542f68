// Medicine HTTP handlers.
//
// REST endpoints for the prescription list:
//   - POST   /medicines        (create)
//   - GET    /medicines        (list)
//   - GET    /medicines/{id}   (fetch)
//   - PUT    /medicines/{id}   (update)
//   - DELETE /medicines/{id}   (soft delete; dose history survives)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/services"
)

// MedicineRequest is the JSON payload for creating or updating a medicine.
type MedicineRequest struct {
	Name         string     `json:"name" binding:"required,min=1,max=255"`
	Dosage       string     `json:"dosage" binding:"required,min=1,max=64"`
	Frequency    int        `json:"frequency" binding:"required,min=1,max=24"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
	Instructions string     `json:"instructions" binding:"max=2000"`
}

// ListMedicinesResponse wraps the user's medicines.
type ListMedicinesResponse struct {
	Medicines []domain.Medicine `json:"medicines"`
}

func (r MedicineRequest) input() services.MedicineInput {
	return services.MedicineInput{
		Name:         r.Name,
		Dosage:       r.Dosage,
		Frequency:    r.Frequency,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Instructions: r.Instructions,
	}
}

// CreateMedicine adds a prescription for the current user.
func (h *Handlers) CreateMedicine(c *gin.Context) {
	var req MedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, dosage, frequency and start_date are required")
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "end_date must not precede start_date")
		return
	}

	m, err := h.medSvc.Create(c.Request.Context(), userID(c), req.input())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, m)
}

// ListMedicines returns the user's prescriptions.
func (h *Handlers) ListMedicines(c *gin.Context) {
	items, err := h.medSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMedicinesResponse{Medicines: items})
}

// GetMedicine fetches a single prescription.
func (h *Handlers) GetMedicine(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medicine id must be a UUID")
		return
	}

	m, err := h.medSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		if err == services.ErrMedicineNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medicine not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMedicine overwrites the user-editable fields of a prescription.
func (h *Handlers) UpdateMedicine(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medicine id must be a UUID")
		return
	}

	var req MedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, dosage, frequency and start_date are required")
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "end_date must not precede start_date")
		return
	}

	m, err := h.medSvc.Update(c.Request.Context(), userID(c), id, req.input())
	if err != nil {
		if err == services.ErrMedicineNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medicine not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMedicine soft-removes a prescription.
func (h *Handlers) DeleteMedicine(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "medicine id must be a UUID")
		return
	}

	if err := h.medSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		if err == services.ErrMedicineNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "medicine not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
