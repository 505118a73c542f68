// Caregiver HTTP handlers.
//
// REST endpoints for the alert addressee list:
//   - POST   /caregivers        (create; promoting demotes the old primary)
//   - GET    /caregivers        (list, primary first)
//   - PUT    /caregivers/{id}   (update)
//   - DELETE /caregivers/{id}   (remove)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/services"
)

// CaregiverRequest is the JSON payload for creating or updating a caregiver.
type CaregiverRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	Phone        string `json:"phone" binding:"required,min=3,max=32"`
	Email        string `json:"email" binding:"omitempty,email"`
	Relationship string `json:"relationship" binding:"required,min=1,max=64"`
	IsPrimary    bool   `json:"is_primary"`
}

// ListCaregiversResponse wraps the user's caregivers.
type ListCaregiversResponse struct {
	Caregivers []domain.Caregiver `json:"caregivers"`
}

func (r CaregiverRequest) input() services.CaregiverInput {
	return services.CaregiverInput{
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		Relationship: r.Relationship,
		IsPrimary:    r.IsPrimary,
	}
}

// CreateCaregiver adds an alert contact for the current user.
func (h *Handlers) CreateCaregiver(c *gin.Context) {
	var req CaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, phone and relationship are required")
		return
	}

	cg, err := h.cgSvc.Create(c.Request.Context(), userID(c), req.input())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, cg)
}

// ListCaregivers returns the user's caregivers, primary first.
func (h *Handlers) ListCaregivers(c *gin.Context) {
	items, err := h.cgSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCaregiversResponse{Caregivers: items})
}

// UpdateCaregiver overwrites the user-editable fields of a caregiver.
func (h *Handlers) UpdateCaregiver(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "caregiver id must be a UUID")
		return
	}

	var req CaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, phone and relationship are required")
		return
	}

	cg, err := h.cgSvc.Update(c.Request.Context(), userID(c), id, req.input())
	if err != nil {
		if err == services.ErrCaregiverNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "caregiver not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, cg)
}

// DeleteCaregiver removes a caregiver from the alert list.
func (h *Handlers) DeleteCaregiver(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "caregiver id must be a UUID")
		return
	}

	if err := h.cgSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		if err == services.ErrCaregiverNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "caregiver not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
