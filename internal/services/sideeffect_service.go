package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/repo"
)

// SideEffectService exposes the triage history persisted by MessageService.
type SideEffectService struct {
	DB *gorm.DB
}

// List returns the user's side-effect reports, newest first, optionally
// filtered by severity.
func (s *SideEffectService) List(ctx context.Context, userID, severity string, limit int) ([]domain.SideEffect, error) {
	if severity != "" {
		switch severity {
		case domain.SeverityMild, domain.SeverityModerate, domain.SeveritySevere:
		default:
			return nil, ErrInvalidSeverity
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return repo.ListSideEffects(ctx, s.DB, userID, severity, limit)
}
