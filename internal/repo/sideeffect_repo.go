package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// CreateSideEffect persists one triaged side-effect report.
func CreateSideEffect(ctx context.Context, db *gorm.DB, se *domain.SideEffect) (*domain.SideEffect, error) {
	se.ID = uuid.NewString()
	se.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(se).Error; err != nil {
		return nil, err
	}
	return se, nil
}

// ListSideEffects returns the user's side-effect reports, newest first.
// An optional severity filter narrows the result.
func ListSideEffects(ctx context.Context, db *gorm.DB, userID, severity string, limit int) ([]domain.SideEffect, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if severity != "" {
		q = q.Where("severity = ?", severity)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.SideEffect
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}
