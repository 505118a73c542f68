package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// CreateCaregiver inserts a new caregiver contact for userID.
func CreateCaregiver(ctx context.Context, db *gorm.DB, c *domain.Caregiver) (*domain.Caregiver, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListCaregivers returns the user's caregivers with the primary contact first.
func ListCaregivers(ctx context.Context, db *gorm.DB, userID string) ([]domain.Caregiver, error) {
	var out []domain.Caregiver
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary desc, created_at asc").
		Find(&out).Error
	return out, err
}

// GetCaregiver fetches a caregiver by ID and owner.
func GetCaregiver(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Caregiver, error) {
	var c domain.Caregiver
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ClearPrimary demotes every primary caregiver of userID. Called inside the
// same transaction that promotes a new primary, preserving the invariant of
// at most one primary per user.
func ClearPrimary(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).
		Model(&domain.Caregiver{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Update("is_primary", false).Error
}

// UpdateCaregiver persists the given mutable fields, enforcing ownership.
func UpdateCaregiver(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Caregiver{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCaregiver soft-deletes a caregiver owned by userID.
func DeleteCaregiver(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Caregiver{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
