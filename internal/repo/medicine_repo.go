// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Medicine
// model. All functions are context-aware, accept a *gorm.DB handle (safe for
// use within transactions), and contain no business logic.
//
// Error semantics: a missing medicine surfaces as gorm.ErrRecordNotFound
// (exported here as ErrNotFound); other DB errors are propagated raw.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateMedicine inserts a new Medicine row owned by userID. The ID is a
// generated UUID and CreatedAt is set to UTC.
func CreateMedicine(ctx context.Context, db *gorm.DB, m *domain.Medicine) (*domain.Medicine, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMedicines returns all medicines belonging to userID, most recent first.
func ListMedicines(ctx context.Context, db *gorm.DB, userID string) ([]domain.Medicine, error) {
	var out []domain.Medicine
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetMedicine fetches a single medicine by ID and owner. Returns ErrNotFound
// when missing or owned by someone else.
func GetMedicine(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Medicine, error) {
	var m domain.Medicine
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMedicine persists the mutable fields of an existing medicine,
// enforcing ownership. Returns ErrNotFound when no row was touched.
func UpdateMedicine(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Medicine{}).
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

// DeleteMedicine soft-deletes a medicine owned by userID. Dose history is
// retained. Returns ErrNotFound when no row was touched.
func DeleteMedicine(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Medicine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
