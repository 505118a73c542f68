package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/repo"
)

// CaregiverInput carries the user-editable fields of a caregiver contact.
type CaregiverInput struct {
	Name         string
	Phone        string
	Email        string
	Relationship string
	IsPrimary    bool
}

// CaregiverService manages the alert addressee list. It maintains the
// invariant that at most one caregiver per user is primary.
type CaregiverService struct {
	DB *gorm.DB
}

// Create inserts a new caregiver. Promoting it to primary demotes any
// existing primary in the same transaction.
func (s *CaregiverService) Create(ctx context.Context, userID string, in CaregiverInput) (*domain.Caregiver, error) {
	c := &domain.Caregiver{
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        strings.TrimSpace(in.Email),
		Relationship: strings.TrimSpace(in.Relationship),
		IsPrimary:    in.IsPrimary,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.IsPrimary {
			if err := repo.ClearPrimary(ctx, tx, userID); err != nil {
				return err
			}
		}
		_, err := repo.CreateCaregiver(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the user's caregivers, primary first.
func (s *CaregiverService) List(ctx context.Context, userID string) ([]domain.Caregiver, error) {
	return repo.ListCaregivers(ctx, s.DB, userID)
}

// Update overwrites the user-editable fields, preserving the single-primary
// invariant when the update promotes this caregiver.
func (s *CaregiverService) Update(ctx context.Context, userID, id string, in CaregiverInput) (*domain.Caregiver, error) {
	fields := map[string]any{
		"name":         strings.TrimSpace(in.Name),
		"phone":        strings.TrimSpace(in.Phone),
		"email":        strings.TrimSpace(in.Email),
		"relationship": strings.TrimSpace(in.Relationship),
		"is_primary":   in.IsPrimary,
		"updated_at":   time.Now().UTC(),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsPrimary {
			if err := repo.ClearPrimary(ctx, tx, userID); err != nil {
				return err
			}
		}
		return repo.UpdateCaregiver(ctx, tx, id, userID, fields)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaregiverNotFound
		}
		return nil, err
	}
	return repo.GetCaregiver(ctx, s.DB, id, userID)
}

// Delete removes a caregiver from the alert list.
func (s *CaregiverService) Delete(ctx context.Context, userID, id string) error {
	if err := repo.DeleteCaregiver(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaregiverNotFound
		}
		return err
	}
	return nil
}
