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

// MedicineInput carries the user-editable fields of a prescription.
type MedicineInput struct {
	Name         string
	Dosage       string
	Frequency    int
	StartDate    time.Time
	EndDate      *time.Time
	Instructions string
}

// MedicineService manages the prescription list. Validation is minimal here;
// structural checks (required fields, bounds) happen at the handler binding.
type MedicineService struct {
	DB *gorm.DB
}

// Create inserts a new medicine owned by userID.
func (s *MedicineService) Create(ctx context.Context, userID string, in MedicineInput) (*domain.Medicine, error) {
	m := &domain.Medicine{
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    in.Frequency,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Instructions: strings.TrimSpace(in.Instructions),
	}
	return repo.CreateMedicine(ctx, s.DB, m)
}

// List returns the user's medicines.
func (s *MedicineService) List(ctx context.Context, userID string) ([]domain.Medicine, error) {
	return repo.ListMedicines(ctx, s.DB, userID)
}

// Get fetches one medicine, enforcing ownership.
func (s *MedicineService) Get(ctx context.Context, userID, id string) (*domain.Medicine, error) {
	m, err := repo.GetMedicine(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}
	return m, nil
}

// Update overwrites the user-editable fields of an existing medicine.
func (s *MedicineService) Update(ctx context.Context, userID, id string, in MedicineInput) (*domain.Medicine, error) {
	fields := map[string]any{
		"name":         strings.TrimSpace(in.Name),
		"dosage":       strings.TrimSpace(in.Dosage),
		"frequency":    in.Frequency,
		"start_date":   in.StartDate,
		"end_date":     in.EndDate,
		"instructions": strings.TrimSpace(in.Instructions),
		"updated_at":   time.Now().UTC(),
	}
	if err := repo.UpdateMedicine(ctx, s.DB, id, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}
	return repo.GetMedicine(ctx, s.DB, id, userID)
}

// Delete soft-removes a medicine. Dose history survives removal.
func (s *MedicineService) Delete(ctx context.Context, userID, id string) error {
	if err := repo.DeleteMedicine(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMedicineNotFound
		}
		return err
	}
	return nil
}
