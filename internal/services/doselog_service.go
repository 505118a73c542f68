package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DoseLogService owns dose scheduling and the single status transition a
// dose log goes through after creation.
type DoseLogService struct {
	DB *gorm.DB
}

// Schedule inserts a pending dose log for one of the user's medicines.
func (s *DoseLogService) Schedule(ctx context.Context, userID, medicineID string, scheduledTime time.Time) (*domain.DoseLog, error) {
	tr := otel.Tracer("services/DoseLogService")
	ctx, span := tr.Start(ctx, "Schedule",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("medicine.id", medicineID),
		),
	)
	defer span.End()

	// The medicine must exist and belong to the user.
	if _, err := repo.GetMedicine(ctx, s.DB, medicineID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}

	return repo.CreateDoseLog(ctx, s.DB, &domain.DoseLog{
		UserID:        userID,
		MedicineID:    medicineID,
		ScheduledTime: scheduledTime.UTC(),
	})
}

// List returns the user's dose logs scheduled within [from, to), optionally
// narrowed to one medicine.
func (s *DoseLogService) List(ctx context.Context, userID string, from, to time.Time, medicineID string) ([]domain.DoseLog, error) {
	return repo.ListDoseLogs(ctx, s.DB, userID, from, to, medicineID)
}

// Log records the lifecycle transition of a pending dose. Allowed targets are
// taken, missed, and skipped; taken stamps the intake time. A dose that has
// already left pending returns ErrDoseAlreadyLogged.
func (s *DoseLogService) Log(ctx context.Context, userID, doseID, status string, takenTime *time.Time, notes string) (*domain.DoseLog, error) {
	tr := otel.Tracer("services/DoseLogService")
	ctx, span := tr.Start(ctx, "Log",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("dose.id", doseID),
			attribute.String("dose.status", status),
		),
	)
	defer span.End()

	switch status {
	case domain.DoseStatusTaken, domain.DoseStatusMissed, domain.DoseStatusSkipped:
	default:
		return nil, ErrInvalidDoseStatus
	}

	if status == domain.DoseStatusTaken && takenTime == nil {
		now := time.Now().UTC()
		takenTime = &now
	}

	if err := repo.UpdateDoseStatus(ctx, s.DB, doseID, userID, status, takenTime, notes); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Distinguish "no such dose" from "already transitioned".
		if _, gerr := repo.GetDoseLog(ctx, s.DB, doseID, userID); gerr != nil {
			return nil, ErrDoseNotFound
		}
		return nil, ErrDoseAlreadyLogged
	}
	return repo.GetDoseLog(ctx, s.DB, doseID, userID)
}
