package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// CreateDoseLog inserts a new dose log row. Status defaults to pending when
// left empty.
func CreateDoseLog(ctx context.Context, db *gorm.DB, d *domain.DoseLog) (*domain.DoseLog, error) {
	d.ID = uuid.NewString()
	if d.Status == "" {
		d.Status = domain.DoseStatusPending
	}
	d.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDoseLog fetches a dose log by ID and owner.
func GetDoseLog(ctx context.Context, db *gorm.DB, id, userID string) (*domain.DoseLog, error) {
	var d domain.DoseLog
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDoseLogs returns the user's dose logs scheduled within [from, to),
// oldest first. An optional medicineID narrows the result to one medicine.
func ListDoseLogs(ctx context.Context, db *gorm.DB, userID string, from, to time.Time, medicineID string) ([]domain.DoseLog, error) {
	q := db.WithContext(ctx).
		Where("user_id = ? AND scheduled_time >= ? AND scheduled_time < ?", userID, from, to)
	if medicineID != "" {
		q = q.Where("medicine_id = ?", medicineID)
	}
	var out []domain.DoseLog
	err := q.Order("scheduled_time asc").Find(&out).Error
	return out, err
}

// ListDoseLogsSince returns every dose log for userID scheduled at or after
// the cutoff. Used for adherence scoring over a trailing window.
func ListDoseLogsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.DoseLog, error) {
	var out []domain.DoseLog
	err := db.WithContext(ctx).
		Where("user_id = ? AND scheduled_time >= ?", userID, since).
		Order("scheduled_time asc").
		Find(&out).Error
	return out, err
}

// UpdateDoseStatus records the single lifecycle transition of a dose log.
// Only rows still pending are eligible; the update also enforces ownership.
// takenTime is persisted only for the taken status. Returns ErrNotFound when
// the row does not exist, is not owned by userID, or already left pending.
func UpdateDoseStatus(ctx context.Context, db *gorm.DB, id, userID, status string, takenTime *time.Time, notes string) error {
	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == domain.DoseStatusTaken {
		fields["taken_time"] = takenTime
	}
	if notes != "" {
		fields["notes"] = notes
	}
	res := db.WithContext(ctx).
		Model(&domain.DoseLog{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.DoseStatusPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SweepMissed marks every pending dose whose scheduled time plus grace has
// elapsed as missed. Returns the number of rows transitioned. Runs across
// all users; the scheduler invokes it periodically.
func SweepMissed(ctx context.Context, db *gorm.DB, now time.Time, grace time.Duration) (int64, error) {
	cutoff := now.Add(-grace)
	res := db.WithContext(ctx).
		Model(&domain.DoseLog{}).
		Where("status = ? AND scheduled_time < ?", domain.DoseStatusPending, cutoff).
		Updates(map[string]any{
			"status":     domain.DoseStatusMissed,
			"updated_at": now.UTC(),
		})
	return res.RowsAffected, res.Error
}
