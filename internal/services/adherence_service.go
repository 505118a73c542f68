// Package services – AdherenceService
//
// Fetches a user's dose history over the trailing window and computes the
// adherence score. The fetch failure mode is deliberately distinct from an
// empty history: no logs means a perfect score, an unreachable store means
// ErrAdherenceUnavailable, never a fabricated 100.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/adherence"
	"github.com/mediminder/mediminder-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AdherenceService computes adherence scores from persisted dose logs.
type AdherenceService struct {
	DB *gorm.DB

	// Window is the trailing period considered for scoring.
	Window time.Duration

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// Score fetches the user's dose logs within the window and computes the
// adherence score. Returns ErrAdherenceUnavailable on fetch failure.
func (s *AdherenceService) Score(ctx context.Context, userID string) (adherence.Score, error) {
	tr := otel.Tracer("services/AdherenceService")
	ctx, span := tr.Start(ctx, "Score",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	window := s.Window
	if window <= 0 {
		window = adherence.Window
	}

	logs, err := repo.ListDoseLogsSince(ctx, s.DB, userID, now.Add(-window))
	if err != nil {
		span.RecordError(err)
		return adherence.Score{}, ErrAdherenceUnavailable
	}

	score := adherence.Compute(userID, logs, now, window)
	span.SetAttributes(
		attribute.Int("adherence.score", score.Score),
		attribute.String("adherence.risk_level", score.RiskLevel),
	)
	return score, nil
}
