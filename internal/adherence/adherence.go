// Package adherence computes medication adherence scores over a trailing
// window of dose logs. The computation is a pure function of the log snapshot
// passed in; fetching and window filtering are performed by the caller (see
// services.AdherenceService), which keeps this package trivially testable.
package adherence

import (
	"math"
	"time"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// Window is the default trailing period over which adherence is evaluated.
const Window = 30 * 24 * time.Hour

// Risk tiers derived from the score.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// Score is the derived, non-persisted adherence result. It has no identity
// of its own; it is recomputed on demand from the dose-log snapshot.
type Score struct {
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	TotalDoses  int       `json:"total_doses"`
	TakenDoses  int       `json:"taken_doses"`
	MissedDoses int       `json:"missed_doses"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	RiskLevel   string    `json:"risk_level"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Compute derives an adherence score from logs over the window ending at now.
//
// Rules:
//   - total counts every log; taken/missed count only their statuses, so
//     pending and skipped doses lower the score without counting as missed.
//   - score = round(taken/total*100), half rounded up; an empty history is
//     treated as perfect adherence (100), not as undefined.
//   - risk: score < 50 high, score < 80 moderate, otherwise low. The
//     boundaries are inclusive: exactly 50 is moderate, exactly 80 is low.
//
// The caller is expected to pass logs already scoped to one user and to
// scheduled_time >= now - window.
func Compute(userID string, logs []domain.DoseLog, now time.Time, window time.Duration) Score {
	if window <= 0 {
		window = Window
	}

	var taken, missed int
	for _, l := range logs {
		switch l.Status {
		case domain.DoseStatusTaken:
			taken++
		case domain.DoseStatusMissed:
			missed++
		}
	}

	total := len(logs)
	score := 100
	if total > 0 {
		score = int(math.Round(float64(taken) / float64(total) * 100))
	}

	risk := RiskLow
	switch {
	case score < 50:
		risk = RiskHigh
	case score < 80:
		risk = RiskModerate
	}

	return Score{
		UserID:      userID,
		Score:       score,
		TotalDoses:  total,
		TakenDoses:  taken,
		MissedDoses: missed,
		PeriodStart: now.Add(-window),
		PeriodEnd:   now,
		RiskLevel:   risk,
		UpdatedAt:   now,
	}
}
