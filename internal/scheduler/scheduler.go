// Package scheduler runs background maintenance jobs on a cron schedule.
// Its single job today is the missed-dose sweep: pending dose logs whose
// scheduled time plus the grace period has passed are transitioned to missed,
// so adherence scores degrade without requiring users to confess a miss.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/repo"
)

// Scheduler owns the cron runner and the sweep configuration.
type Scheduler struct {
	DB    *gorm.DB
	Spec  string
	Grace time.Duration

	cron *cron.Cron
}

// New constructs a Scheduler. Spec uses the standard 5-field cron syntax.
func New(db *gorm.DB, spec string, grace time.Duration) *Scheduler {
	return &Scheduler{DB: db, Spec: spec, Grace: grace}
}

// Start registers the sweep job and launches the cron runner. Returns an
// error only when the cron expression does not parse.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("spec", s.Spec).Dur("grace", s.Grace).Msg("missed-dose sweep scheduled")
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := repo.SweepMissed(ctx, s.DB, time.Now().UTC(), s.Grace)
	if err != nil {
		log.Error().Err(err).Msg("missed-dose sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("swept", n).Msg("pending doses marked missed")
	}
}
