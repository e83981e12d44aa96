// Package jobs runs recurring background maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/services"
)

// Scheduler runs periodic maintenance tasks on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sessions *services.SessionService
	logger   zerolog.Logger
}

// NewScheduler creates a new Scheduler
func NewScheduler(sessions *services.SessionService, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		logger:   logger,
	}
}

// Start registers the expired-token purge and starts the cron loop.
// Expired token rows are already dead for authentication; the purge only
// reclaims storage.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deleted, err := s.sessions.CleanupExpired(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Expired token cleanup failed")
			return
		}
		if deleted > 0 {
			s.logger.Info().Int64("deleted", deleted).Msg("Expired token cleanup finished")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register token cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Background scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
