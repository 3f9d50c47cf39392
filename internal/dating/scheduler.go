package dating

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	service     Service
	refreshHour int
	logger      zerolog.Logger
}

func NewScheduler(service Service, refreshHour int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		service:     service,
		refreshHour: refreshHour,
		logger:      logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	// Nightly score card recomputation
	go s.runDaily(ctx, "refresh_score_cards", s.refreshHour, 0, s.service.RefreshScoreCards)
}

func (s *Scheduler) runDaily(ctx context.Context, name string, hour, minute int, task func(context.Context) error) {
	for {
		now := time.Now()
		timer := time.NewTimer(nextRun(now, hour, minute).Sub(now))

		select {
		case <-timer.C:
			s.logger.Info().Str("task", name).Msg("Running scheduled task")
			if err := task(ctx); err != nil {
				s.logger.Error().Err(err).Str("task", name).Msg("Scheduled task failed")
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextRun is the next wall-clock hour:minute strictly after now
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
