package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"pv_forecast/internal/logger"
	"pv_forecast/internal/repository"
)

const (
	defaultPruneEvery = time.Hour
	pruneTimeout      = 30 * time.Second
)

// RetentionService periodically deletes site events older than the
// retention window. A zero retention keeps events forever.
type RetentionService struct {
	scheduler  *gocron.Scheduler
	eventRepo  repository.EventRepo
	retention  time.Duration
	pruneEvery time.Duration
	log        *logger.Logger

	now func() time.Time
}

func NewRetentionService(eventRepo repository.EventRepo, retention, pruneEvery time.Duration, log *logger.Logger) *RetentionService {
	return &RetentionService{
		scheduler:  gocron.NewScheduler(time.UTC),
		eventRepo:  eventRepo,
		retention:  retention,
		pruneEvery: pruneEvery,
		log:        log,
		now:        time.Now,
	}
}

// Start schedules the prune job and starts the underlying scheduler.
func (s *RetentionService) Start() error {
	if s.retention <= 0 {
		s.log.Infow("event_retention_disabled")
		return nil
	}

	minutes := int(s.pruneEvery.Minutes())
	if minutes <= 0 {
		minutes = int(defaultPruneEvery.Minutes())
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		if _, err := s.PruneNow(ctx); err != nil {
			s.log.Errorw("event_prune_failed", "err", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Infow("event_retention_started", "retention", s.retention, "every_minutes", minutes)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *RetentionService) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// PruneNow deletes events older than the retention window.
func (s *RetentionService) PruneNow(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.eventRepo.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infow("events_pruned", "count", n, "before", cutoff)
	}
	return n, nil
}
