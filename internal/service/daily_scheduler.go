package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kursadbilgin/club-notifier/internal/repository"
	"go.uber.org/zap"
)

// SweepRunner runs one full reminder sweep.
type SweepRunner interface {
	Run(ctx context.Context) error
}

// DailyScheduler fires the reminder sweep once a day at a configured
// hour:minute in the service timezone. The fire time is persisted, survives
// restarts, and can be replaced at runtime; a pending timer is dropped
// atomically when the time changes.
type DailyScheduler struct {
	schedule repository.ScheduleRepository
	sweep    SweepRunner
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	hour       int
	minute     int
	reschedule chan struct{}
}

func NewDailyScheduler(
	schedule repository.ScheduleRepository,
	sweep SweepRunner,
	location *time.Location,
	logger *zap.Logger,
) (*DailyScheduler, error) {
	if schedule == nil {
		return nil, fmt.Errorf("schedule repository is required")
	}
	if sweep == nil {
		return nil, fmt.Errorf("sweep runner is required")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DailyScheduler{
		schedule:   schedule,
		sweep:      sweep,
		location:   location,
		logger:     logger,
		now:        time.Now,
		reschedule: make(chan struct{}, 1),
	}, nil
}

// Start loads the persisted fire time and loops until context cancellation.
func (s *DailyScheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	hour, minute, err := s.schedule.GetSweepTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sweep time: %w", err)
	}

	s.mu.Lock()
	s.hour, s.minute = hour, minute
	s.mu.Unlock()

	s.logger.Info("daily scheduler started",
		zap.Int("hour", hour),
		zap.Int("minute", minute),
		zap.String("timezone", s.location.String()),
	)

	for {
		timer := time.NewTimer(s.untilNextFire())

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-s.reschedule:
			timer.Stop()
			continue
		case <-timer.C:
		}

		if err := s.sweep.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("scheduled sweep finished with errors", zap.Error(err))
		}
	}
}

// Reschedule persists a new daily fire time and replaces any pending timer.
// The old schedule never fires again once this returns.
func (s *DailyScheduler) Reschedule(ctx context.Context, hour int, minute int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.schedule.SetSweepTime(ctx, hour, minute); err != nil {
		return err
	}

	s.mu.Lock()
	s.hour, s.minute = hour, minute
	s.mu.Unlock()

	select {
	case s.reschedule <- struct{}{}:
	default:
	}

	s.logger.Info("sweep rescheduled",
		zap.Int("hour", hour),
		zap.Int("minute", minute),
	)

	return nil
}

// SweepTime returns the currently scheduled fire time.
func (s *DailyScheduler) SweepTime() (hour int, minute int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hour, s.minute
}

func (s *DailyScheduler) untilNextFire() time.Duration {
	s.mu.Lock()
	hour, minute := s.hour, s.minute
	s.mu.Unlock()

	now := s.now().In(s.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}
