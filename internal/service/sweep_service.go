package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/observability"
	"github.com/kursadbilgin/club-notifier/internal/provider"
	"github.com/kursadbilgin/club-notifier/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reminderRateLimitKind = "reminder"

// SweepService runs one delivery pass over every reminder type: find the due
// recipients, send each a reminder with an ack token, and reopen the tracker
// row. A failure in one type's sweep does not stop the others.
type SweepService struct {
	reminders   *ReminderService
	provider    provider.Provider
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	duesAmount  int
	vpnAmount   int
	concurrency int
	now         func() time.Time
}

func NewSweepService(
	reminders *ReminderService,
	deliveryProvider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	duesAmount int,
	vpnAmount int,
	concurrency int,
	logger *zap.Logger,
) (*SweepService, error) {
	if reminders == nil {
		return nil, fmt.Errorf("reminder service is required")
	}
	if deliveryProvider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if concurrency < minDeliverConcurrency {
		concurrency = minDeliverConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SweepService{
		reminders:   reminders,
		provider:    deliveryProvider,
		rateLimiter: rateLimiter,
		logger:      logger,
		duesAmount:  duesAmount,
		vpnAmount:   vpnAmount,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (s *SweepService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Run sweeps every reminder type in order. Errors are collected per type so
// a broken dues query still lets the vpn sweep proceed.
func (s *SweepService) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var sweepErrs []error
	for _, t := range domain.ReminderTypes() {
		if ctx.Err() != nil {
			break
		}

		if err := s.sweepType(ctx, t); err != nil {
			s.logger.Error("reminder sweep failed",
				zap.String("type", t.String()),
				zap.Error(err),
			)
			sweepErrs = append(sweepErrs, fmt.Errorf("sweep %s: %w", t, err))
		}
	}

	return errors.Join(sweepErrs...)
}

func (s *SweepService) sweepType(ctx context.Context, t domain.ReminderType) error {
	sweepStart := s.now()

	due, err := s.reminders.Due(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to fetch due recipients: %w", err)
	}

	s.metrics.AddSweepDue(t.String(), len(due))

	text := s.reminderText(t)
	token := domain.ReminderAckToken(t)

	var delivered, failed atomic.Int64

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range due {
		recipient := due[i]
		g.Go(func() error {
			if err := s.rateLimiter.Wait(groupCtx, reminderRateLimitKind); err != nil {
				failed.Add(1)
				return nil
			}

			sendStart := s.now()
			_, sendErr := s.provider.Send(groupCtx, recipient.ExternalID, text, token)
			s.metrics.ObserveSendDuration(reminderRateLimitKind, s.now().Sub(sendStart))

			if sendErr != nil {
				failed.Add(1)
				s.metrics.IncDeliveryFailed(reminderRateLimitKind)
				s.logger.Warn("reminder delivery failed",
					zap.String("type", t.String()),
					zap.Int64("externalId", recipient.ExternalID),
					zap.Bool("transient", provider.IsTransient(sendErr)),
					zap.Error(sendErr),
				)
			} else {
				delivered.Add(1)
				s.metrics.IncSent(reminderRateLimitKind)
			}

			// The tracker row is reopened even when delivery fails, so a
			// failed recipient stays due until they acknowledge.
			if err := s.reminders.MarkSent(groupCtx, recipient.ID, t, s.now().UTC()); err != nil {
				s.logger.Error("failed to record reminder send",
					zap.String("type", t.String()),
					zap.String("recipientId", recipient.ID),
					zap.Error(err),
				)
			}

			return nil
		})
	}

	_ = g.Wait()

	s.metrics.ObserveSweepDuration(t.String(), s.now().Sub(sweepStart))

	s.logger.Info("reminder sweep finished",
		zap.String("type", t.String()),
		zap.Int("due", len(due)),
		zap.Int64("delivered", delivered.Load()),
		zap.Int64("failed", failed.Load()),
	)

	return nil
}

func (s *SweepService) reminderText(t domain.ReminderType) string {
	switch t {
	case domain.ReminderDues:
		return fmt.Sprintf("Monthly club dues of %d are waiting for payment. Confirm once paid.", s.duesAmount)
	case domain.ReminderVPN:
		return fmt.Sprintf("Your VPN access fee of %d is due. Confirm once paid.", s.vpnAmount)
	default:
		return "You have a pending payment. Confirm once paid."
	}
}
