package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/observability"
	"github.com/kursadbilgin/club-notifier/internal/provider"
	"github.com/kursadbilgin/club-notifier/internal/ratelimit"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	customRateLimitKind   = "custom"
	minDeliverConcurrency = 1
	maxBatchAudienceSize  = 10000
)

// BatchService sends one-off custom notices to a chosen audience and tracks
// per-recipient acknowledgment. The text of a batch is frozen at creation;
// resends reuse the stored rows verbatim.
type BatchService struct {
	recipients    repository.RecipientRepository
	notifications repository.NotificationRepository
	provider      provider.Provider
	rateLimiter   ratelimit.RateLimiter
	logger        *zap.Logger
	metrics       *observability.Metrics
	concurrency   int
	now           func() time.Time
}

// BatchResult reports one delivery pass over a batch.
type BatchResult struct {
	BatchID   string
	Attempted int
	Delivered int
	Failed    int
}

func NewBatchService(
	recipients repository.RecipientRepository,
	notifications repository.NotificationRepository,
	deliveryProvider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*BatchService, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
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

	return &BatchService{
		recipients:    recipients,
		notifications: notifications,
		provider:      deliveryProvider,
		rateLimiter:   rateLimiter,
		logger:        logger,
		concurrency:   concurrency,
		now:           time.Now,
	}, nil
}

func (s *BatchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SendBatch creates one notification row per audience recipient and attempts
// delivery for each. An empty externalIDs slice targets every active
// recipient; otherwise rows are created for the listed ids, registering
// unknown ids on the fly. Rows persist regardless of delivery outcome so a
// later resend can pick up the failures.
func (s *BatchService) SendBatch(ctx context.Context, text string, externalIDs []int64) (*BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := domain.ValidateNotificationContent(text); err != nil {
		return nil, err
	}

	audience, err := s.resolveAudience(ctx, externalIDs)
	if err != nil {
		return nil, err
	}
	if len(audience) == 0 {
		return nil, fmt.Errorf("%w: batch audience is empty", domain.ErrValidation)
	}

	batchID := uuid.NewString()
	sentAt := s.now().UTC()

	rows := make([]*domain.CustomNotification, 0, len(audience))
	externalByNotification := make(map[string]int64, len(audience))
	for i := range audience {
		recipient := audience[i]
		row := &domain.CustomNotification{
			ID:          uuid.NewString(),
			RecipientID: recipient.ID,
			BatchID:     batchID,
			Content:     text,
			SentAt:      sentAt,
		}
		rows = append(rows, row)
		externalByNotification[row.ID] = recipient.ExternalID
	}

	if err := s.notifications.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to persist batch: %w", err)
	}

	result := s.deliver(ctx, batchID, rows, externalByNotification)

	s.logger.Info("batch sent",
		zap.String("batchId", batchID),
		zap.Int("attempted", result.Attempted),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// ResendUnacknowledged re-delivers every unacknowledged notification of a
// batch with its original id and text. Acknowledged recipients are skipped.
func (s *BatchService) ResendUnacknowledged(ctx context.Context, batchID string) (*BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := uuid.Parse(batchID); err != nil {
		return nil, fmt.Errorf("%w: invalid batch id %q", domain.ErrValidation, batchID)
	}

	if _, err := s.notifications.GetBatchSummary(ctx, batchID); err != nil {
		return nil, err
	}

	pending, err := s.notifications.ListUnacknowledged(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unacknowledged notifications: %w", err)
	}

	rows := make([]*domain.CustomNotification, 0, len(pending))
	externalByNotification := make(map[string]int64, len(pending))
	for i := range pending {
		row := &pending[i]

		recipient, err := s.recipients.GetByID(ctx, row.RecipientID)
		if err != nil {
			s.logger.Warn("skipping resend for unknown recipient",
				zap.String("notificationId", row.ID),
				zap.String("recipientId", row.RecipientID),
				zap.Error(err),
			)
			continue
		}

		rows = append(rows, row)
		externalByNotification[row.ID] = recipient.ExternalID
	}

	result := s.deliver(ctx, batchID, rows, externalByNotification)

	s.logger.Info("batch resent",
		zap.String("batchId", batchID),
		zap.Int("attempted", result.Attempted),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// Acknowledge marks one custom notification acknowledged. Wrong-recipient or
// repeated acknowledgments report false without error.
func (s *BatchService) Acknowledge(ctx context.Context, recipientID string, notificationID string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	acknowledged, err := s.notifications.Acknowledge(ctx, recipientID, notificationID)
	if err != nil {
		return false, err
	}
	if !acknowledged {
		s.logger.Debug("custom acknowledgment ignored",
			zap.String("recipientId", recipientID),
			zap.String("notificationId", notificationID),
		)
	}

	return acknowledged, nil
}

// GetBatchSummary returns aggregate acknowledgment state for one batch.
func (s *BatchService) GetBatchSummary(ctx context.Context, batchID string) (*repository.BatchSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := uuid.Parse(batchID); err != nil {
		return nil, fmt.Errorf("%w: invalid batch id %q", domain.ErrValidation, batchID)
	}

	return s.notifications.GetBatchSummary(ctx, batchID)
}

// ListBatches pages through batch summaries, newest first.
func (s *BatchService) ListBatches(ctx context.Context, page int, pageSize int) (*repository.BatchListPage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	return s.notifications.ListBatchSummaries(ctx, page, pageSize)
}

func (s *BatchService) resolveAudience(ctx context.Context, externalIDs []int64) ([]domain.Recipient, error) {
	if len(externalIDs) == 0 {
		return s.recipients.ListActive(ctx)
	}
	if len(externalIDs) > maxBatchAudienceSize {
		return nil, fmt.Errorf("%w: audience exceeds %d recipients", domain.ErrValidation, maxBatchAudienceSize)
	}

	seen := make(map[int64]struct{}, len(externalIDs))
	audience := make([]domain.Recipient, 0, len(externalIDs))
	for _, externalID := range externalIDs {
		if externalID <= 0 {
			return nil, fmt.Errorf("%w: external id must be positive", domain.ErrValidation)
		}
		if _, ok := seen[externalID]; ok {
			continue
		}
		seen[externalID] = struct{}{}

		recipient, err := s.recipients.GetOrCreate(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipient %d: %w", externalID, err)
		}
		audience = append(audience, *recipient)
	}

	return audience, nil
}

func (s *BatchService) deliver(
	ctx context.Context,
	batchID string,
	rows []*domain.CustomNotification,
	externalByNotification map[string]int64,
) *BatchResult {
	var delivered, failed atomic.Int64

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range rows {
		row := rows[i]
		g.Go(func() error {
			externalID := externalByNotification[row.ID]

			if err := s.rateLimiter.Wait(groupCtx, customRateLimitKind); err != nil {
				failed.Add(1)
				return nil
			}

			sendStart := s.now()
			_, err := s.provider.Send(groupCtx, externalID, row.Content, domain.CustomAckToken(row.ID))
			s.metrics.ObserveSendDuration(customRateLimitKind, s.now().Sub(sendStart))

			if err != nil {
				failed.Add(1)
				s.metrics.IncDeliveryFailed(customRateLimitKind)
				s.logger.Warn("custom notification delivery failed",
					zap.String("batchId", batchID),
					zap.String("notificationId", row.ID),
					zap.Int64("externalId", externalID),
					zap.Bool("transient", provider.IsTransient(err)),
					zap.Error(err),
				)
				return nil
			}

			delivered.Add(1)
			s.metrics.IncSent(customRateLimitKind)
			return nil
		})
	}

	_ = g.Wait()

	return &BatchResult{
		BatchID:   batchID,
		Attempted: len(rows),
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}
}
