package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/observability"
	"github.com/kursadbilgin/club-notifier/internal/queue"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"go.uber.org/zap"
)

// AckWorker consumes acknowledgment callbacks from the acks queue and routes
// each token to the reminder tracker or the custom notification it belongs
// to. Malformed tokens are dropped; transient storage errors requeue.
type AckWorker struct {
	consumer   queue.Consumer
	recipients repository.RecipientRepository
	reminders  *ReminderService
	batches    *BatchService
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func NewAckWorker(
	consumer queue.Consumer,
	recipients repository.RecipientRepository,
	reminders *ReminderService,
	batches *BatchService,
	logger *zap.Logger,
) (*AckWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	if reminders == nil {
		return nil, fmt.Errorf("reminder service is required")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AckWorker{
		consumer:   consumer,
		recipients: recipients,
		reminders:  reminders,
		batches:    batches,
		logger:     logger,
	}, nil
}

func (w *AckWorker) SetMetrics(metrics *observability.Metrics) {
	w.metrics = metrics
}

// Start consumes the acks queue until context cancellation.
func (w *AckWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	w.logger.Info("ack worker started", zap.String("queue", queue.AcksQueueName))

	return w.consumer.Consume(ctx, queue.AcksQueueName, w.processMessage)
}

func (w *AckWorker) processMessage(ctx context.Context, msg queue.AckMessage) error {
	ack, err := domain.ParseAckToken(msg.Token)
	if err != nil {
		w.logger.Warn("dropping malformed ack token",
			zap.Int64("externalId", msg.RecipientExternalID),
			zap.String("token", msg.Token),
			zap.Error(err),
		)
		return nil
	}

	recipient, err := w.recipients.GetOrCreate(ctx, msg.RecipientExternalID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %d: %w", msg.RecipientExternalID, err)
	}

	switch ack.Kind {
	case domain.AckReminder:
		if err := w.reminders.Acknowledge(ctx, recipient.ID, ack.ReminderType); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				w.logger.Warn("dropping reminder ack with invalid type",
					zap.String("token", msg.Token),
					zap.Error(err),
				)
				return nil
			}
			return fmt.Errorf("failed to acknowledge reminder: %w", err)
		}
		w.metrics.IncAck(reminderRateLimitKind)

	case domain.AckCustom:
		acknowledged, err := w.batches.Acknowledge(ctx, recipient.ID, ack.NotificationID)
		if err != nil {
			return fmt.Errorf("failed to acknowledge custom notification: %w", err)
		}
		if acknowledged {
			w.metrics.IncAck(customRateLimitKind)
		}

	default:
		w.logger.Warn("dropping ack with unknown kind",
			zap.String("token", msg.Token),
		)
	}

	return nil
}
