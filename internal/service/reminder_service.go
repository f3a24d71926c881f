package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"go.uber.org/zap"
)

// ReminderService tracks per-(recipient, type) reminder state. A recipient
// with no tracker row is due; acknowledging closes the cycle until the next
// send reopens it.
type ReminderService struct {
	reminders repository.ReminderRepository
	logger    *zap.Logger
}

func NewReminderService(reminders repository.ReminderRepository, logger *zap.Logger) (*ReminderService, error) {
	if reminders == nil {
		return nil, fmt.Errorf("reminder repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderService{
		reminders: reminders,
		logger:    logger,
	}, nil
}

// Due returns active, opted-in recipients whose reminder of the given type
// is unacknowledged or was never sent.
func (s *ReminderService) Due(ctx context.Context, t domain.ReminderType) ([]domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: invalid reminder type %q", domain.ErrValidation, t)
	}

	return s.reminders.RecipientsDue(ctx, t)
}

// MarkSent upserts the tracker row: acknowledgment resets and last sent time
// advances, whether the row existed or not.
func (s *ReminderService) MarkSent(ctx context.Context, recipientID string, t domain.ReminderType, sentAt time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}

	return s.reminders.RecordSent(ctx, recipientID, t, sentAt)
}

// Acknowledge closes the open reminder cycle. Acknowledging a type that was
// never sent, or acknowledging twice, is a no-op.
func (s *ReminderService) Acknowledge(ctx context.Context, recipientID string, t domain.ReminderType) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !t.IsValid() {
		return fmt.Errorf("%w: invalid reminder type %q", domain.ErrValidation, t)
	}

	if err := s.reminders.Acknowledge(ctx, recipientID, t); err != nil {
		return err
	}

	s.logger.Debug("reminder acknowledged",
		zap.String("recipientId", recipientID),
		zap.String("type", t.String()),
	)

	return nil
}
