package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"go.uber.org/zap"
)

// DirectoryService manages the recipient directory. Recipients are addressed
// by their messenger external id; rows are created lazily on first contact
// and start inactive until an admin activates them.
type DirectoryService struct {
	recipients repository.RecipientRepository
	logger     *zap.Logger
}

func NewDirectoryService(recipients repository.RecipientRepository, logger *zap.Logger) (*DirectoryService, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DirectoryService{
		recipients: recipients,
		logger:     logger,
	}, nil
}

// Register ensures a directory row exists for the external id and returns it.
// Concurrent first contacts converge on a single row.
func (s *DirectoryService) Register(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if externalID <= 0 {
		return nil, fmt.Errorf("%w: external id must be positive", domain.ErrValidation)
	}

	return s.recipients.GetOrCreate(ctx, externalID)
}

// Get returns the recipient for an external id, or ErrNotFound.
func (s *DirectoryService) Get(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	return s.recipients.GetByExternalID(ctx, externalID)
}

// Activate marks an existing recipient active, making them eligible for
// reminders and batch notices.
func (s *DirectoryService) Activate(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.recipients.Activate(ctx, externalID); err != nil {
		return nil, err
	}

	recipient, err := s.recipients.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipient activated", zap.Int64("externalId", externalID))

	return recipient, nil
}

// SetNotificationPreference toggles a per-type reminder opt-in. The row is
// created on demand so a recipient can opt out before ever being activated.
func (s *DirectoryService) SetNotificationPreference(ctx context.Context, externalID int64, t domain.ReminderType, enabled bool) (*domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	recipient, err := s.recipients.GetOrCreate(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if err := s.recipients.SetNotificationPreference(ctx, recipient.ID, t, enabled); err != nil {
		return nil, err
	}

	return s.recipients.GetByExternalID(ctx, externalID)
}

// SetVisibility toggles which dashboard components the recipient sees.
func (s *DirectoryService) SetVisibility(ctx context.Context, externalID int64, c domain.VisibilityComponent, visible bool) (*domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	recipient, err := s.recipients.GetOrCreate(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if err := s.recipients.SetVisibility(ctx, recipient.ID, c, visible); err != nil {
		return nil, err
	}

	return s.recipients.GetByExternalID(ctx, externalID)
}

// ListActive returns all active recipients.
func (s *DirectoryService) ListActive(ctx context.Context) ([]domain.Recipient, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	return s.recipients.ListActive(ctx)
}
