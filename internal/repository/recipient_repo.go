package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/club-notifier/internal/domain"
	"gorm.io/gorm"
)

type RecipientRepository interface {
	GetOrCreate(ctx context.Context, externalID int64) (*domain.Recipient, error)
	GetByID(ctx context.Context, id string) (*domain.Recipient, error)
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Recipient, error)
	Activate(ctx context.Context, externalID int64) error
	SetNotificationPreference(ctx context.Context, recipientID string, t domain.ReminderType, enabled bool) error
	SetVisibility(ctx context.Context, recipientID string, c domain.VisibilityComponent, visible bool) error
	ListActive(ctx context.Context) ([]domain.Recipient, error)
}

type GormRecipientRepo struct {
	db *gorm.DB
}

func NewGormRecipientRepo(db *gorm.DB) *GormRecipientRepo {
	return &GormRecipientRepo{db: db}
}

// GetOrCreate inserts an inactive recipient with all flags enabled when no
// row exists for the external id. Under concurrent calls the unique index
// decides the winner; the losing writer reads the winner's row back.
func (r *GormRecipientRepo) GetOrCreate(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	existing, err := r.GetByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	model := &RecipientModel{
		ID:          uuid.NewString(),
		ExternalID:  externalID,
		Active:      false,
		AllowDues:   true,
		AllowVPN:    true,
		ShowStatus:  true,
		ShowDues:    true,
		ShowVPN:     true,
		ShowSavings: true,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolationError(err) {
			return r.GetByExternalID(ctx, externalID)
		}
		return nil, err
	}

	return recipientModelToDomain(model), nil
}

func (r *GormRecipientRepo) GetByID(ctx context.Context, id string) (*domain.Recipient, error) {
	var model RecipientModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recipientModelToDomain(&model), nil
}

func (r *GormRecipientRepo) GetByExternalID(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	var model RecipientModel
	err := r.db.WithContext(ctx).First(&model, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recipientModelToDomain(&model), nil
}

func (r *GormRecipientRepo) Activate(ctx context.Context, externalID int64) error {
	result := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Where("external_id = ?", externalID).
		Update("active", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormRecipientRepo) SetNotificationPreference(ctx context.Context, recipientID string, t domain.ReminderType, enabled bool) error {
	column, err := optInColumn(t)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Where("id = ?", recipientID).
		Update(column, enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormRecipientRepo) SetVisibility(ctx context.Context, recipientID string, c domain.VisibilityComponent, visible bool) error {
	column, err := visibilityColumn(c)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Where("id = ?", recipientID).
		Update(column, visible)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormRecipientRepo) ListActive(ctx context.Context) ([]domain.Recipient, error) {
	var models []RecipientModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	recipients := make([]domain.Recipient, 0, len(models))
	for i := range models {
		recipients = append(recipients, *recipientModelToDomain(&models[i]))
	}

	return recipients, nil
}

func optInColumn(t domain.ReminderType) (string, error) {
	switch t {
	case domain.ReminderDues:
		return "allow_dues", nil
	case domain.ReminderVPN:
		return "allow_vpn", nil
	}
	return "", fmt.Errorf("%w: invalid reminder type %q", domain.ErrValidation, t)
}

func visibilityColumn(c domain.VisibilityComponent) (string, error) {
	switch c {
	case domain.VisibilityStatus:
		return "show_status", nil
	case domain.VisibilityDues:
		return "show_dues", nil
	case domain.VisibilityVPN:
		return "show_vpn", nil
	case domain.VisibilitySavings:
		return "show_savings", nil
	}
	return "", fmt.Errorf("%w: invalid visibility component %q", domain.ErrValidation, c)
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
