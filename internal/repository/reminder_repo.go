package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/club-notifier/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderRepository interface {
	RecipientsDue(ctx context.Context, t domain.ReminderType) ([]domain.Recipient, error)
	RecordSent(ctx context.Context, recipientID string, t domain.ReminderType, sentAt time.Time) error
	Acknowledge(ctx context.Context, recipientID string, t domain.ReminderType) error
}

type GormReminderRepo struct {
	db *gorm.DB
}

func NewGormReminderRepo(db *gorm.DB) *GormReminderRepo {
	return &GormReminderRepo{db: db}
}

// RecipientsDue selects active, opted-in recipients whose reminder record
// for the type is absent or unacknowledged. An absent record means the
// recipient has never been reminded, which counts as due.
func (r *GormReminderRepo) RecipientsDue(ctx context.Context, t domain.ReminderType) ([]domain.Recipient, error) {
	column, err := optInColumn(t)
	if err != nil {
		return nil, err
	}

	var models []RecipientModel
	err = r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Select("recipients.*").
		Joins("LEFT JOIN reminder_records ON reminder_records.recipient_id = recipients.id AND reminder_records.type = ?", t).
		Where("recipients.active = ?", true).
		Where("recipients."+column+" = ?", true).
		Where("reminder_records.id IS NULL OR reminder_records.acknowledged = ?", false).
		Order("recipients.created_at ASC").
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

// RecordSent upserts the (recipient, type) record to unacknowledged with the
// given send timestamp. One statement, so a concurrent acknowledgment either
// lands entirely before or entirely after it.
func (r *GormReminderRepo) RecordSent(ctx context.Context, recipientID string, t domain.ReminderType, sentAt time.Time) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: invalid reminder type %q", domain.ErrValidation, t)
	}

	model := ReminderRecordModel{
		ID:           uuid.NewString(),
		RecipientID:  recipientID,
		Type:         t,
		Acknowledged: false,
		LastSentAt:   &sentAt,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "recipient_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]any{
				"acknowledged": false,
				"last_sent_at": sentAt,
				"updated_at":   sentAt,
			}),
		}).
		Create(&model).Error
}

// Acknowledge marks the record acknowledged, preserving last_sent_at.
// Acknowledging an absent or already-acknowledged record is a no-op success.
func (r *GormReminderRepo) Acknowledge(ctx context.Context, recipientID string, t domain.ReminderType) error {
	result := r.db.WithContext(ctx).
		Model(&ReminderRecordModel{}).
		Where("recipient_id = ? AND type = ?", recipientID, t).
		Update("acknowledged", true)
	return result.Error
}
