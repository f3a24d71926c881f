package repository

import (
	"time"

	"github.com/kursadbilgin/club-notifier/internal/domain"
)

// RecipientModel is the persistence model for the recipients table.
type RecipientModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ExternalID  int64  `gorm:"not null;uniqueIndex"`
	Active      bool   `gorm:"not null;default:false"`
	AllowDues   bool   `gorm:"not null;default:true"`
	AllowVPN    bool   `gorm:"not null;default:true"`
	ShowStatus  bool   `gorm:"not null;default:true"`
	ShowDues    bool   `gorm:"not null;default:true"`
	ShowVPN     bool   `gorm:"not null;default:true"`
	ShowSavings bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RecipientModel) TableName() string {
	return "recipients"
}

// ReminderRecordModel is the persistence model for reminder_records.
type ReminderRecordModel struct {
	ID           string              `gorm:"type:uuid;primaryKey"`
	RecipientID  string              `gorm:"type:uuid;not null"`
	Type         domain.ReminderType `gorm:"type:varchar(10);not null"`
	Acknowledged bool                `gorm:"not null;default:false"`
	LastSentAt   *time.Time          `gorm:"type:timestamptz"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ReminderRecordModel) TableName() string {
	return "reminder_records"
}

// CustomNotificationModel is the persistence model for custom_notifications.
type CustomNotificationModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	RecipientID  string `gorm:"type:uuid;not null"`
	BatchID      string `gorm:"type:uuid;not null"`
	Content      string `gorm:"type:text;not null"`
	SentAt       time.Time
	Acknowledged bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CustomNotificationModel) TableName() string {
	return "custom_notifications"
}

// SettingModel is the persistence model for the settings key/value table.
type SettingModel struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"type:text;not null"`
}

func (SettingModel) TableName() string {
	return "settings"
}

func recipientModelToDomain(m *RecipientModel) *domain.Recipient {
	if m == nil {
		return nil
	}

	return &domain.Recipient{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		Active:      m.Active,
		AllowDues:   m.AllowDues,
		AllowVPN:    m.AllowVPN,
		ShowStatus:  m.ShowStatus,
		ShowDues:    m.ShowDues,
		ShowVPN:     m.ShowVPN,
		ShowSavings: m.ShowSavings,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func notificationModelFromDomain(n *domain.CustomNotification) *CustomNotificationModel {
	if n == nil {
		return nil
	}

	return &CustomNotificationModel{
		ID:           n.ID,
		RecipientID:  n.RecipientID,
		BatchID:      n.BatchID,
		Content:      n.Content,
		SentAt:       n.SentAt,
		Acknowledged: n.Acknowledged,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func notificationModelToDomain(m *CustomNotificationModel) *domain.CustomNotification {
	if m == nil {
		return nil
	}

	return &domain.CustomNotification{
		ID:           m.ID,
		RecipientID:  m.RecipientID,
		BatchID:      m.BatchID,
		Content:      m.Content,
		SentAt:       m.SentAt,
		Acknowledged: m.Acknowledged,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
