package domain

import "time"

// ReminderRecord tracks acknowledgment state for one (recipient, type) pair.
// At most one record exists per pair; an absent record means the recipient
// has never been reminded and counts as due.
type ReminderRecord struct {
	ID           string       `gorm:"type:uuid;primaryKey"`
	RecipientID  string       `gorm:"type:uuid;not null"`
	Type         ReminderType `gorm:"type:varchar(10);not null"`
	Acknowledged bool         `gorm:"not null;default:false"`
	LastSentAt   *time.Time   `gorm:"type:timestamptz"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
