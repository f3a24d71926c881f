package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxNotificationContent caps custom notification text length in characters.
const MaxNotificationContent = 4096

// CustomNotification is one individually addressed notice belonging to a
// batch. Content is immutable after creation; rows are never deleted so the
// batch keeps a durable audit trail. Only the acknowledged flag mutates.
type CustomNotification struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	RecipientID  string `gorm:"type:uuid;not null"`
	BatchID      string `gorm:"type:uuid;not null"`
	Content      string `gorm:"type:text;not null"`
	SentAt       time.Time
	Acknowledged bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateNotificationContent checks batch text before any rows are written.
func ValidateNotificationContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if n := len([]rune(content)); n > MaxNotificationContent {
		return fmt.Errorf("%w: content exceeds %d characters (got %d)", ErrValidation, MaxNotificationContent, n)
	}
	return nil
}
