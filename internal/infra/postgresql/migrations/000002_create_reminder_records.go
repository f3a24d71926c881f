package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"gorm.io/gorm"
)

func createReminderRecordsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_reminder_records",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ReminderRecordModel{}); err != nil {
				return err
			}
			// One open reminder per (recipient, type); RecordSent upserts on it.
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_reminder_records_recipient_type ON reminder_records (recipient_id, type)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ReminderRecordModel{})
		},
	}
}
