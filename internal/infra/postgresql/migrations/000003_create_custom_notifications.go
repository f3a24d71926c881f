package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"gorm.io/gorm"
)

func createCustomNotificationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_custom_notifications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CustomNotificationModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_custom_notifications_batch_id ON custom_notifications (batch_id)`,
				`CREATE INDEX IF NOT EXISTS idx_custom_notifications_batch_unacked ON custom_notifications (batch_id) WHERE NOT acknowledged`,
				`CREATE INDEX IF NOT EXISTS idx_custom_notifications_recipient_id ON custom_notifications (recipient_id)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CustomNotificationModel{})
		},
	}
}
