package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_recipients",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.RecipientModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_recipients_active ON recipients (active) WHERE active`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.RecipientModel{})
			},
		},
		createReminderRecordsTable(),
		createCustomNotificationsTable(),
		createSettingsTable(),
	})

	return m.Migrate()
}
