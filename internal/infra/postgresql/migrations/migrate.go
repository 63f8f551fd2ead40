package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/homehands/notify-engine/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_notifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_notifications_customer_created ON notifications (customer_id, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_status_channel_created ON notifications (status, channel, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_order_ref ON notifications (order_ref) WHERE order_ref IS NOT NULL`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_retry_due ON notifications (updated_at) WHERE status = 'FAILED'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationModel{})
			},
		},
		{
			ID: "000002_create_notification_logs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationLogModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_notification_logs_notification_id ON notification_logs (notification_id, created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationLogModel{})
			},
		},
		{
			ID: "000003_create_notification_templates",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.TemplateModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_event_channel_active ON notification_templates (event_type, channel) WHERE active`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.TemplateModel{})
			},
		},
		{
			ID: "000004_create_notification_preferences",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.PreferenceModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.PreferenceModel{})
			},
		},
		{
			ID:       "000005_seed_notification_templates",
			Migrate:  seedTemplates,
			Rollback: unseedTemplates,
		},
	})

	return m.Migrate()
}
