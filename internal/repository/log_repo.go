package repository

import (
	"context"

	"github.com/homehands/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// LogRepository persists the append-only per-attempt log. Entries are
// never updated or deleted.
type LogRepository interface {
	Create(ctx context.Context, l *domain.NotificationLog) error
	GetByNotificationID(ctx context.Context, notificationID string) ([]domain.NotificationLog, error)
}

type GormLogRepo struct {
	db *gorm.DB
}

func NewGormLogRepo(db *gorm.DB) *GormLogRepo {
	return &GormLogRepo{db: db}
}

func (r *GormLogRepo) Create(ctx context.Context, l *domain.NotificationLog) error {
	model := logModelFromDomain(l)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if l != nil {
		*l = *logModelToDomain(model)
	}
	return nil
}

func (r *GormLogRepo) GetByNotificationID(ctx context.Context, notificationID string) ([]domain.NotificationLog, error) {
	var models []NotificationLogModel
	err := r.db.WithContext(ctx).
		Where("notification_id = ?", notificationID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]domain.NotificationLog, 0, len(models))
	for i := range models {
		logs = append(logs, *logModelToDomain(&models[i]))
	}

	return logs, nil
}
