package repository

import (
	"context"
	"errors"

	"github.com/homehands/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// TemplateRepository reads the administered template catalog. The dispatch
// subsystem never writes templates; an inactive template is ErrNotFound.
type TemplateRepository interface {
	GetActive(ctx context.Context, event domain.EventType, channel domain.Channel) (*domain.NotificationTemplate, error)
}

type GormTemplateRepo struct {
	db *gorm.DB
}

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) GetActive(ctx context.Context, event domain.EventType, channel domain.Channel) (*domain.NotificationTemplate, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("event_type = ? AND channel = ? AND active = ?", event, channel, true).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}
