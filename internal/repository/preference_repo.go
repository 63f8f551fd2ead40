package repository

import (
	"context"
	"errors"

	"github.com/homehands/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// PreferenceRepository reads per-user opt-in records. Absence is reported
// as ErrNotFound; the orchestrator maps that to default-allow.
type PreferenceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationPreference, error)
}

type GormPreferenceRepo struct {
	db *gorm.DB
}

func NewGormPreferenceRepo(db *gorm.DB) *GormPreferenceRepo {
	return &GormPreferenceRepo{db: db}
}

func (r *GormPreferenceRepo) GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationPreference, error) {
	var model PreferenceModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return preferenceModelToDomain(&model), nil
}
