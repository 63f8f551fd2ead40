package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homehands/notify-engine/internal/domain"
	"gorm.io/gorm"
)

// ListParams filters and pages notification listings.
type ListParams struct {
	Status    *domain.Status
	Channel   *domain.Channel
	EventType *domain.EventType
	OrderRef  *string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// SendOutcome is the per-attempt mutation applied after a provider call.
type SendOutcome struct {
	Status            domain.Status
	ProviderName      *string
	ProviderMessageID *string
	SentAt            *time.Time
	LastError         *string
	RetryCount        int
	ProviderMetadata  map[string]string
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, params ListParams) ([]domain.Notification, int64, error)
	UpdateSendOutcome(ctx context.Context, id string, outcome SendOutcome) error
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error
	Cancel(ctx context.Context, id string) error
	GetDueForRetry(ctx context.Context, cutoff time.Time, limit int) ([]domain.Notification, error)
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) List(ctx context.Context, params ListParams) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&NotificationModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Channel != nil {
		query = query.Where("channel = ?", *params.Channel)
	}
	if params.EventType != nil {
		query = query.Where("event_type = ?", *params.EventType)
	}
	if params.OrderRef != nil {
		query = query.Where("order_ref = ?", *params.OrderRef)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	var models []NotificationModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, total, nil
}

func (r *GormNotificationRepo) UpdateSendOutcome(ctx context.Context, id string, outcome SendOutcome) error {
	updates := map[string]any{
		"status":      outcome.Status,
		"retry_count": outcome.RetryCount,
		"last_error":  outcome.LastError,
	}
	if outcome.ProviderName != nil {
		updates["provider_name"] = outcome.ProviderName
	}
	if outcome.ProviderMessageID != nil {
		updates["provider_message_id"] = outcome.ProviderMessageID
	}
	if outcome.SentAt != nil {
		updates["sent_at"] = outcome.SentAt
	}
	if metadata := encodeMetadata(outcome.ProviderMetadata); metadata != nil {
		updates["provider_metadata"] = metadata
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormNotificationRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status = ?", id, domain.StatusSent).
		Updates(map[string]any{
			"status":       domain.StatusDelivered,
			"delivered_at": deliveredAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s is not in SENT state", domain.ErrValidation, id)
	}
	return nil
}

// Cancel transitions a non-terminal, not-yet-sent notification to
// CANCELLED. Administrative action only.
func (r *GormNotificationRepo) Cancel(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status IN ?", id, []domain.Status{domain.StatusPending, domain.StatusFailed}).
		Update("status", domain.StatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).First(&NotificationModel{}, "id = ?", id).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: notification %s cannot be cancelled in its current state", domain.ErrValidation, id)
	}
	return nil
}

// GetDueForRetry selects failed notifications under the retry cap whose
// last update is older than the cool-down cutoff.
func (r *GormNotificationRepo) GetDueForRetry(ctx context.Context, cutoff time.Time, limit int) ([]domain.Notification, error) {
	if limit < 1 {
		limit = 100
	}

	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < max_retries AND updated_at < ?", domain.StatusFailed, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, nil
}
