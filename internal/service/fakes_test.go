package service

import (
	"context"
	"time"

	"github.com/homehands/notify-engine/internal/domain"
	"github.com/homehands/notify-engine/internal/provider"
	"github.com/homehands/notify-engine/internal/repository"
)

type fakeNotificationRepo struct {
	createFn            func(ctx context.Context, n *domain.Notification) error
	getByIDFn           func(ctx context.Context, id string) (*domain.Notification, error)
	listFn              func(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error)
	updateSendOutcomeFn func(ctx context.Context, id string, outcome repository.SendOutcome) error
	markDeliveredFn     func(ctx context.Context, id string, deliveredAt time.Time) error
	cancelFn            func(ctx context.Context, id string) error
	getDueForRetryFn    func(ctx context.Context, cutoff time.Time, limit int) ([]domain.Notification, error)
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) UpdateSendOutcome(ctx context.Context, id string, outcome repository.SendOutcome) error {
	if f.updateSendOutcomeFn != nil {
		return f.updateSendOutcomeFn(ctx, id, outcome)
	}
	return nil
}

func (f *fakeNotificationRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	if f.markDeliveredFn != nil {
		return f.markDeliveredFn(ctx, id, deliveredAt)
	}
	return nil
}

func (f *fakeNotificationRepo) Cancel(ctx context.Context, id string) error {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, id)
	}
	return nil
}

func (f *fakeNotificationRepo) GetDueForRetry(ctx context.Context, cutoff time.Time, limit int) ([]domain.Notification, error) {
	if f.getDueForRetryFn != nil {
		return f.getDueForRetryFn(ctx, cutoff, limit)
	}
	return nil, nil
}

type fakeLogRepo struct {
	createFn              func(ctx context.Context, entry *domain.NotificationLog) error
	getByNotificationIDFn func(ctx context.Context, notificationID string) ([]domain.NotificationLog, error)
}

func (f *fakeLogRepo) Create(ctx context.Context, entry *domain.NotificationLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeLogRepo) GetByNotificationID(ctx context.Context, notificationID string) ([]domain.NotificationLog, error) {
	if f.getByNotificationIDFn != nil {
		return f.getByNotificationIDFn(ctx, notificationID)
	}
	return nil, nil
}

type fakeTemplateRepo struct {
	getActiveFn func(ctx context.Context, event domain.EventType, channel domain.Channel) (*domain.NotificationTemplate, error)
}

func (f *fakeTemplateRepo) GetActive(ctx context.Context, event domain.EventType, channel domain.Channel) (*domain.NotificationTemplate, error) {
	if f.getActiveFn != nil {
		return f.getActiveFn(ctx, event, channel)
	}
	return nil, domain.ErrNotFound
}

type fakePreferenceRepo struct {
	getByUserIDFn func(ctx context.Context, userID string) (*domain.UserNotificationPreference, error)
}

func (f *fakePreferenceRepo) GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationPreference, error) {
	if f.getByUserIDFn != nil {
		return f.getByUserIDFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

type fakeProvider struct {
	name             string
	sendSMSFn        func(ctx context.Context, msg provider.SMSMessage) (*provider.SendResult, error)
	sendEmailFn      func(ctx context.Context, msg provider.EmailMessage) (*provider.SendResult, error)
	deliveryStatusFn func(ctx context.Context, providerMessageID string) (provider.DeliveryState, error)
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) SendSMS(ctx context.Context, msg provider.SMSMessage) (*provider.SendResult, error) {
	if f.sendSMSFn != nil {
		return f.sendSMSFn(ctx, msg)
	}
	return &provider.SendResult{MessageID: "fake-sms-id", StatusCode: 200}, nil
}

func (f *fakeProvider) SendEmail(ctx context.Context, msg provider.EmailMessage) (*provider.SendResult, error) {
	if f.sendEmailFn != nil {
		return f.sendEmailFn(ctx, msg)
	}
	return &provider.SendResult{MessageID: "fake-email-id", StatusCode: 202}, nil
}

func (f *fakeProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (provider.DeliveryState, error) {
	if f.deliveryStatusFn != nil {
		return f.deliveryStatusFn(ctx, providerMessageID)
	}
	return provider.DeliveryUnknown, nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, provider string) (bool, error)
	waitFn  func(ctx context.Context, provider string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, provider string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, provider)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, provider string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, provider)
	}
	return nil
}

func newTestRegistry(providers ...provider.Provider) *provider.Registry {
	registry := provider.NewRegistry(nil)
	for _, p := range providers {
		registry.Register(p)
	}
	return registry
}

func newTestDispatcher(
	t interface{ Fatalf(format string, args ...any) },
	notifications repository.NotificationRepository,
	logs repository.LogRepository,
	templates repository.TemplateRepository,
	preferences repository.PreferenceRepository,
	registry *provider.Registry,
) *Dispatcher {
	d, err := NewDispatcher(notifications, logs, templates, preferences, registry, &fakeRateLimiter{}, domain.DefaultMaxRetries, nil)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}
