package repository

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/homehands/notify-engine/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID                string          `gorm:"type:uuid;primaryKey"`
	CustomerID        string          `gorm:"type:varchar(64);not null"`
	RecipientName     string          `gorm:"type:varchar(255)"`
	RecipientPhone    string          `gorm:"type:varchar(32)"`
	RecipientEmail    string          `gorm:"type:varchar(255)"`
	Channel           domain.Channel  `gorm:"type:varchar(10);not null"`
	EventType         domain.EventType `gorm:"type:varchar(32);not null"`
	Priority          domain.Priority `gorm:"type:varchar(10);not null"`
	Subject           *string         `gorm:"type:varchar(255)"`
	Message           string          `gorm:"type:text;not null"`
	OrderRef          *string         `gorm:"type:varchar(64)"`
	TemplateID        *string         `gorm:"type:uuid"`
	Status            domain.Status   `gorm:"type:varchar(20);not null"`
	ScheduledAt       *time.Time      `gorm:"type:timestamptz"`
	SentAt            *time.Time      `gorm:"type:timestamptz"`
	DeliveredAt       *time.Time      `gorm:"type:timestamptz"`
	ProviderName      *string         `gorm:"type:varchar(32)"`
	ProviderMessageID *string         `gorm:"type:varchar(255)"`
	LastError         *string         `gorm:"type:text"`
	RetryCount        int             `gorm:"not null;default:0"`
	MaxRetries        int             `gorm:"not null;default:3"`
	ProviderMetadata  *string         `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// NotificationLogModel is the persistence model for notification_logs.
type NotificationLogModel struct {
	ID             string           `gorm:"type:uuid;primaryKey"`
	NotificationID string           `gorm:"type:uuid;not null"`
	Action         domain.LogAction `gorm:"type:varchar(20);not null"`
	StatusCode     *int             `gorm:"type:int"`
	ResponseBody   *string          `gorm:"type:text"`
	Error          *string          `gorm:"type:text"`
	DurationMillis int64            `gorm:"not null;default:0"`
	CreatedAt      time.Time
}

func (NotificationLogModel) TableName() string {
	return "notification_logs"
}

// TemplateModel is the persistence model for notification_templates.
type TemplateModel struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	Name      string           `gorm:"type:varchar(128);not null"`
	EventType domain.EventType `gorm:"type:varchar(32);not null"`
	Channel   domain.Channel   `gorm:"type:varchar(10);not null"`
	Subject   string           `gorm:"type:varchar(255)"`
	Body      string           `gorm:"type:text;not null"`
	Variables *string          `gorm:"type:jsonb"`
	MaxLength int              `gorm:"not null;default:0"`
	Active    bool             `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TemplateModel) TableName() string {
	return "notification_templates"
}

// PreferenceModel is the persistence model for notification_preferences.
type PreferenceModel struct {
	UserID            string `gorm:"type:varchar(64);primaryKey"`
	SMSEnabled        bool   `gorm:"not null;default:true"`
	EmailEnabled      bool   `gorm:"not null;default:true"`
	OrderUpdates      bool   `gorm:"not null;default:true"`
	TechnicianUpdates bool   `gorm:"not null;default:true"`
	Marketing         bool   `gorm:"not null;default:true"`
	Promotional       bool   `gorm:"not null;default:true"`
	QuietHoursStart   string `gorm:"type:varchar(5)"`
	QuietHoursEnd     string `gorm:"type:varchar(5)"`
	PreferredPhone    string `gorm:"type:varchar(32)"`
	PreferredEmail    string `gorm:"type:varchar(255)"`
	Timezone          string `gorm:"type:varchar(64)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PreferenceModel) TableName() string {
	return "notification_preferences"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:                n.ID,
		CustomerID:        n.CustomerID,
		RecipientName:     n.RecipientName,
		RecipientPhone:    n.RecipientPhone,
		RecipientEmail:    n.RecipientEmail,
		Channel:           n.Channel,
		EventType:         n.EventType,
		Priority:          n.Priority,
		Subject:           n.Subject,
		Message:           n.Message,
		OrderRef:          n.OrderRef,
		TemplateID:        n.TemplateID,
		Status:            n.Status,
		ScheduledAt:       n.ScheduledAt,
		SentAt:            n.SentAt,
		DeliveredAt:       n.DeliveredAt,
		ProviderName:      n.ProviderName,
		ProviderMessageID: n.ProviderMessageID,
		LastError:         n.LastError,
		RetryCount:        n.RetryCount,
		MaxRetries:        n.MaxRetries,
		ProviderMetadata:  encodeMetadata(n.ProviderMetadata),
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:                m.ID,
		CustomerID:        m.CustomerID,
		RecipientName:     m.RecipientName,
		RecipientPhone:    m.RecipientPhone,
		RecipientEmail:    m.RecipientEmail,
		Channel:           m.Channel,
		EventType:         m.EventType,
		Priority:          m.Priority,
		Subject:           m.Subject,
		Message:           m.Message,
		OrderRef:          m.OrderRef,
		TemplateID:        m.TemplateID,
		Status:            m.Status,
		ScheduledAt:       m.ScheduledAt,
		SentAt:            m.SentAt,
		DeliveredAt:       m.DeliveredAt,
		ProviderName:      m.ProviderName,
		ProviderMessageID: m.ProviderMessageID,
		LastError:         m.LastError,
		RetryCount:        m.RetryCount,
		MaxRetries:        m.MaxRetries,
		ProviderMetadata:  decodeMetadata(m.ProviderMetadata),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func logModelFromDomain(l *domain.NotificationLog) *NotificationLogModel {
	if l == nil {
		return nil
	}

	return &NotificationLogModel{
		ID:             l.ID,
		NotificationID: l.NotificationID,
		Action:         l.Action,
		StatusCode:     l.StatusCode,
		ResponseBody:   l.ResponseBody,
		Error:          l.Error,
		DurationMillis: l.DurationMillis,
		CreatedAt:      l.CreatedAt,
	}
}

func logModelToDomain(m *NotificationLogModel) *domain.NotificationLog {
	if m == nil {
		return nil
	}

	return &domain.NotificationLog{
		ID:             m.ID,
		NotificationID: m.NotificationID,
		Action:         m.Action,
		StatusCode:     m.StatusCode,
		ResponseBody:   m.ResponseBody,
		Error:          m.Error,
		DurationMillis: m.DurationMillis,
		CreatedAt:      m.CreatedAt,
	}
}

func templateModelToDomain(m *TemplateModel) *domain.NotificationTemplate {
	if m == nil {
		return nil
	}

	return &domain.NotificationTemplate{
		ID:        m.ID,
		Name:      m.Name,
		EventType: m.EventType,
		Channel:   m.Channel,
		Subject:   m.Subject,
		Body:      m.Body,
		Variables: decodeVariables(m.Variables),
		MaxLength: m.MaxLength,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func preferenceModelToDomain(m *PreferenceModel) *domain.UserNotificationPreference {
	if m == nil {
		return nil
	}

	return &domain.UserNotificationPreference{
		UserID:            m.UserID,
		SMSEnabled:        m.SMSEnabled,
		EmailEnabled:      m.EmailEnabled,
		OrderUpdates:      m.OrderUpdates,
		TechnicianUpdates: m.TechnicianUpdates,
		Marketing:         m.Marketing,
		Promotional:       m.Promotional,
		QuietHoursStart:   m.QuietHoursStart,
		QuietHoursEnd:     m.QuietHoursEnd,
		PreferredPhone:    m.PreferredPhone,
		PreferredEmail:    m.PreferredEmail,
		Timezone:          m.Timezone,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func encodeMetadata(metadata map[string]string) *string {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	encoded := string(raw)
	return &encoded
}

func decodeMetadata(raw *string) map[string]string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(*raw), &metadata); err != nil {
		return nil
	}
	return metadata
}

// EncodeVariables serializes a template variable list for jsonb storage.
func EncodeVariables(variables []string) *string {
	if len(variables) == 0 {
		return nil
	}
	raw, err := json.Marshal(variables)
	if err != nil {
		return nil
	}
	encoded := string(raw)
	return &encoded
}

func decodeVariables(raw *string) []string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	var variables []string
	if err := json.Unmarshal([]byte(*raw), &variables); err != nil {
		return nil
	}
	return variables
}
