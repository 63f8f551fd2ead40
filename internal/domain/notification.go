package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification.
//
// PENDING -> SENT -> DELIVERED
// PENDING -> FAILED -> SENT (successful retry)
// CANCELLED is terminal and only set by explicit administrative action.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further automatic transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelEmail:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// Priority represents the message priority level.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

// EventType is the business occurrence that triggers a dispatch.
type EventType string

const (
	EventOrderPlaced        EventType = "ORDER_PLACED"
	EventOrderConfirmed     EventType = "ORDER_CONFIRMED"
	EventTechnicianAssigned EventType = "TECHNICIAN_ASSIGNED"
	EventServiceScheduled   EventType = "SERVICE_SCHEDULED"
	EventTechnicianEnRoute  EventType = "TECHNICIAN_EN_ROUTE"
	EventServiceStarted     EventType = "SERVICE_STARTED"
	EventServiceCompleted   EventType = "SERVICE_COMPLETED"
	EventPaymentReminder    EventType = "PAYMENT_REMINDER"
	EventFeedbackRequest    EventType = "FEEDBACK_REQUEST"
	EventOrderCancelled     EventType = "ORDER_CANCELLED"
	EventServiceRescheduled EventType = "SERVICE_RESCHEDULED"
)

// EventTypes lists every supported event type in a stable order.
var EventTypes = []EventType{
	EventOrderPlaced,
	EventOrderConfirmed,
	EventTechnicianAssigned,
	EventServiceScheduled,
	EventTechnicianEnRoute,
	EventServiceStarted,
	EventServiceCompleted,
	EventPaymentReminder,
	EventFeedbackRequest,
	EventOrderCancelled,
	EventServiceRescheduled,
}

func (e EventType) String() string { return string(e) }

func (e EventType) IsValid() bool {
	for _, known := range EventTypes {
		if e == known {
			return true
		}
	}
	return false
}

func ParseEventTypeFromString(s string) (EventType, error) {
	ev := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if !ev.IsValid() {
		return "", fmt.Errorf("%w: invalid event type %q", ErrValidation, s)
	}
	return ev, nil
}

// Category groups event types for per-user opt-in preferences.
type Category string

const (
	CategoryOrderUpdates      Category = "order_updates"
	CategoryTechnicianUpdates Category = "technician_updates"
	CategoryMarketing         Category = "marketing"
	CategoryPromotional       Category = "promotional"
)

// Category returns the preference category an event belongs to.
func (e EventType) Category() Category {
	switch e {
	case EventTechnicianAssigned, EventTechnicianEnRoute,
		EventServiceScheduled, EventServiceStarted,
		EventServiceCompleted, EventServiceRescheduled:
		return CategoryTechnicianUpdates
	case EventFeedbackRequest:
		return CategoryMarketing
	default:
		return CategoryOrderUpdates
	}
}

// DefaultMaxRetries is the retry cap applied when a notification does not
// carry an explicit one.
const DefaultMaxRetries = 3

// Notification records one dispatch attempt for one channel. It is created
// in PENDING immediately before the physical send so a failed send still
// leaves an audit record, and is never deleted.
type Notification struct {
	ID                string
	CustomerID        string
	RecipientName     string
	RecipientPhone    string
	RecipientEmail    string
	Channel           Channel
	EventType         EventType
	Priority          Priority
	Subject           *string
	Message           string
	OrderRef          *string
	TemplateID        *string
	Status            Status
	ScheduledAt       *time.Time
	SentAt            *time.Time
	DeliveredAt       *time.Time
	ProviderName      *string
	ProviderMessageID *string
	LastError         *string
	RetryCount        int
	MaxRetries        int
	ProviderMetadata  map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (n *Notification) Validate() error {
	if n == nil {
		return fmt.Errorf("%w: notification is required", ErrValidation)
	}
	if strings.TrimSpace(n.CustomerID) == "" {
		return fmt.Errorf("%w: customer id is required", ErrValidation)
	}
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}
	if !n.EventType.IsValid() {
		return fmt.Errorf("%w: invalid event type %q", ErrValidation, n.EventType)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, n.Priority)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}

	switch n.Channel {
	case ChannelSMS:
		if strings.TrimSpace(n.RecipientPhone) == "" {
			return fmt.Errorf("%w: recipient phone is required for SMS", ErrValidation)
		}
	case ChannelEmail:
		if strings.TrimSpace(n.RecipientEmail) == "" {
			return fmt.Errorf("%w: recipient email is required for EMAIL", ErrValidation)
		}
	}

	return nil
}

// EligibleForRetry reports sweeper eligibility: a failed notification under
// the retry cap whose last update is older than the cool-down cutoff.
func (n *Notification) EligibleForRetry(cutoff time.Time) bool {
	if n == nil || n.Status != StatusFailed {
		return false
	}
	maxRetries := n.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if n.RetryCount >= maxRetries {
		return false
	}
	return n.UpdatedAt.Before(cutoff)
}
