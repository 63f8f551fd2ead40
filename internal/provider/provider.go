package provider

import (
	"context"
)

// Provider is the outbound delivery port for one messaging vendor. An
// adapter that does not serve a channel returns an unsupported-channel
// *ProviderError instead of panicking, so fan-out callers can treat every
// call as a plain value.
type Provider interface {
	// Name returns the registry key for this adapter, e.g. "twilio".
	Name() string

	SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error)
	SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error)

	// DeliveryStatus polls the vendor for the fate of an accepted message.
	DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error)
}

// SMSMessage is a rendered SMS ready for a vendor call.
type SMSMessage struct {
	To   string
	Body string
}

// EmailMessage is a rendered email ready for a vendor call.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// SendResult stores vendor call metadata for audit and persistence.
type SendResult struct {
	MessageID  string
	StatusCode int
	Body       string
	Metadata   map[string]string
}

// DeliveryState is the normalized vendor delivery report.
type DeliveryState string

const (
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryFailed    DeliveryState = "failed"
	DeliverySent      DeliveryState = "sent"
	DeliveryRejected  DeliveryState = "rejected"
	DeliveryUnknown   DeliveryState = "unknown"
)
