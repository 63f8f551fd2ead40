package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/homehands/notify-engine/internal/domain"
)

const (
	twilioName           = "twilio"
	twilioBaseURL        = "https://api.twilio.com"
	twilioMaxSMSLength   = 1600
	defaultVendorTimeout = 10 * time.Second
)

// TwilioConfig carries the credentials the international SMS gateway needs.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) validate() error {
	if strings.TrimSpace(c.AccountSID) == "" {
		return fmt.Errorf("twilio account sid is required")
	}
	if strings.TrimSpace(c.AuthToken) == "" {
		return fmt.Errorf("twilio auth token is required")
	}
	if strings.TrimSpace(c.FromNumber) == "" {
		return fmt.Errorf("twilio from number is required")
	}
	return nil
}

// TwilioProvider sends SMS through the Twilio REST API. It is the
// international gateway: numbers pass through in E.164 form untouched.
type TwilioProvider struct {
	client *resty.Client
	cfg    TwilioConfig
}

func NewTwilioProvider(cfg TwilioConfig) (*TwilioProvider, error) {
	client := resty.New()
	client.SetBaseURL(twilioBaseURL)
	client.SetTimeout(defaultVendorTimeout)
	client.SetRetryCount(0)

	return NewTwilioProviderWithClient(cfg, client)
}

func NewTwilioProviderWithClient(cfg TwilioConfig, client *resty.Client) (*TwilioProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultVendorTimeout)
	}

	return &TwilioProvider{client: client, cfg: cfg}, nil
}

func (p *TwilioProvider) Name() string { return twilioName }

type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *TwilioProvider) SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, &ProviderError{Message: "recipient number is required"}
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken).
		SetFormData(map[string]string{
			"To":   to,
			"From": p.cfg.FromNumber,
			"Body": TruncateSMSBody(msg.Body, twilioMaxSMSLength),
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", p.cfg.AccountSID))
	if err != nil {
		return nil, requestFailed(err)
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if statusCode == http.StatusOK || statusCode == http.StatusCreated {
		var parsed twilioMessageResponse
		if err := json.Unmarshal(response.Body(), &parsed); err != nil || parsed.SID == "" {
			return nil, &ProviderError{
				StatusCode: statusCode,
				Message:    "twilio response missing message sid",
				Cause:      err,
			}
		}

		return &SendResult{
			MessageID:  parsed.SID,
			StatusCode: statusCode,
			Body:       body,
			Metadata:   map[string]string{"twilio_status": parsed.Status},
		}, nil
	}

	message := fmt.Sprintf("twilio returned status %d", statusCode)
	var vendorErr twilioErrorResponse
	if err := json.Unmarshal(response.Body(), &vendorErr); err == nil && vendorErr.Message != "" {
		message = fmt.Sprintf("twilio error %d: %s", vendorErr.Code, vendorErr.Message)
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    message,
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func (p *TwilioProvider) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	return nil, unsupportedChannel(twilioName, "EMAIL")
}

func (p *TwilioProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error) {
	if p == nil || p.client == nil {
		return DeliveryUnknown, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(providerMessageID) == "" {
		return DeliveryUnknown, &ProviderError{Message: "provider message id is required"}
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken).
		Get(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages/%s.json", p.cfg.AccountSID, providerMessageID))
	if err != nil {
		return DeliveryUnknown, requestFailed(err)
	}

	if response.StatusCode() != http.StatusOK {
		return DeliveryUnknown, &ProviderError{
			StatusCode: response.StatusCode(),
			Message:    fmt.Sprintf("twilio status lookup returned %d", response.StatusCode()),
			Transient:  isTransientHTTPStatus(response.StatusCode()),
		}
	}

	var parsed twilioMessageResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return DeliveryUnknown, &ProviderError{Message: "invalid twilio status payload", Cause: err}
	}

	switch strings.ToLower(parsed.Status) {
	case "delivered":
		return DeliveryDelivered, nil
	case "failed":
		return DeliveryFailed, nil
	case "undelivered":
		return DeliveryRejected, nil
	case "sent", "queued", "sending", "accepted":
		return DeliverySent, nil
	default:
		return DeliveryUnknown, nil
	}
}

// TruncateSMSBody enforces a vendor character cap, marking shortened
// bodies with an ellipsis. Distinct from template-level truncation, which
// applies the per-template limit at render time.
func TruncateSMSBody(body string, limit int) string {
	return domain.TruncateMessage(body, limit)
}
