package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	textlocalName         = "textlocal"
	textlocalBaseURL      = "https://api.textlocal.in"
	textlocalMaxSMSLength = 765
	textlocalMaxSenderLen = 6
)

// TextlocalConfig carries the credentials for domestic SMS gateway A.
type TextlocalConfig struct {
	APIKey string
	Sender string
}

func (c TextlocalConfig) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("textlocal api key is required")
	}
	sender := strings.TrimSpace(c.Sender)
	if sender == "" {
		return fmt.Errorf("textlocal sender id is required")
	}
	if len(sender) > textlocalMaxSenderLen {
		return fmt.Errorf("textlocal sender id must be at most %d characters", textlocalMaxSenderLen)
	}
	return nil
}

// TextlocalProvider sends SMS through the Textlocal India gateway: an API
// key form POST answered with a JSON status envelope. It only accepts
// domestic mobile numbers in 91-prefixed digit form.
type TextlocalProvider struct {
	client *resty.Client
	cfg    TextlocalConfig
}

func NewTextlocalProvider(cfg TextlocalConfig) (*TextlocalProvider, error) {
	client := resty.New()
	client.SetBaseURL(textlocalBaseURL)
	client.SetTimeout(defaultVendorTimeout)
	client.SetRetryCount(0)

	return NewTextlocalProviderWithClient(cfg, client)
}

func NewTextlocalProviderWithClient(cfg TextlocalConfig, client *resty.Client) (*TextlocalProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultVendorTimeout)
	}

	return &TextlocalProvider{client: client, cfg: cfg}, nil
}

func (p *TextlocalProvider) Name() string { return textlocalName }

type textlocalResponse struct {
	Status   string `json:"status"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *TextlocalProvider) SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	mobile, err := NormalizeIndianMobile(msg.To)
	if err != nil {
		return nil, err
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"apikey":  p.cfg.APIKey,
			"numbers": mobile,
			"message": TruncateSMSBody(msg.Body, textlocalMaxSMSLength),
			"sender":  p.cfg.Sender,
		}).
		Post("/send/")
	if err != nil {
		return nil, requestFailed(err)
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("textlocal returned status %d", statusCode),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	var parsed textlocalResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    "invalid textlocal response payload",
			Cause:      err,
		}
	}

	if !strings.EqualFold(parsed.Status, "success") {
		message := fmt.Sprintf("textlocal reported status %q", parsed.Status)
		if len(parsed.Errors) > 0 {
			message = fmt.Sprintf("textlocal error %d: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    message,
		}
	}

	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    "textlocal success response missing message id",
		}
	}

	return &SendResult{
		MessageID:  parsed.Messages[0].ID,
		StatusCode: statusCode,
		Body:       body,
		Metadata:   map[string]string{"numbers": mobile},
	}, nil
}

func (p *TextlocalProvider) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	return nil, unsupportedChannel(textlocalName, "EMAIL")
}

func (p *TextlocalProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error) {
	// The gateway delivers DLRs by callback only; there is no poll API.
	return DeliveryUnknown, &ProviderError{
		Message:     "textlocal does not support delivery status polling",
		Unsupported: true,
	}
}
