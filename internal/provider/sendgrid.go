package provider

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	sendgridName    = "sendgrid"
	sendgridBaseURL = "https://api.sendgrid.com"
)

// SendGridConfig carries the credentials for the transactional email gateway.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func (c SendGridConfig) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("sendgrid api key is required")
	}
	from := strings.TrimSpace(c.FromEmail)
	if from == "" {
		return fmt.Errorf("sendgrid from email is required")
	}
	if !strings.Contains(from, "@") {
		return fmt.Errorf("sendgrid from email %q is not an email address", from)
	}
	return nil
}

// SendGridProvider sends transactional email through the SendGrid v3 mail
// API. The plain-text body is paired with a generated minimal HTML part.
type SendGridProvider struct {
	client *resty.Client
	cfg    SendGridConfig
}

func NewSendGridProvider(cfg SendGridConfig) (*SendGridProvider, error) {
	client := resty.New()
	client.SetBaseURL(sendgridBaseURL)
	client.SetTimeout(defaultVendorTimeout)
	client.SetRetryCount(0)

	return NewSendGridProviderWithClient(cfg, client)
}

func NewSendGridProviderWithClient(cfg SendGridConfig, client *resty.Client) (*SendGridProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultVendorTimeout)
	}

	return &SendGridProvider{client: client, cfg: cfg}, nil
}

func (p *SendGridProvider) Name() string { return sendgridName }

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPersonalization struct {
	To      []sendgridAddress `json:"to"`
	Subject string            `json:"subject"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridMailRequest struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Content          []sendgridContent         `json:"content"`
}

func (p *SendGridProvider) SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error) {
	return nil, unsupportedChannel(sendgridName, "SMS")
}

func (p *SendGridProvider) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, &ProviderError{Message: "recipient email is required"}
	}

	reqBody := sendgridMailRequest{
		Personalizations: []sendgridPersonalization{
			{
				To:      []sendgridAddress{{Email: to, Name: strings.TrimSpace(msg.ToName)}},
				Subject: msg.Subject,
			},
		},
		From: sendgridAddress{Email: p.cfg.FromEmail, Name: p.cfg.FromName},
		Content: []sendgridContent{
			{Type: "text/plain", Value: msg.Body},
			{Type: "text/html", Value: textToHTML(msg.Body)},
		},
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(p.cfg.APIKey).
		SetBody(reqBody).
		Post("/v3/mail/send")
	if err != nil {
		return nil, requestFailed(err)
	}

	statusCode := response.StatusCode()
	if statusCode != http.StatusAccepted {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("sendgrid returned status %d: %s", statusCode, strings.TrimSpace(response.String())),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	messageID := strings.TrimSpace(response.Header().Get("X-Message-Id"))
	if messageID == "" {
		messageID = "sg-" + uuid.NewString()
	}

	return &SendResult{
		MessageID:  messageID,
		StatusCode: statusCode,
		Metadata:   map[string]string{"to": to},
	}, nil
}

func (p *SendGridProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error) {
	// Delivery events arrive via the event webhook; there is no per-message poll.
	return DeliveryUnknown, &ProviderError{
		Message:     "sendgrid does not support delivery status polling",
		Unsupported: true,
	}
}

// textToHTML wraps a plain-text body in a minimal styled HTML alternative.
func textToHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,Helvetica,sans-serif;font-size:14px;color:#333;line-height:1.5;">`)

	for i, paragraph := range strings.Split(body, "\n\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(paragraph), "\n", "<br>"))
		b.WriteString("</p>")
	}

	b.WriteString("</div>")
	return b.String()
}
