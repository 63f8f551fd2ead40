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
	smsHorizonName         = "smshorizon"
	smsHorizonBaseURL      = "https://smshorizon.co.in"
	smsHorizonMaxSMSLength = 1000
)

// SMSHorizonConfig carries the credentials for domestic SMS gateway B.
type SMSHorizonConfig struct {
	User   string
	APIKey string
	Sender string
}

func (c SMSHorizonConfig) validate() error {
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("smshorizon user is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("smshorizon api key is required")
	}
	if strings.TrimSpace(c.Sender) == "" {
		return fmt.Errorf("smshorizon sender id is required")
	}
	return nil
}

// SMSHorizonProvider sends SMS through a GET-style gateway that answers
// with "OK: <id>" / "ERROR: <message>" text lines. Newer gateway builds
// answer with a JSON object instead; both shapes are accepted.
type SMSHorizonProvider struct {
	client *resty.Client
	cfg    SMSHorizonConfig
}

func NewSMSHorizonProvider(cfg SMSHorizonConfig) (*SMSHorizonProvider, error) {
	client := resty.New()
	client.SetBaseURL(smsHorizonBaseURL)
	client.SetTimeout(defaultVendorTimeout)
	client.SetRetryCount(0)

	return NewSMSHorizonProviderWithClient(cfg, client)
}

func NewSMSHorizonProviderWithClient(cfg SMSHorizonConfig, client *resty.Client) (*SMSHorizonProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultVendorTimeout)
	}

	return &SMSHorizonProvider{client: client, cfg: cfg}, nil
}

func (p *SMSHorizonProvider) Name() string { return smsHorizonName }

type smsHorizonJSONResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

func (p *SMSHorizonProvider) SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	mobile, err := NormalizeIndianMobile(msg.To)
	if err != nil {
		return nil, err
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user":     p.cfg.User,
			"apikey":   p.cfg.APIKey,
			"mobile":   mobile,
			"message":  TruncateSMSBody(msg.Body, smsHorizonMaxSMSLength),
			"senderid": p.cfg.Sender,
			"type":     "txt",
		}).
		Get("/api/sendsms.php")
	if err != nil {
		return nil, requestFailed(err)
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("smshorizon returned status %d", statusCode),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	messageID, err := parseSMSHorizonSendBody(body, statusCode)
	if err != nil {
		return nil, err
	}

	return &SendResult{
		MessageID:  messageID,
		StatusCode: statusCode,
		Body:       body,
		Metadata:   map[string]string{"mobile": mobile},
	}, nil
}

func parseSMSHorizonSendBody(body string, statusCode int) (string, error) {
	if strings.HasPrefix(body, "{") {
		var parsed smsHorizonJSONResponse
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			return "", &ProviderError{
				StatusCode: statusCode,
				Message:    "invalid smshorizon json payload",
				Cause:      err,
			}
		}
		if !strings.EqualFold(parsed.Status, "OK") {
			return "", &ProviderError{
				StatusCode: statusCode,
				Message:    fmt.Sprintf("smshorizon error: %s", parsed.Message),
			}
		}
		if parsed.MessageID == "" {
			return "", &ProviderError{
				StatusCode: statusCode,
				Message:    "smshorizon response missing message id",
			}
		}
		return parsed.MessageID, nil
	}

	if id, ok := strings.CutPrefix(body, "OK:"); ok {
		id = strings.TrimSpace(id)
		if id == "" {
			return "", &ProviderError{
				StatusCode: statusCode,
				Message:    "smshorizon OK response missing message id",
			}
		}
		return id, nil
	}

	if msg, ok := strings.CutPrefix(body, "ERROR:"); ok {
		return "", &ProviderError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("smshorizon error: %s", strings.TrimSpace(msg)),
		}
	}

	return "", &ProviderError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("unrecognized smshorizon response: %s", body),
	}
}

func (p *SMSHorizonProvider) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	return nil, unsupportedChannel(smsHorizonName, "EMAIL")
}

// DeliveryStatus polls the gateway DLR endpoint, which answers a
// pipe-delimited line: msgid|mobile|status_code|delivered_time.
func (p *SMSHorizonProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error) {
	if p == nil || p.client == nil {
		return DeliveryUnknown, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(providerMessageID) == "" {
		return DeliveryUnknown, &ProviderError{Message: "provider message id is required"}
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user":   p.cfg.User,
			"apikey": p.cfg.APIKey,
			"msgid":  providerMessageID,
		}).
		Get("/api/status.php")
	if err != nil {
		return DeliveryUnknown, requestFailed(err)
	}

	if response.StatusCode() != http.StatusOK {
		return DeliveryUnknown, &ProviderError{
			StatusCode: response.StatusCode(),
			Message:    fmt.Sprintf("smshorizon status lookup returned %d", response.StatusCode()),
			Transient:  isTransientHTTPStatus(response.StatusCode()),
		}
	}

	return parseSMSHorizonStatusLine(strings.TrimSpace(response.String()))
}

func parseSMSHorizonStatusLine(line string) (DeliveryState, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		return DeliveryUnknown, &ProviderError{
			Message: fmt.Sprintf("malformed smshorizon status line: %q", line),
		}
	}

	switch strings.TrimSpace(fields[2]) {
	case "1":
		return DeliveryDelivered, nil
	case "2":
		return DeliveryFailed, nil
	case "3":
		return DeliverySent, nil
	case "4":
		return DeliveryRejected, nil
	default:
		return DeliveryUnknown, nil
	}
}
