package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
)

func testSMSHorizonConfig() SMSHorizonConfig {
	return SMSHorizonConfig{User: "homehands", APIKey: "sh-key", Sender: "HMHNDS"}
}

func newSMSHorizonAgainst(t *testing.T, serverURL string) *SMSHorizonProvider {
	t.Helper()

	client := resty.New()
	client.SetBaseURL(serverURL)

	p, err := NewSMSHorizonProviderWithClient(testSMSHorizonConfig(), client)
	if err != nil {
		t.Fatalf("NewSMSHorizonProviderWithClient() error = %v", err)
	}
	return p
}

func TestNewSMSHorizonProviderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSMSHorizonProvider(SMSHorizonConfig{APIKey: "k", Sender: "S"}); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, err := NewSMSHorizonProvider(SMSHorizonConfig{User: "u", Sender: "S"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewSMSHorizonProvider(SMSHorizonConfig{User: "u", APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing sender")
	}
}

func TestSMSHorizonSendSMSLegacyTextResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/sendsms.php" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("user") != "homehands" || q.Get("apikey") != "sh-key" {
			t.Errorf("credentials = %q/%q", q.Get("user"), q.Get("apikey"))
		}
		if q.Get("mobile") != "919876543210" {
			t.Errorf("mobile = %q", q.Get("mobile"))
		}
		if q.Get("type") != "txt" {
			t.Errorf("type = %q", q.Get("type"))
		}

		_, _ = w.Write([]byte("OK: 556677"))
	}))
	defer server.Close()

	p := newSMSHorizonAgainst(t, server.URL)

	result, err := p.SendSMS(context.Background(), SMSMessage{To: "9876543210", Body: "hello"})
	if err != nil {
		t.Fatalf("SendSMS() unexpected error: %v", err)
	}
	if result.MessageID != "556677" {
		t.Fatalf("MessageID = %q, want 556677", result.MessageID)
	}
}

func TestSMSHorizonSendSMSJSONResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","message_id":"778899"}`))
	}))
	defer server.Close()

	p := newSMSHorizonAgainst(t, server.URL)

	result, err := p.SendSMS(context.Background(), SMSMessage{To: "9876543210", Body: "hello"})
	if err != nil {
		t.Fatalf("SendSMS() unexpected error: %v", err)
	}
	if result.MessageID != "778899" {
		t.Fatalf("MessageID = %q, want 778899", result.MessageID)
	}
}

func TestSMSHorizonSendSMSErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          string
		wantInMessage string
	}{
		{name: "legacy error line", body: "ERROR: invalid sender id", wantInMessage: "invalid sender id"},
		{name: "json error", body: `{"status":"ERROR","message":"account suspended"}`, wantInMessage: "account suspended"},
		{name: "unrecognized body", body: "what is this", wantInMessage: "unrecognized"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newSMSHorizonAgainst(t, server.URL)

			_, err := p.SendSMS(context.Background(), SMSMessage{To: "9876543210", Body: "hello"})
			if err == nil {
				t.Fatal("expected error")
			}
			if IsTransient(err) {
				t.Fatalf("vendor rejection should be permanent, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantInMessage) {
				t.Fatalf("error %q missing %q", err.Error(), tt.wantInMessage)
			}
		})
	}
}

func TestSMSHorizonDeliveryStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want DeliveryState
	}{
		{name: "delivered", line: "556677|919876543210|1|2026-03-01 10:05:00", want: DeliveryDelivered},
		{name: "failed", line: "556677|919876543210|2|", want: DeliveryFailed},
		{name: "sent", line: "556677|919876543210|3|", want: DeliverySent},
		{name: "rejected", line: "556677|919876543210|4|", want: DeliveryRejected},
		{name: "unknown code", line: "556677|919876543210|9|", want: DeliveryUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/status.php" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("msgid"); got != "556677" {
					t.Errorf("msgid = %q", got)
				}
				_, _ = w.Write([]byte(tt.line))
			}))
			defer server.Close()

			p := newSMSHorizonAgainst(t, server.URL)

			state, err := p.DeliveryStatus(context.Background(), "556677")
			if err != nil {
				t.Fatalf("DeliveryStatus() unexpected error: %v", err)
			}
			if state != tt.want {
				t.Fatalf("state = %s, want %s", state, tt.want)
			}
		})
	}
}

func TestSMSHorizonDeliveryStatusMalformedLine(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	p := newSMSHorizonAgainst(t, server.URL)

	if _, err := p.DeliveryStatus(context.Background(), "556677"); err == nil {
		t.Fatal("expected error for malformed status line")
	}
}

func TestSMSHorizonSendEmailUnsupported(t *testing.T) {
	t.Parallel()

	p, err := NewSMSHorizonProvider(testSMSHorizonConfig())
	if err != nil {
		t.Fatalf("NewSMSHorizonProvider() error = %v", err)
	}

	_, err = p.SendEmail(context.Background(), EmailMessage{To: "asha@example.com"})
	if !IsUnsupported(err) {
		t.Fatalf("expected unsupported channel error, got %v", err)
	}
}
