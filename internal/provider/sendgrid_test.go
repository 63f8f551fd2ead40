package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
)

func testSendGridConfig() SendGridConfig {
	return SendGridConfig{
		APIKey:    "SG.key",
		FromEmail: "no-reply@homehands.in",
		FromName:  "HomeHands",
	}
}

func newSendGridAgainst(t *testing.T, serverURL string) *SendGridProvider {
	t.Helper()

	client := resty.New()
	client.SetBaseURL(serverURL)

	p, err := NewSendGridProviderWithClient(testSendGridConfig(), client)
	if err != nil {
		t.Fatalf("NewSendGridProviderWithClient() error = %v", err)
	}
	return p
}

func TestNewSendGridProviderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSendGridProvider(SendGridConfig{FromEmail: "a@b.c"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewSendGridProvider(SendGridConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing from email")
	}
	if _, err := NewSendGridProvider(SendGridConfig{APIKey: "k", FromEmail: "not-an-email"}); err == nil {
		t.Fatal("expected error for malformed from email")
	}
}

func TestSendGridSendEmailSuccess(t *testing.T) {
	t.Parallel()

	var gotBody sendgridMailRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/mail/send" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer SG.key" {
			t.Errorf("authorization = %q", got)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}

		w.Header().Set("X-Message-Id", "sg-msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	p := newSendGridAgainst(t, server.URL)

	result, err := p.SendEmail(context.Background(), EmailMessage{
		To:      "asha@example.com",
		ToName:  "Asha",
		Subject: "Order HH-1001 received",
		Body:    "Hi Asha,\n\nYour order is confirmed.",
	})
	if err != nil {
		t.Fatalf("SendEmail() unexpected error: %v", err)
	}
	if result.MessageID != "sg-msg-1" {
		t.Fatalf("MessageID = %q, want sg-msg-1", result.MessageID)
	}

	if len(gotBody.Personalizations) != 1 {
		t.Fatalf("personalizations = %d, want 1", len(gotBody.Personalizations))
	}
	personalization := gotBody.Personalizations[0]
	if personalization.Subject != "Order HH-1001 received" {
		t.Fatalf("subject = %q", personalization.Subject)
	}
	if len(personalization.To) != 1 || personalization.To[0].Email != "asha@example.com" {
		t.Fatalf("to = %+v", personalization.To)
	}
	if gotBody.From.Email != "no-reply@homehands.in" {
		t.Fatalf("from = %q", gotBody.From.Email)
	}

	if len(gotBody.Content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(gotBody.Content))
	}
	if gotBody.Content[0].Type != "text/plain" {
		t.Fatalf("first content type = %q, want text/plain", gotBody.Content[0].Type)
	}
	if gotBody.Content[1].Type != "text/html" {
		t.Fatalf("second content type = %q, want text/html", gotBody.Content[1].Type)
	}
	if !strings.Contains(gotBody.Content[1].Value, "<p>") {
		t.Fatalf("html part missing paragraph markup: %q", gotBody.Content[1].Value)
	}
}

func TestSendGridSynthesizesMessageIDWithoutHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	p := newSendGridAgainst(t, server.URL)

	result, err := p.SendEmail(context.Background(), EmailMessage{To: "asha@example.com", Subject: "hi", Body: "hello"})
	if err != nil {
		t.Fatalf("SendEmail() unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.MessageID, "sg-") {
		t.Fatalf("MessageID = %q, want synthesized sg- prefix", result.MessageID)
	}
}

func TestSendGridErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "unauthorized is permanent", statusCode: http.StatusUnauthorized, wantTransient: false},
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "server error is transient", statusCode: http.StatusServiceUnavailable, wantTransient: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"errors":[{"message":"nope"}]}`))
			}))
			defer server.Close()

			p := newSendGridAgainst(t, server.URL)

			_, err := p.SendEmail(context.Background(), EmailMessage{To: "asha@example.com", Subject: "hi", Body: "hello"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsTransient(err); got != tt.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
		})
	}
}

func TestSendGridSendSMSUnsupported(t *testing.T) {
	t.Parallel()

	p, err := NewSendGridProvider(testSendGridConfig())
	if err != nil {
		t.Fatalf("NewSendGridProvider() error = %v", err)
	}

	_, err = p.SendSMS(context.Background(), SMSMessage{To: "+919876543210"})
	if !IsUnsupported(err) {
		t.Fatalf("expected unsupported channel error, got %v", err)
	}
}

func TestTextToHTML(t *testing.T) {
	t.Parallel()

	got := textToHTML("Hi Asha,\n\nYour order <HH-1001> is in.\nThanks.")
	if !strings.Contains(got, "&lt;HH-1001&gt;") {
		t.Fatalf("html output not escaped: %q", got)
	}
	if strings.Count(got, "<p>") != 2 {
		t.Fatalf("expected two paragraphs: %q", got)
	}
	if !strings.Contains(got, "is in.<br>Thanks.") {
		t.Fatalf("single newline should become <br>: %q", got)
	}
}
