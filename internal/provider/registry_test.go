package provider

import (
	"testing"

	"github.com/homehands/notify-engine/internal/domain"
	"go.uber.org/zap"
)

func TestBuildRegistryAlwaysIncludesMock(t *testing.T) {
	t.Parallel()

	r := BuildRegistry(Settings{}, zap.NewNop())

	names := r.Names()
	if len(names) != 1 || names[0] != "mock" {
		t.Fatalf("Names() = %v, want [mock]", names)
	}

	p, ok := r.ForChannel(domain.ChannelSMS)
	if !ok || p.Name() != "mock" {
		t.Fatalf("ForChannel(SMS) = %v, %v", p, ok)
	}
	p, ok = r.ForChannel(domain.ChannelEmail)
	if !ok || p.Name() != "mock" {
		t.Fatalf("ForChannel(EMAIL) = %v, %v", p, ok)
	}
}

func TestBuildRegistrySkipsMisconfiguredAdapter(t *testing.T) {
	t.Parallel()

	// Textlocal is enabled with valid config; twilio is enabled with a
	// broken one. The broken adapter must not block the valid one.
	r := BuildRegistry(Settings{
		TwilioEnabled:    true,
		Twilio:           TwilioConfig{AccountSID: "AC1"},
		TextlocalEnabled: true,
		Textlocal:        TextlocalConfig{APIKey: "k", Sender: "SENDER"},
	}, zap.NewNop())

	if _, ok := r.Get("twilio"); ok {
		t.Fatal("misconfigured twilio should not register")
	}
	if _, ok := r.Get("textlocal"); !ok {
		t.Fatal("textlocal should register")
	}

	p, ok := r.ForChannel(domain.ChannelSMS)
	if !ok || p.Name() != "textlocal" {
		t.Fatalf("ForChannel(SMS) should fall through to textlocal, got %v", p)
	}
}

func TestRegistrySelectionOrder(t *testing.T) {
	t.Parallel()

	full := BuildRegistry(Settings{
		TwilioEnabled:     true,
		Twilio:            TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1500"},
		TextlocalEnabled:  true,
		Textlocal:         TextlocalConfig{APIKey: "k", Sender: "SENDER"},
		SMSHorizonEnabled: true,
		SMSHorizon:        SMSHorizonConfig{User: "u", APIKey: "k", Sender: "S"},
		SendGridEnabled:   true,
		SendGrid:          SendGridConfig{APIKey: "k", FromEmail: "a@b.c"},
	}, zap.NewNop())

	if p, _ := full.ForChannel(domain.ChannelSMS); p.Name() != "twilio" {
		t.Fatalf("SMS first choice = %s, want twilio", p.Name())
	}
	if p, _ := full.ForChannel(domain.ChannelEmail); p.Name() != "sendgrid" {
		t.Fatalf("EMAIL first choice = %s, want sendgrid", p.Name())
	}

	// Without twilio and textlocal, smshorizon leads the SMS order.
	partial := BuildRegistry(Settings{
		SMSHorizonEnabled: true,
		SMSHorizon:        SMSHorizonConfig{User: "u", APIKey: "k", Sender: "S"},
	}, zap.NewNop())

	if p, _ := partial.ForChannel(domain.ChannelSMS); p.Name() != "smshorizon" {
		t.Fatalf("SMS choice = %s, want smshorizon", p.Name())
	}
}

func TestRegistryForChannelInvalidChannel(t *testing.T) {
	t.Parallel()

	r := BuildRegistry(Settings{}, zap.NewNop())
	if _, ok := r.ForChannel(domain.Channel("PUSH")); ok {
		t.Fatal("unknown channel should have no provider")
	}
}
