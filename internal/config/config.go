package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"

	"github.com/homehands/notify-engine/internal/provider"
)

type Config struct {
	DatabaseDSN     string `env:"DATABASE_DSN,required=true"`
	RedisURL        string `env:"REDIS_URL,required=true"`
	APIPort         int    `env:"API_PORT,default=8080"`
	LogLevel        string `env:"LOG_LEVEL,default=info"`
	RateLimitPerSec int    `env:"RATE_LIMIT_PER_SEC,default=30"`

	DefaultMaxRetries  int           `env:"DEFAULT_MAX_RETRIES,default=3"`
	RetrySweepInterval time.Duration `env:"RETRY_SWEEP_INTERVAL,default=5m"`
	RetryCooldown      time.Duration `env:"RETRY_COOLDOWN,default=30m"`
	RetrySweepLimit    int           `env:"RETRY_SWEEP_LIMIT,default=50"`

	TwilioEnabled    bool   `env:"TWILIO_ENABLED,default=false"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER"`

	TextlocalEnabled bool   `env:"TEXTLOCAL_ENABLED,default=false"`
	TextlocalAPIKey  string `env:"TEXTLOCAL_API_KEY"`
	TextlocalSender  string `env:"TEXTLOCAL_SENDER"`

	SMSHorizonEnabled bool   `env:"SMSHORIZON_ENABLED,default=false"`
	SMSHorizonUser    string `env:"SMSHORIZON_USER"`
	SMSHorizonAPIKey  string `env:"SMSHORIZON_API_KEY"`
	SMSHorizonSender  string `env:"SMSHORIZON_SENDER"`

	SendGridEnabled   bool   `env:"SENDGRID_ENABLED,default=false"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `env:"SENDGRID_FROM_NAME"`

	MockFailureRate float64 `env:"MOCK_FAILURE_RATE,default=0"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ProviderSettings maps the flat environment surface onto the vendor
// adapter settings consumed at registry build time.
func (c *Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		TwilioEnabled: c.TwilioEnabled,
		Twilio: provider.TwilioConfig{
			AccountSID: c.TwilioAccountSID,
			AuthToken:  c.TwilioAuthToken,
			FromNumber: c.TwilioFromNumber,
		},
		TextlocalEnabled: c.TextlocalEnabled,
		Textlocal: provider.TextlocalConfig{
			APIKey: c.TextlocalAPIKey,
			Sender: c.TextlocalSender,
		},
		SMSHorizonEnabled: c.SMSHorizonEnabled,
		SMSHorizon: provider.SMSHorizonConfig{
			User:   c.SMSHorizonUser,
			APIKey: c.SMSHorizonAPIKey,
			Sender: c.SMSHorizonSender,
		},
		SendGridEnabled: c.SendGridEnabled,
		SendGrid: provider.SendGridConfig{
			APIKey:    c.SendGridAPIKey,
			FromEmail: c.SendGridFromEmail,
			FromName:  c.SendGridFromName,
		},
		MockFailureRate: c.MockFailureRate,
	}
}
