package provider

import (
	"sort"

	"github.com/homehands/notify-engine/internal/domain"
	"go.uber.org/zap"
)

// Settings selects which vendor adapters to construct at startup. Each
// vendor is independently togglable; the mock adapter always registers.
type Settings struct {
	TwilioEnabled     bool
	Twilio            TwilioConfig
	TextlocalEnabled  bool
	Textlocal         TextlocalConfig
	SMSHorizonEnabled bool
	SMSHorizon        SMSHorizonConfig
	SendGridEnabled   bool
	SendGrid          SendGridConfig
	MockFailureRate   float64
}

// Fixed vendor precedence per channel: domestic gateways are cheaper but
// only cover one country; the international gateway is the universal
// first choice when configured; mock is the development fallback.
var (
	smsPreference   = []string{twilioName, textlocalName, smsHorizonName, mockName}
	emailPreference = []string{sendgridName, mockName}
)

// Registry holds the adapters enabled for this process. It is built once
// at startup and read-only afterwards, so no locking is needed.
type Registry struct {
	providers map[string]Provider
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// BuildRegistry constructs every enabled adapter. A single adapter's
// configuration error is logged and skipped so it never blocks the others.
func BuildRegistry(settings Settings, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register(NewMockProvider(settings.MockFailureRate))

	if settings.TwilioEnabled {
		if p, err := NewTwilioProvider(settings.Twilio); err != nil {
			r.logger.Warn("skipping twilio provider", zap.Error(err))
		} else {
			r.Register(p)
		}
	}
	if settings.TextlocalEnabled {
		if p, err := NewTextlocalProvider(settings.Textlocal); err != nil {
			r.logger.Warn("skipping textlocal provider", zap.Error(err))
		} else {
			r.Register(p)
		}
	}
	if settings.SMSHorizonEnabled {
		if p, err := NewSMSHorizonProvider(settings.SMSHorizon); err != nil {
			r.logger.Warn("skipping smshorizon provider", zap.Error(err))
		} else {
			r.Register(p)
		}
	}
	if settings.SendGridEnabled {
		if p, err := NewSendGridProvider(settings.SendGrid); err != nil {
			r.logger.Warn("skipping sendgrid provider", zap.Error(err))
		} else {
			r.Register(p)
		}
	}

	r.logger.Info("provider registry built", zap.Strings("providers", r.Names()))
	return r
}

func (r *Registry) Register(p Provider) {
	if r == nil || p == nil {
		return
	}
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// ForChannel selects the provider for a channel: the first registered
// adapter in the fixed preference order. One provider per attempt; there
// is no in-call fallback chain.
func (r *Registry) ForChannel(channel domain.Channel) (Provider, bool) {
	if r == nil {
		return nil, false
	}

	var preference []string
	switch channel {
	case domain.ChannelSMS:
		preference = smsPreference
	case domain.ChannelEmail:
		preference = emailPreference
	default:
		return nil, false
	}

	for _, name := range preference {
		if p, ok := r.providers[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// Names returns the registered provider names sorted for stable logging.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
