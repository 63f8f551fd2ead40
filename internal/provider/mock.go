package provider

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	mockName         = "mock"
	defaultMockDelay = 20 * time.Millisecond
)

// MockProvider simulates a vendor without network I/O. It always registers,
// so local and test environments have at least one usable provider, and it
// can simulate failures at a configurable probability.
type MockProvider struct {
	failureRate float64
	delay       time.Duration
	randFloat   func() float64
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewMockProvider(failureRate float64) *MockProvider {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}

	return &MockProvider{
		failureRate: failureRate,
		delay:       defaultMockDelay,
		randFloat:   rand.Float64,
		sleep:       sleepWithContext,
	}
}

func (p *MockProvider) Name() string { return mockName }

func (p *MockProvider) SendSMS(ctx context.Context, msg SMSMessage) (*SendResult, error) {
	return p.simulateSend(ctx, "sms", msg.To)
}

func (p *MockProvider) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	return p.simulateSend(ctx, "email", msg.To)
}

func (p *MockProvider) DeliveryStatus(ctx context.Context, providerMessageID string) (DeliveryState, error) {
	if providerMessageID == "" {
		return DeliveryUnknown, &ProviderError{Message: "provider message id is required"}
	}
	return DeliveryDelivered, nil
}

func (p *MockProvider) simulateSend(ctx context.Context, kind string, to string) (*SendResult, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	if err := p.sleep(ctx, p.delay); err != nil {
		return nil, requestFailed(err)
	}

	if p.failureRate > 0 && p.randFloat() < p.failureRate {
		return nil, &ProviderError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    fmt.Sprintf("simulated %s delivery failure", kind),
			Transient:  true,
		}
	}

	return &SendResult{
		MessageID:  "mock-" + uuid.NewString(),
		StatusCode: http.StatusOK,
		Metadata: map[string]string{
			"simulated": "true",
			"kind":      kind,
			"to":        to,
		},
	}, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
