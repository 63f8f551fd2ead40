package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/homehands/notify-engine/internal/domain"
)

// ProviderError classifies vendor call failures. Transient failures are
// eligible for the retry sweep; Unsupported marks a channel the adapter
// can never serve, which no retry will fix.
type ProviderError struct {
	StatusCode  int
	Message     string
	Transient   bool
	Unsupported bool
	Cause       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "provider error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsUnsupported reports whether an adapter refused a channel it cannot serve.
func IsUnsupported(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Unsupported
}

func unsupportedChannel(providerName string, channel domain.Channel) *ProviderError {
	return &ProviderError{
		Message:     fmt.Sprintf("provider %s does not support channel %s", providerName, channel),
		Unsupported: true,
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout ||
		(statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func requestFailed(err error) *ProviderError {
	return &ProviderError{
		Message:   "provider request failed",
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}
}
