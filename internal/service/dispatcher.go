package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homehands/notify-engine/internal/domain"
	"github.com/homehands/notify-engine/internal/observability"
	"github.com/homehands/notify-engine/internal/provider"
	"github.com/homehands/notify-engine/internal/ratelimit"
	"github.com/homehands/notify-engine/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DispatchRequest is the inbound dispatch operation from business-event
// handlers: one event, one recipient, one or more channels.
type DispatchRequest struct {
	CustomerID     string
	RecipientName  string
	RecipientPhone string
	RecipientEmail string
	Event          domain.EventType
	Channels       []domain.Channel
	Priority       domain.Priority
	Variables      map[string]string
	OrderRef       *string
	Force          bool
}

func (r DispatchRequest) validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return fmt.Errorf("%w: customer id is required", domain.ErrValidation)
	}
	if !r.Event.IsValid() {
		return fmt.Errorf("%w: invalid event type %q", domain.ErrValidation, r.Event)
	}
	if !r.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, r.Priority)
	}
	if len(r.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", domain.ErrValidation)
	}
	for _, channel := range r.Channels {
		if !channel.IsValid() {
			return fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, channel)
		}
	}
	return nil
}

// ChannelOutcome reports what happened to one channel of a dispatch call.
// A skipped channel produced no notification record at all.
type ChannelOutcome struct {
	Channel        domain.Channel
	NotificationID string
	Status         domain.Status
	ProviderName   string
	Skipped        bool
	SkipReason     string
	Error          string
}

// Dispatcher is the orchestrator: it resolves the template, applies
// preference gating, renders, persists, selects a provider, and performs
// the send. It exclusively owns writes to notifications and their logs.
type Dispatcher struct {
	notifications repository.NotificationRepository
	logs          repository.LogRepository
	templates     repository.TemplateRepository
	preferences   repository.PreferenceRepository
	registry      *provider.Registry
	rateLimiter   ratelimit.RateLimiter
	logger        *zap.Logger
	metrics       *observability.Metrics
	maxRetries    int
	now           func() time.Time
}

func NewDispatcher(
	notifications repository.NotificationRepository,
	logs repository.LogRepository,
	templates repository.TemplateRepository,
	preferences repository.PreferenceRepository,
	registry *provider.Registry,
	rateLimiter ratelimit.RateLimiter,
	maxRetries int,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	if templates == nil {
		return nil, fmt.Errorf("template repository is required")
	}
	if preferences == nil {
		return nil, fmt.Errorf("preference repository is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		notifications: notifications,
		logs:          logs,
		templates:     templates,
		preferences:   preferences,
		registry:      registry,
		rateLimiter:   rateLimiter,
		logger:        logger,
		maxRetries:    maxRetries,
		now:           time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch fans the request out to every requested channel. Channels
// proceed independently: one failing or skipping never affects a sibling,
// and the caller gets one outcome per requested channel, in request order.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) ([]ChannelOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	prefs := d.loadPreference(ctx, req)

	outcomes := make([]ChannelOutcome, len(req.Channels))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, channel := range req.Channels {
		i, channel := i, channel
		g.Go(func() error {
			outcomes[i] = d.dispatchChannel(groupCtx, req, channel, prefs)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

// loadPreference resolves the recipient's preference record. A missing
// record, a forced dispatch, and a store read error all resolve to nil,
// which every preference method treats as default-allow.
func (d *Dispatcher) loadPreference(ctx context.Context, req DispatchRequest) *domain.UserNotificationPreference {
	prefs, err := d.preferences.GetByUserID(ctx, req.CustomerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		d.logger.Warn("preference lookup failed, defaulting to allow",
			zap.String("customerId", req.CustomerID),
			zap.Error(err),
		)
		return nil
	}
	return prefs
}

func (d *Dispatcher) dispatchChannel(
	ctx context.Context,
	req DispatchRequest,
	channel domain.Channel,
	prefs *domain.UserNotificationPreference,
) ChannelOutcome {
	outcome := ChannelOutcome{Channel: channel}

	if !req.Force {
		if reason := gateReason(prefs, channel, req.Event, d.now()); reason != "" {
			d.logger.Info("notification skipped",
				zap.String("customerId", req.CustomerID),
				zap.String("channel", channel.String()),
				zap.String("event", req.Event.String()),
				zap.String("reason", reason),
			)
			if d.metrics != nil {
				d.metrics.IncNotificationSkipped(channel.String(), reason)
			}
			outcome.Skipped = true
			outcome.SkipReason = reason
			return outcome
		}
	}

	tmpl, err := d.templates.GetActive(ctx, req.Event, channel)
	if errors.Is(err, domain.ErrNotFound) {
		// A missing template is a configuration gap, not a send failure.
		d.logger.Warn("no active template for event, skipping channel",
			zap.String("event", req.Event.String()),
			zap.String("channel", channel.String()),
		)
		if d.metrics != nil {
			d.metrics.IncNotificationSkipped(channel.String(), "no_template")
		}
		outcome.Skipped = true
		outcome.SkipReason = "no active template"
		return outcome
	}
	if err != nil {
		outcome.Error = fmt.Sprintf("template lookup failed: %v", err)
		return outcome
	}

	subject, message := tmpl.Render(req.Variables)

	notification := d.buildNotification(req, channel, prefs, tmpl, subject, message)
	if err := notification.Validate(); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		outcome.Error = fmt.Sprintf("failed to persist notification: %v", err)
		return outcome
	}

	sendErr := d.deliver(ctx, notification, domain.LogActionSendAttempt)

	outcome.NotificationID = notification.ID
	outcome.Status = notification.Status
	if notification.ProviderName != nil {
		outcome.ProviderName = *notification.ProviderName
	}
	if sendErr != nil {
		outcome.Error = sendErr.Error()
	}
	return outcome
}

// gateReason returns a non-empty skip reason when preferences block the
// channel. Nil prefs allow everything.
func gateReason(prefs *domain.UserNotificationPreference, channel domain.Channel, event domain.EventType, now time.Time) string {
	if !prefs.AllowsChannel(channel) {
		return "channel disabled by preference"
	}
	if !prefs.AllowsCategory(event.Category()) {
		return "category disabled by preference"
	}
	if prefs.InQuietHours(now) {
		return "quiet hours"
	}
	return ""
}

func (d *Dispatcher) buildNotification(
	req DispatchRequest,
	channel domain.Channel,
	prefs *domain.UserNotificationPreference,
	tmpl *domain.NotificationTemplate,
	subject, message string,
) *domain.Notification {
	phone := strings.TrimSpace(req.RecipientPhone)
	email := strings.TrimSpace(req.RecipientEmail)
	if prefs != nil {
		if preferred := strings.TrimSpace(prefs.PreferredPhone); preferred != "" {
			phone = preferred
		}
		if preferred := strings.TrimSpace(prefs.PreferredEmail); preferred != "" {
			email = preferred
		}
	}

	notification := &domain.Notification{
		ID:             uuid.NewString(),
		CustomerID:     strings.TrimSpace(req.CustomerID),
		RecipientName:  strings.TrimSpace(req.RecipientName),
		RecipientPhone: phone,
		RecipientEmail: email,
		Channel:        channel,
		EventType:      req.Event,
		Priority:       req.Priority,
		Message:        message,
		OrderRef:       req.OrderRef,
		Status:         domain.StatusPending,
		MaxRetries:     d.maxRetries,
	}

	if subject != "" {
		notification.Subject = &subject
	}
	if tmpl.ID != "" {
		templateID := tmpl.ID
		notification.TemplateID = &templateID
	}

	return notification
}

// deliver performs one physical send attempt for an already-persisted
// notification and records the outcome: the record is updated in place and
// exactly one log entry is appended, success or failure. The sweeper uses
// the same path with the retry action label.
func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification, action domain.LogAction) error {
	p, ok := d.registry.ForChannel(n.Channel)
	if !ok {
		sendErr := fmt.Errorf("no provider available for channel %s", n.Channel)
		d.recordAttemptLog(ctx, n.ID, action, nil, sendErr, 0)
		d.applyFailure(ctx, n, sendErr)
		return sendErr
	}

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, p.Name()); err != nil {
			sendErr := fmt.Errorf("rate limiter wait failed: %w", err)
			d.recordAttemptLog(ctx, n.ID, action, nil, sendErr, 0)
			d.applyFailure(ctx, n, sendErr)
			return sendErr
		}
	}

	start := d.now()
	result, sendErr := d.send(ctx, p, n)
	elapsed := d.now().Sub(start)

	if d.metrics != nil {
		d.metrics.ObserveProviderSendDuration(p.Name(), elapsed)
	}

	d.recordAttemptLog(ctx, n.ID, action, result, sendErr, elapsed)

	if sendErr != nil {
		d.applyFailure(ctx, n, sendErr)
		if d.metrics != nil {
			d.metrics.IncNotificationFailed(n.Channel.String(), failureReason(sendErr))
		}
		d.logger.Warn("notification send failed",
			zap.String("notificationId", n.ID),
			zap.String("provider", p.Name()),
			zap.String("channel", n.Channel.String()),
			zap.Error(sendErr),
		)
		return sendErr
	}

	d.applySuccess(ctx, n, p.Name(), result)
	if d.metrics != nil {
		d.metrics.IncNotificationSent(n.Channel.String(), p.Name())
	}
	d.logger.Info("notification sent",
		zap.String("notificationId", n.ID),
		zap.String("provider", p.Name()),
		zap.String("channel", n.Channel.String()),
		zap.String("providerMessageId", result.MessageID),
	)
	return nil
}

func (d *Dispatcher) send(ctx context.Context, p provider.Provider, n *domain.Notification) (*provider.SendResult, error) {
	switch n.Channel {
	case domain.ChannelSMS:
		return p.SendSMS(ctx, provider.SMSMessage{
			To:   n.RecipientPhone,
			Body: n.Message,
		})
	case domain.ChannelEmail:
		var subject string
		if n.Subject != nil {
			subject = *n.Subject
		}
		return p.SendEmail(ctx, provider.EmailMessage{
			To:      n.RecipientEmail,
			ToName:  n.RecipientName,
			Subject: subject,
			Body:    n.Message,
		})
	default:
		return nil, fmt.Errorf("unsupported channel %s", n.Channel)
	}
}

func (d *Dispatcher) applySuccess(ctx context.Context, n *domain.Notification, providerName string, result *provider.SendResult) {
	sentAt := d.now().UTC()
	messageID := result.MessageID

	outcome := repository.SendOutcome{
		Status:            domain.StatusSent,
		ProviderName:      &providerName,
		ProviderMessageID: &messageID,
		SentAt:            &sentAt,
		RetryCount:        n.RetryCount,
		ProviderMetadata:  result.Metadata,
	}
	if err := d.notifications.UpdateSendOutcome(ctx, n.ID, outcome); err != nil {
		d.logger.Error("failed to persist send success",
			zap.String("notificationId", n.ID),
			zap.Error(err),
		)
	}

	n.Status = domain.StatusSent
	n.ProviderName = &providerName
	n.ProviderMessageID = &messageID
	n.SentAt = &sentAt
	n.LastError = nil
	n.ProviderMetadata = result.Metadata
}

func (d *Dispatcher) applyFailure(ctx context.Context, n *domain.Notification, sendErr error) {
	message := sendErr.Error()

	outcome := repository.SendOutcome{
		Status:     domain.StatusFailed,
		LastError:  &message,
		RetryCount: n.RetryCount,
	}
	if err := d.notifications.UpdateSendOutcome(ctx, n.ID, outcome); err != nil {
		d.logger.Error("failed to persist send failure",
			zap.String("notificationId", n.ID),
			zap.Error(err),
		)
	}

	n.Status = domain.StatusFailed
	n.LastError = &message
}

func (d *Dispatcher) recordAttemptLog(
	ctx context.Context,
	notificationID string,
	action domain.LogAction,
	result *provider.SendResult,
	sendErr error,
	elapsed time.Duration,
) {
	var statusCode *int
	var responseBody *string
	var attemptErr *string

	if result != nil {
		if result.StatusCode > 0 {
			value := result.StatusCode
			statusCode = &value
		}
		if body := strings.TrimSpace(result.Body); body != "" {
			responseBody = &body
		}
	}

	if sendErr != nil {
		value := sendErr.Error()
		attemptErr = &value

		var providerErr *provider.ProviderError
		if errors.As(sendErr, &providerErr) && providerErr.StatusCode > 0 && statusCode == nil {
			code := providerErr.StatusCode
			statusCode = &code
		}
	}

	entry := &domain.NotificationLog{
		ID:             uuid.NewString(),
		NotificationID: notificationID,
		Action:         action,
		StatusCode:     statusCode,
		ResponseBody:   responseBody,
		Error:          attemptErr,
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      d.now().UTC(),
	}

	if err := d.logs.Create(ctx, entry); err != nil {
		d.logger.Error("failed to append notification log",
			zap.String("notificationId", notificationID),
			zap.Error(err),
		)
	}
}

func failureReason(sendErr error) string {
	switch {
	case provider.IsUnsupported(sendErr):
		return "unsupported_channel"
	case provider.IsTransient(sendErr):
		return "transient_error"
	default:
		return "permanent_error"
	}
}

// SyncDeliveryStatus polls the provider that accepted a SENT notification
// and promotes it to DELIVERED when the vendor confirms receipt.
func (d *Dispatcher) SyncDeliveryStatus(ctx context.Context, id string) (provider.DeliveryState, error) {
	notification, err := d.notifications.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return provider.DeliveryUnknown, err
	}

	if notification.Status != domain.StatusSent {
		return provider.DeliveryUnknown, fmt.Errorf("%w: notification %s is %s, not SENT", domain.ErrValidation, id, notification.Status)
	}
	if notification.ProviderName == nil || notification.ProviderMessageID == nil {
		return provider.DeliveryUnknown, fmt.Errorf("%w: notification %s has no provider message id", domain.ErrValidation, id)
	}

	p, ok := d.registry.Get(*notification.ProviderName)
	if !ok {
		return provider.DeliveryUnknown, fmt.Errorf("%w: provider %s is no longer registered", domain.ErrValidation, *notification.ProviderName)
	}

	state, err := p.DeliveryStatus(ctx, *notification.ProviderMessageID)
	if err != nil {
		return provider.DeliveryUnknown, err
	}

	if state == provider.DeliveryDelivered {
		if err := d.notifications.MarkDelivered(ctx, notification.ID, d.now().UTC()); err != nil {
			return state, err
		}
	}

	return state, nil
}

// Cancel is the administrative CANCELLED transition.
func (d *Dispatcher) Cancel(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return d.notifications.Cancel(ctx, strings.TrimSpace(id))
}

func (d *Dispatcher) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return d.notifications.GetByID(ctx, strings.TrimSpace(id))
}

func (d *Dispatcher) List(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	return d.notifications.List(ctx, params)
}

func (d *Dispatcher) GetLogs(ctx context.Context, notificationID string) ([]domain.NotificationLog, error) {
	if strings.TrimSpace(notificationID) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return d.logs.GetByNotificationID(ctx, strings.TrimSpace(notificationID))
}
