package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/homehands/notify-engine/internal/domain"
	"github.com/homehands/notify-engine/internal/provider"
	"github.com/homehands/notify-engine/internal/repository"
	"github.com/homehands/notify-engine/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type DispatchService interface {
	Dispatch(ctx context.Context, req service.DispatchRequest) ([]service.ChannelOutcome, error)
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error)
	GetLogs(ctx context.Context, notificationID string) ([]domain.NotificationLog, error)
	Cancel(ctx context.Context, id string) error
	SyncDeliveryStatus(ctx context.Context, id string) (provider.DeliveryState, error)
}

type NotificationHandler struct {
	service DispatchService
}

func NewNotificationHandler(service DispatchService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service DispatchService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/dispatch", h.Dispatch)
	v1.Get("/notifications", h.ListNotifications)
	v1.Get("/notifications/:id", h.GetNotification)
	v1.Get("/notifications/:id/logs", h.GetNotificationLogs)
	v1.Post("/notifications/:id/cancel", h.CancelNotification)
	v1.Post("/notifications/:id/sync-status", h.SyncDeliveryStatus)

	return nil
}

type dispatchRequest struct {
	CustomerID     string            `json:"customerId"`
	RecipientName  string            `json:"recipientName"`
	RecipientPhone string            `json:"recipientPhone"`
	RecipientEmail string            `json:"recipientEmail"`
	Event          string            `json:"event"`
	Channels       []string          `json:"channels"`
	Priority       string            `json:"priority"`
	Variables      map[string]string `json:"variables"`
	OrderRef       *string           `json:"orderRef,omitempty"`
	Force          bool              `json:"force"`
}

type channelOutcomeResponse struct {
	Channel        string `json:"channel"`
	NotificationID string `json:"notificationId,omitempty"`
	Status         string `json:"status,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Skipped        bool   `json:"skipped"`
	SkipReason     string `json:"skipReason,omitempty"`
	Error          string `json:"error,omitempty"`
}

type dispatchResponse struct {
	Outcomes []channelOutcomeResponse `json:"outcomes"`
}

type notificationResponse struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customerId"`
	RecipientName     string            `json:"recipientName,omitempty"`
	RecipientPhone    string            `json:"recipientPhone,omitempty"`
	RecipientEmail    string            `json:"recipientEmail,omitempty"`
	Channel           string            `json:"channel"`
	Event             string            `json:"event"`
	Priority          string            `json:"priority"`
	Subject           *string           `json:"subject,omitempty"`
	Message           string            `json:"message"`
	OrderRef          *string           `json:"orderRef,omitempty"`
	TemplateID        *string           `json:"templateId,omitempty"`
	Status            string            `json:"status"`
	ProviderName      *string           `json:"providerName,omitempty"`
	ProviderMessageID *string           `json:"providerMessageId,omitempty"`
	LastError         *string           `json:"lastError,omitempty"`
	RetryCount        int               `json:"retryCount"`
	MaxRetries        int               `json:"maxRetries"`
	ProviderMetadata  map[string]string `json:"providerMetadata,omitempty"`
	SentAt            *time.Time        `json:"sentAt,omitempty"`
	DeliveredAt       *time.Time        `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

type notificationLogResponse struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notificationId"`
	Action         string    `json:"action"`
	StatusCode     *int      `json:"statusCode,omitempty"`
	ResponseBody   *string   `json:"responseBody,omitempty"`
	Error          *string   `json:"error,omitempty"`
	DurationMillis int64     `json:"durationMs"`
	CreatedAt      time.Time `json:"createdAt"`
}

type listNotificationsResponse struct {
	Data []notificationResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *NotificationHandler) Dispatch(c *fiber.Ctx) error {
	var req dispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	dispatchReq, err := requestToDispatchRequest(req)
	if err != nil {
		return toHTTPError(err)
	}

	outcomes, err := h.service.Dispatch(c.Context(), dispatchReq)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchResponse(outcomes))
}

func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	notification, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) GetNotificationLogs(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	logs, err := h.service.GetLogs(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]notificationLogResponse, 0, len(logs))
	for _, entry := range logs {
		responses = append(responses, notificationLogResponse{
			ID:             entry.ID,
			NotificationID: entry.NotificationID,
			Action:         entry.Action.String(),
			StatusCode:     entry.StatusCode,
			ResponseBody:   entry.ResponseBody,
			Error:          entry.Error,
			DurationMillis: entry.DurationMillis,
			CreatedAt:      entry.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *NotificationHandler) CancelNotification(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Cancel(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notificationId": id,
		"status":         domain.StatusCancelled.String(),
	})
}

func (h *NotificationHandler) SyncDeliveryStatus(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	state, err := h.service.SyncDeliveryStatus(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notificationId": id,
		"deliveryState":  string(state),
	})
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	notifications, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listNotificationsResponse{
		Data: toNotificationResponses(notifications),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	if rawChannel := strings.TrimSpace(c.Query("channel")); rawChannel != "" {
		channel, err := domain.ParseChannelFromString(rawChannel)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Channel = &channel
	}

	if rawEvent := strings.TrimSpace(c.Query("event")); rawEvent != "" {
		event, err := domain.ParseEventTypeFromString(rawEvent)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.EventType = &event
	}

	if orderRef := strings.TrimSpace(c.Query("orderRef")); orderRef != "" {
		params.OrderRef = &orderRef
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func requestToDispatchRequest(req dispatchRequest) (service.DispatchRequest, error) {
	event, err := domain.ParseEventTypeFromString(req.Event)
	if err != nil {
		return service.DispatchRequest{}, err
	}

	priority := domain.PriorityNormal
	if strings.TrimSpace(req.Priority) != "" {
		priority, err = domain.ParsePriorityFromString(req.Priority)
		if err != nil {
			return service.DispatchRequest{}, err
		}
	}

	if len(req.Channels) == 0 {
		return service.DispatchRequest{}, fmt.Errorf("%w: channels is required", domain.ErrValidation)
	}
	channels := make([]domain.Channel, 0, len(req.Channels))
	for _, raw := range req.Channels {
		channel, err := domain.ParseChannelFromString(raw)
		if err != nil {
			return service.DispatchRequest{}, err
		}
		channels = append(channels, channel)
	}

	return service.DispatchRequest{
		CustomerID:     strings.TrimSpace(req.CustomerID),
		RecipientName:  strings.TrimSpace(req.RecipientName),
		RecipientPhone: strings.TrimSpace(req.RecipientPhone),
		RecipientEmail: strings.TrimSpace(req.RecipientEmail),
		Event:          event,
		Channels:       channels,
		Priority:       priority,
		Variables:      req.Variables,
		OrderRef:       req.OrderRef,
		Force:          req.Force,
	}, nil
}

func toDispatchResponse(outcomes []service.ChannelOutcome) dispatchResponse {
	responses := make([]channelOutcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := channelOutcomeResponse{
			Channel:        outcome.Channel.String(),
			NotificationID: outcome.NotificationID,
			Provider:       outcome.ProviderName,
			Skipped:        outcome.Skipped,
			SkipReason:     outcome.SkipReason,
			Error:          outcome.Error,
		}
		if outcome.Status != "" {
			item.Status = outcome.Status.String()
		}
		responses = append(responses, item)
	}
	return dispatchResponse{Outcomes: responses}
}

func toNotificationResponses(notifications []domain.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		n := notification
		responses = append(responses, toNotificationResponse(&n))
	}
	return responses
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	if n == nil {
		return notificationResponse{}
	}

	return notificationResponse{
		ID:                n.ID,
		CustomerID:        n.CustomerID,
		RecipientName:     n.RecipientName,
		RecipientPhone:    n.RecipientPhone,
		RecipientEmail:    n.RecipientEmail,
		Channel:           n.Channel.String(),
		Event:             n.EventType.String(),
		Priority:          n.Priority.String(),
		Subject:           n.Subject,
		Message:           n.Message,
		OrderRef:          n.OrderRef,
		TemplateID:        n.TemplateID,
		Status:            n.Status.String(),
		ProviderName:      n.ProviderName,
		ProviderMessageID: n.ProviderMessageID,
		LastError:         n.LastError,
		RetryCount:        n.RetryCount,
		MaxRetries:        n.MaxRetries,
		ProviderMetadata:  n.ProviderMetadata,
		SentAt:            n.SentAt,
		DeliveredAt:       n.DeliveredAt,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
