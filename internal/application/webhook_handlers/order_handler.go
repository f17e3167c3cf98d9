package webhook_handlers

import (
	"context"
	"fmt"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler stores partner orders and tells the organization's devices to refresh
type OrderHandler struct {
	orders   ports.OrderStore
	notifier ports.Notifier
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewOrderHandler creates a new order webhook handler. notifier may be nil.
func NewOrderHandler(orders ports.OrderStore, notifier ports.Notifier, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CanHandle returns true if this handler can process the given event type
func (h *OrderHandler) CanHandle(eventType string) bool {
	return eventType == domain.EventOrderCreate || eventType == domain.EventOrderUpdate
}

// Handle persists the order carried by the event
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Order == nil {
		return domain.NewBadRequestError("order payload missing")
	}

	rowKey := event.Order.ID
	if rowKey == "" {
		rowKey = h.newID()
	}
	record := domain.NewOrderRecord(event.OrganizationID, event.LocationID, rowKey, event.Order, h.now())

	if err := h.orders.SaveOrder(ctx, record); err != nil {
		return fmt.Errorf("failed to store order %s: %w", rowKey, err)
	}

	h.logger.Info().
		Str("eventType", event.EventType).
		Str("organizationId", event.OrganizationID).
		Str("orderId", rowKey).
		Str("status", record.Status).
		Msg("Partner order stored")

	h.notify(ctx, event.EventType, record)
	return nil
}

// notify is best effort; delivery failures are only logged.
func (h *OrderHandler) notify(ctx context.Context, eventType string, record *domain.OrderRecord) {
	if h.notifier == nil {
		return
	}
	title := "New order"
	if eventType == domain.EventOrderUpdate {
		title = "Order updated"
	}
	body := fmt.Sprintf("Order %s (%s %s)", record.RowKey, record.TotalAmount, record.Currency)
	if record.CustomerName != "" {
		body = fmt.Sprintf("Order %s from %s", record.RowKey, record.CustomerName)
	}

	n := domain.Notification{
		Type:     domain.NotificationRefreshScreen,
		Title:    title,
		Body:     body,
		Priority: "high",
		URL:      "/orders",
	}
	if err := h.notifier.NotifyOrganization(ctx, record.OrganizationID, n); err != nil {
		h.logger.Warn().Err(err).Str("organizationId", record.OrganizationID).Msg("Failed to notify devices")
	}
}
