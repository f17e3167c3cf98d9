package application

import (
	"context"
	"errors"

	"partner-edge/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes the webhook event types it declares
type WebhookHandler interface {
	CanHandle(eventType string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to the registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch runs every handler that accepts the event type. It reports whether any handler matched
// and joins the errors of those that failed.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	var (
		handled bool
		errs    []error
	)
	for _, h := range d.handlers {
		if !h.CanHandle(event.EventType) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if !handled {
		d.logger.Debug().Str("eventType", event.EventType).Msg("No handler for webhook event, ignoring")
	}
	return handled, errors.Join(errs...)
}
