package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"partner-edge/internal/application"
	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/observability"
	"partner-edge/internal/infrastructure/respond"
	"partner-edge/internal/ports"

	"github.com/rs/zerolog"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of a webhook body.
	SignatureHeader = "X-Partner-Hmac-SHA256"

	maxBodyBytes = 1 << 20
)

// Handlers adapts HTTP requests to the application services
type Handlers struct {
	integration *application.IntegrationService
	partner     *application.PartnerService
	devices     ports.DeviceRegistry
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(
	integration *application.IntegrationService,
	partner *application.PartnerService,
	devices ports.DeviceRegistry,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		integration: integration,
		partner:     partner,
		devices:     devices,
		metrics:     metrics,
		logger:      logger,
	}
}

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ordersBody struct {
	Orders []*domain.OrderRecord `json:"orders"`
	Count  int                   `json:"count"`
}

type deviceRegistration struct {
	OrganizationID string `json:"organizationId"`
	DeviceToken    string `json:"deviceToken"`
}

func organizationID(r *http.Request) string {
	return domain.ClaimsFromContext(r.Context()).OrganizationID()
}

// fail writes err. Unclassified errors are reported under message without internal detail.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	var classified *domain.Error
	if !errors.As(err, &classified) {
		err = domain.NewInternalError(message, err)
	}
	event := h.logger.Warn()
	if domain.StatusOf(err) >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", domain.StatusOf(err)).Msg(message)
	respond.Err(w, err)
}

func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	return nil
}

func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	res, err := h.integration.Connect(r.Context(), organizationID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to initiate connection")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect, err := h.integration.HandleCallback(r.Context(), application.CallbackInput{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	})
	if err != nil {
		h.fail(w, r, err, "OAuth callback failed")
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.integration.Status(r.Context(), organizationID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to get status")
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.integration.Disconnect(r.Context(), organizationID(r)); err != nil {
		h.fail(w, r, err, "Failed to disconnect")
		return
	}
	respond.JSON(w, http.StatusOK, successBody{Success: true, Message: "Partner disconnected successfully"})
}

func (h *Handlers) SyncMenu(w http.ResponseWriter, r *http.Request) {
	res, err := h.partner.SyncMenu(r.Context(), organizationID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to sync menu")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Webhook acknowledges every authentic delivery with 200 so the partner does not retry.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		respond.Error(w, http.StatusBadRequest, "Failed to read request body", nil)
		return
	}

	res, err := h.partner.ProcessWebhook(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		h.metrics.WebhookEvent("", "invalid_signature")
		respond.Err(w, err)
		return
	}
	h.metrics.WebhookEvent(res.EventType, res.Outcome)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in application.UpdateOrderStatusInput
	if err := decodeJSON(r, w, &in); err != nil {
		respond.Err(w, err)
		return
	}
	if err := h.partner.UpdateOrderStatus(r.Context(), organizationID(r), in); err != nil {
		h.fail(w, r, err, "Failed to update order status")
		return
	}
	respond.JSON(w, http.StatusOK, successBody{Success: true, Message: "Order status updated successfully"})
}

func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.partner.ListOrders(r.Context(), organizationID(r), r.URL.Query().Get("branchCode"))
	if err != nil {
		h.fail(w, r, err, "Failed to get orders")
		return
	}
	respond.JSON(w, http.StatusOK, ordersBody{Orders: orders, Count: len(orders)})
}

func (h *Handlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var in deviceRegistration
	if err := decodeJSON(r, w, &in); err != nil {
		respond.Err(w, err)
		return
	}
	if in.OrganizationID == "" || in.DeviceToken == "" {
		respond.Err(w, domain.NewBadRequestError("organizationId and deviceToken are required"))
		return
	}
	if err := h.devices.Register(r.Context(), in.OrganizationID, in.DeviceToken); err != nil {
		h.fail(w, r, err, "Failed to register device")
		return
	}
	respond.JSON(w, http.StatusOK, successBody{Success: true})
}

func Health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
