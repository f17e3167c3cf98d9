package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultBranch lists orders of every branch.
const DefaultBranch = "default"

// PartnerService implements the operations that act on an active partner connection
type PartnerService struct {
	repo       ports.ConnectionRepository
	api        ports.PartnerAPI
	tokens     ports.PartnerTokens
	menus      ports.MenuStore
	orders     ports.OrderStore
	verifier   ports.WebhookVerifier
	dispatcher *WebhookDispatcher
	webhookLog ports.WebhookLog
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPartnerService creates a new partner service. webhookLog may be nil.
func NewPartnerService(
	repo ports.ConnectionRepository,
	api ports.PartnerAPI,
	tokens ports.PartnerTokens,
	menus ports.MenuStore,
	orders ports.OrderStore,
	verifier ports.WebhookVerifier,
	dispatcher *WebhookDispatcher,
	webhookLog ports.WebhookLog,
	logger zerolog.Logger,
) *PartnerService {
	return &PartnerService{
		repo:       repo,
		api:        api,
		tokens:     tokens,
		menus:      menus,
		orders:     orders,
		verifier:   verifier,
		dispatcher: dispatcher,
		webhookLog: webhookLog,
		logger:     logger,
		now:        time.Now,
	}
}

// activeToken resolves the organization's active connection and a live access token for it
func (s *PartnerService) activeToken(ctx context.Context, organizationID string) (*domain.Connection, *oauth2.Token, error) {
	if organizationID == "" {
		return nil, nil, domain.NewBadRequestError("Organization ID not found")
	}
	conn, err := s.repo.GetActiveByOrganization(ctx, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return nil, nil, domain.NewNotFoundError("No active partner connection found", domain.ErrConnectionNotFound)
	}
	token, err := s.tokens.Token(ctx, conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get access token: %w", err)
	}
	return conn, token, nil
}

// SyncResult is returned after a successful catalog push
type SyncResult struct {
	Success     bool   `json:"success"`
	ItemsSynced int    `json:"itemsSynced"`
	Message     string `json:"message"`
}

// SyncMenu pushes the organization's stored menu to the partner as a full catalog replace
func (s *PartnerService) SyncMenu(ctx context.Context, organizationID string) (*SyncResult, error) {
	conn, token, err := s.activeToken(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	items, err := s.menus.GetMenu(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	if items == nil {
		return nil, domain.NewNotFoundError("No menu data found", nil)
	}

	catalog := domain.BuildCatalog(items)
	if err := s.api.PutCatalog(ctx, token, conn.RemoteLocationID, catalog); err != nil {
		return nil, err
	}

	if err := s.repo.MarkSynced(ctx, organizationID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record sync time: %w", err)
	}

	s.logger.Info().
		Str("organizationId", organizationID).
		Str("locationId", conn.RemoteLocationID).
		Int("items", len(items)).
		Int("categories", len(catalog.Categories)).
		Msg("Menu synced to partner")

	return &SyncResult{Success: true, ItemsSynced: len(items), Message: "Menu synced successfully"}, nil
}

// UpdateOrderStatusInput is the dashboard's order status change
type UpdateOrderStatusInput struct {
	PartnerOrderID string `json:"partnerOrderId"`
	Status         string `json:"status"`
	ExpectedTime   string `json:"expectedTime,omitempty"`
}

// UpdateOrderStatus pushes a status change to the partner. Local order storage is not touched.
func (s *PartnerService) UpdateOrderStatus(ctx context.Context, organizationID string, in UpdateOrderStatusInput) error {
	if in.PartnerOrderID == "" || in.Status == "" {
		return domain.NewBadRequestError("partnerOrderId and status are required")
	}
	_, token, err := s.activeToken(ctx, organizationID)
	if err != nil {
		return err
	}

	update := domain.OrderStatusUpdate{Status: in.Status, ExpectedTime: in.ExpectedTime}
	if err := s.api.UpdateOrder(ctx, token, in.PartnerOrderID, update); err != nil {
		return err
	}

	s.logger.Info().
		Str("organizationId", organizationID).
		Str("orderId", in.PartnerOrderID).
		Str("status", in.Status).
		Msg("Order status pushed to partner")
	return nil
}

// ListOrders returns today's partner orders. An empty branch code means the organization's own
// branch and DefaultBranch disables branch filtering.
func (s *PartnerService) ListOrders(ctx context.Context, organizationID, branchCode string) ([]*domain.OrderRecord, error) {
	if organizationID == "" {
		return nil, domain.NewBadRequestError("Organization ID not found")
	}
	if branchCode == "" {
		branchCode = organizationID
	}

	all, err := s.orders.ListOrdersForDay(ctx, organizationID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	orders := make([]*domain.OrderRecord, 0, len(all))
	for _, o := range all {
		if branchCode != DefaultBranch && o.BranchCode != branchCode {
			continue
		}
		if o.OrderSource != domain.OrderSourcePartner {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// WebhookResult describes how a delivery was handled. The sender is acknowledged regardless.
type WebhookResult struct {
	EventType string
	Outcome   string
}

// ProcessWebhook verifies and ingests one partner webhook delivery.
// Only a bad signature returns an error; processing failures are logged and reported in the outcome.
func (s *PartnerService) ProcessWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if !s.verifier.Verify(body, signature) {
		s.logger.Warn().Msg("Invalid webhook signature")
		return nil, domain.NewClientAuthError("Invalid signature", nil)
	}

	delivery := &domain.WebhookDelivery{ID: uuid.NewString(), ReceivedAt: s.now().UTC()}
	defer s.logDelivery(ctx, delivery)

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse webhook payload")
		delivery.Outcome = domain.WebhookOutcomeInvalidPayload
		return &WebhookResult{Outcome: delivery.Outcome}, nil
	}
	delivery.EventType, delivery.LocationID = event.EventType, event.LocationID
	if event.Order != nil {
		delivery.OrderID = event.Order.ID
	}
	result := &WebhookResult{EventType: event.EventType}

	conn, err := s.repo.GetActiveByLocation(ctx, event.LocationID)
	if err != nil {
		s.logger.Error().Err(err).Str("locationId", event.LocationID).Msg("Failed to resolve webhook location")
		delivery.Outcome = domain.WebhookOutcomeLookupFailed
		result.Outcome = delivery.Outcome
		return result, nil
	}
	if conn == nil {
		s.logger.Warn().Str("locationId", event.LocationID).Msg("No connection found for webhook location")
		delivery.Outcome = domain.WebhookOutcomeUnknownLocation
		result.Outcome = delivery.Outcome
		return result, nil
	}
	event.OrganizationID = conn.OrganizationID
	delivery.OrganizationID = conn.OrganizationID

	handled, err := s.dispatcher.Dispatch(ctx, &event)
	switch {
	case err != nil && domain.KindOf(err) == domain.KindBadRequest:
		delivery.Outcome = domain.WebhookOutcomeInvalidPayload
	case err != nil:
		delivery.Outcome = domain.WebhookOutcomeStoreFailed
	case !handled:
		delivery.Outcome = domain.WebhookOutcomeIgnored
	default:
		delivery.Outcome = domain.WebhookOutcomeStored
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("eventType", event.EventType).
			Str("organizationId", conn.OrganizationID).
			Msg("Failed to process webhook event")
	}
	result.Outcome = delivery.Outcome
	return result, nil
}

func (s *PartnerService) logDelivery(ctx context.Context, delivery *domain.WebhookDelivery) {
	if s.webhookLog == nil {
		return
	}
	if err := s.webhookLog.LogWebhook(context.WithoutCancel(ctx), delivery); err != nil {
		s.logger.Error().Err(err).Str("eventType", delivery.EventType).Msg("Failed to log webhook")
	}
}
