package webhook_handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"partner-edge/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedOrders struct {
	orders []*domain.OrderRecord
	err    error
}

func (s *savedOrders) SaveOrder(_ context.Context, o *domain.OrderRecord) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, o)
	return nil
}

func (s *savedOrders) ListOrdersForDay(context.Context, string, time.Time) ([]*domain.OrderRecord, error) {
	return s.orders, nil
}

type sentNotification struct {
	organizationID string
	n              domain.Notification
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) NotifyOrganization(_ context.Context, organizationID string, n domain.Notification) error {
	f.sent = append(f.sent, sentNotification{organizationID, n})
	return f.err
}

func newHandler(orders *savedOrders, notifier *fakeNotifier) *OrderHandler {
	var h *OrderHandler
	if notifier == nil {
		h = NewOrderHandler(orders, nil, zerolog.Nop())
	} else {
		h = NewOrderHandler(orders, notifier, zerolog.Nop())
	}
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	h.newID = func() string { return "generated-id" }
	return h
}

func orderEvent(eventType string, order *domain.PartnerOrder) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		EventType:      eventType,
		LocationID:     "loc-1",
		OrganizationID: "org-1",
		Order:          order,
	}
}

func TestOrderHandler_CanHandle(t *testing.T) {
	h := newHandler(&savedOrders{}, nil)
	assert.True(t, h.CanHandle(domain.EventOrderCreate))
	assert.True(t, h.CanHandle(domain.EventOrderUpdate))
	assert.False(t, h.CanHandle("catalog.update"))
}

func TestOrderHandler_StoresAndNotifies(t *testing.T) {
	orders := &savedOrders{}
	notifier := &fakeNotifier{}
	h := newHandler(orders, notifier)

	err := h.Handle(context.Background(), orderEvent(domain.EventOrderCreate, &domain.PartnerOrder{
		ID:       "o-42",
		Total:    "12.50 EUR",
		Customer: &domain.PartnerCustomer{FirstName: "Ada", LastName: "Lovelace"},
	}))
	require.NoError(t, err)

	require.Len(t, orders.orders, 1)
	rec := orders.orders[0]
	assert.Equal(t, "org-1", rec.OrganizationID)
	assert.Equal(t, "o-42", rec.RowKey)
	assert.Equal(t, "loc-1", rec.PartnerLocationID)
	assert.Equal(t, "Ada Lovelace", rec.CustomerName)
	assert.Equal(t, domain.OrderSourcePartner, rec.OrderSource)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "org-1", notifier.sent[0].organizationID)
	assert.Equal(t, domain.NotificationRefreshScreen, notifier.sent[0].n.Type)
	assert.Equal(t, "New order", notifier.sent[0].n.Title)
}

func TestOrderHandler_UpdateTitle(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newHandler(&savedOrders{}, notifier)

	require.NoError(t, h.Handle(context.Background(), orderEvent(domain.EventOrderUpdate, &domain.PartnerOrder{ID: "o-1"})))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Order updated", notifier.sent[0].n.Title)
}

func TestOrderHandler_GeneratesRowKey(t *testing.T) {
	orders := &savedOrders{}
	h := newHandler(orders, nil)

	require.NoError(t, h.Handle(context.Background(), orderEvent(domain.EventOrderCreate, &domain.PartnerOrder{})))
	require.Len(t, orders.orders, 1)
	assert.Equal(t, "generated-id", orders.orders[0].RowKey)
	assert.Equal(t, "2024-05-01T12:00:00Z", orders.orders[0].CreatedAt)
}

func TestOrderHandler_MissingOrder(t *testing.T) {
	h := newHandler(&savedOrders{}, nil)

	err := h.Handle(context.Background(), orderEvent(domain.EventOrderCreate, nil))
	require.Error(t, err)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestOrderHandler_StoreFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newHandler(&savedOrders{err: errors.New("table down")}, notifier)

	err := h.Handle(context.Background(), orderEvent(domain.EventOrderCreate, &domain.PartnerOrder{ID: "o-1"}))
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Empty(t, notifier.sent)
}

func TestOrderHandler_NotifyFailureIsIgnored(t *testing.T) {
	orders := &savedOrders{}
	h := newHandler(orders, &fakeNotifier{err: errors.New("gateway down")})

	require.NoError(t, h.Handle(context.Background(), orderEvent(domain.EventOrderCreate, &domain.PartnerOrder{ID: "o-1"})))
	assert.Len(t, orders.orders, 1)
}
