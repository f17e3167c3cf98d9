package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEventDecoding(t *testing.T) {
	raw := `{
		"event_type": "order.create",
		"location_id": "loc-1",
		"organization_id": "spoofed",
		"order": {
			"id": "o-1",
			"total": 19.8,
			"items": [{"product_name": "Pizza", "quantity": "2.0", "price": "9.90 EUR"}]
		}
	}`
	var event WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	assert.Equal(t, EventOrderCreate, event.EventType)
	assert.Empty(t, event.OrganizationID)
	require.NotNil(t, event.Order)
	assert.Equal(t, FlexString("19.8"), event.Order.Total)
	assert.Equal(t, FlexString("2.0"), event.Order.Items[0].Quantity)
	assert.Equal(t, FlexString("9.90 EUR"), event.Order.Items[0].Price)
}

func TestNewOrderRecordDefaults(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 30, 0, 0, time.FixedZone("CET", 3600))

	rec := NewOrderRecord("org-1", "loc-1", "row-1", &PartnerOrder{}, now)

	assert.Equal(t, "org-1", rec.OrganizationID)
	assert.Equal(t, "org-1", rec.BranchCode)
	assert.Equal(t, "row-1", rec.RowKey)
	assert.Equal(t, "new", rec.Status)
	assert.Equal(t, "0", rec.TotalAmount)
	assert.Equal(t, "EUR", rec.Currency)
	assert.Equal(t, "delivery", rec.ServiceType)
	assert.Equal(t, OrderSourcePartner, rec.OrderSource)
	assert.Equal(t, "2024-03-02T09:30:00Z", rec.CreatedAt)
	assert.NotNil(t, rec.Items)
	assert.Empty(t, rec.CustomerName)
}

func TestNewOrderRecordMapsPartnerFields(t *testing.T) {
	order := &PartnerOrder{
		ID:           "o-9",
		Status:       "accepted",
		Total:        "25.00 EUR",
		Currency:     "CHF",
		ServiceType:  "collection",
		ExpectedTime: "2024-03-02T12:00:00Z",
		CreatedAt:    "2024-03-02T11:00:00Z",
		Customer:     &PartnerCustomer{FirstName: "Grace", Email: "g@example.com", Phone: "+41"},
		Items:        []PartnerOrderItem{{ProductName: "Soup", Quantity: "1", Price: "5", SkuRef: "s-1"}},
	}

	rec := NewOrderRecord("org-1", "loc-1", "o-9", order, time.Now())

	assert.Equal(t, "o-9", rec.PartnerOrderID)
	assert.Equal(t, "accepted", rec.Status)
	assert.Equal(t, "CHF", rec.Currency)
	assert.Equal(t, "collection", rec.ServiceType)
	assert.Equal(t, "2024-03-02T11:00:00Z", rec.CreatedAt)
	assert.Equal(t, "Grace", rec.CustomerName)
	assert.Equal(t, "g@example.com", rec.CustomerEmail)
	assert.Equal(t, []OrderItem{{Name: "Soup", Quantity: "1", Price: "5", SkuRef: "s-1"}}, rec.Items)
}

func TestNewOrderRecordNormalizesCreatedAt(t *testing.T) {
	cases := map[string]string{
		"2024-03-02T00:30:00+01:00":     "2024-03-01T23:30:00Z",
		"2024-03-01T23:45:00-02:00":     "2024-03-02T01:45:00Z",
		"2024-03-02T08:00:00.250+00:00": "2024-03-02T08:00:00Z",
		"yesterday":                     "yesterday",
	}
	for in, want := range cases {
		rec := NewOrderRecord("org-1", "loc-1", "o-1", &PartnerOrder{CreatedAt: in}, time.Now())
		assert.Equal(t, want, rec.CreatedAt, in)
	}
}
