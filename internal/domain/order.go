package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const (
	EventOrderCreate = "order.create"
	EventOrderUpdate = "order.update"

	OrderSourcePartner = "partner"
)

// FlexString accepts a JSON string or number and keeps its textual form.
// The partner encodes money and quantities as strings ("9.80 EUR", "1.0") but older payloads use numbers.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// WebhookEvent is the body the partner posts to the webhook endpoint.
// OrganizationID is resolved from LocationID before dispatch; it is never read from the payload.
type WebhookEvent struct {
	EventType      string        `json:"event_type"`
	LocationID     string        `json:"location_id"`
	Order          *PartnerOrder `json:"order,omitempty"`
	OrganizationID string        `json:"-"`
}

// PartnerOrder is the order resource embedded in partner webhook events.
type PartnerOrder struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	Customer     *PartnerCustomer   `json:"customer,omitempty"`
	Items        []PartnerOrderItem `json:"items,omitempty"`
	Total        FlexString         `json:"total"`
	Currency     string             `json:"currency"`
	ServiceType  string             `json:"service_type"`
	ExpectedTime string             `json:"expected_time"`
	CreatedAt    string             `json:"created_at"`
}

type PartnerCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type PartnerOrderItem struct {
	ProductName string     `json:"product_name"`
	Quantity    FlexString `json:"quantity"`
	Price       FlexString `json:"price"`
	SkuRef      string     `json:"sku_ref"`
}

// OrderItem is one line of an internal order.
type OrderItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	SkuRef   string `json:"skuRef"`
}

// OrderRecord is an order as persisted in the order store, keyed by (OrganizationID, RowKey).
type OrderRecord struct {
	OrganizationID    string      `json:"organizationId"`
	RowKey            string      `json:"rowKey"`
	PartnerOrderID    string      `json:"partnerOrderId"`
	PartnerLocationID string      `json:"partnerLocationId"`
	Status            string      `json:"status"`
	CustomerName      string      `json:"customerName"`
	CustomerEmail     string      `json:"customerEmail"`
	CustomerPhone     string      `json:"customerPhone"`
	Items             []OrderItem `json:"orderItems"`
	TotalAmount       string      `json:"totalAmount"`
	Currency          string      `json:"currency"`
	ServiceType       string      `json:"serviceType"`
	ExpectedTime      string      `json:"expectedTime"`
	OrderSource       string      `json:"orderSource"`
	BranchCode        string      `json:"branchCode"`
	CreatedAt         string      `json:"orderCreatedAt"`
}

// OrderStatusUpdate is the partial update pushed to the partner for an order.
type OrderStatusUpdate struct {
	Status       string `json:"status"`
	ExpectedTime string `json:"expected_time,omitempty"`
}

// NewOrderRecord maps a partner order onto the internal order shape.
// rowKey must already be resolved (partner id or a generated identifier).
func NewOrderRecord(organizationID, locationID, rowKey string, o *PartnerOrder, now time.Time) *OrderRecord {
	rec := &OrderRecord{
		OrganizationID:    organizationID,
		RowKey:            rowKey,
		PartnerOrderID:    o.ID,
		PartnerLocationID: locationID,
		Status:            orDefault(o.Status, "new"),
		TotalAmount:       orDefault(string(o.Total), "0"),
		Currency:          orDefault(o.Currency, "EUR"),
		ServiceType:       orDefault(o.ServiceType, "delivery"),
		ExpectedTime:      o.ExpectedTime,
		OrderSource:       OrderSourcePartner,
		BranchCode:        organizationID,
		CreatedAt:         createdAt(o.CreatedAt, now),
		Items:             make([]OrderItem, 0, len(o.Items)),
	}
	if c := o.Customer; c != nil {
		rec.CustomerName = strings.TrimSpace(c.FirstName + " " + c.LastName)
		rec.CustomerEmail = c.Email
		rec.CustomerPhone = c.Phone
	}
	for _, it := range o.Items {
		rec.Items = append(rec.Items, OrderItem{
			Name:     it.ProductName,
			Quantity: string(it.Quantity),
			Price:    string(it.Price),
			SkuRef:   it.SkuRef,
		})
	}
	return rec
}

// createdAt renders the partner timestamp in UTC so it sorts and filters by UTC day.
// Unparsable values are kept as sent.
func createdAt(v string, now time.Time) string {
	if v == "" {
		return now.UTC().Format(time.RFC3339)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return t.UTC().Format(time.RFC3339)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

const NotificationRefreshScreen = "REFRESH_SCREEN"

// Notification is a push message sent to an organization's devices.
type Notification struct {
	Type     string
	Title    string
	Body     string
	Priority string
	URL      string
}
