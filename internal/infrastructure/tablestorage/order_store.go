package tablestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

const dayLayout = "2006-01-02"

// orderEntity is the table row layout shared with the dashboard's order views.
type orderEntity struct {
	PartitionKey      string `json:"PartitionKey"`
	RowKey            string `json:"RowKey"`
	PartnerOrderID    string `json:"partnerOrderId"`
	PartnerLocationID string `json:"partnerLocationId"`
	Status            string `json:"status"`
	CustomerName      string `json:"customerName"`
	CustomerEmail     string `json:"customerEmail"`
	CustomerPhone     string `json:"customerPhone"`
	OrderItems        string `json:"orderItems"`
	TotalAmount       string `json:"totalAmount"`
	Currency          string `json:"currency"`
	ServiceType       string `json:"serviceType"`
	ExpectedTime      string `json:"expectedTime"`
	OrderSource       string `json:"orderSource"`
	BranchCode        string `json:"branchCode"`
	OrderCreatedAt    string `json:"orderCreatedAt"`
}

// OrderStore persists orders in an Azure Storage table partitioned by organization.
type OrderStore struct {
	client *aztables.Client
}

// NewOrderStore connects to table using a SAS-bearing service URL.
func NewOrderStore(serviceURL, table string, httpClient *http.Client) (*OrderStore, error) {
	opts := &aztables.ClientOptions{}
	if httpClient != nil {
		opts.ClientOptions = azcore.ClientOptions{Transport: httpClient}
	}
	svc, err := aztables.NewServiceClientWithNoCredential(serviceURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create table service client: %w", err)
	}
	return &OrderStore{client: svc.NewClient(table)}, nil
}

var _ ports.OrderStore = (*OrderStore)(nil)

// EnsureTable creates the table if it does not exist
func (s *OrderStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, nil)
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	return nil
}

// SaveOrder replaces the row at (organization, row key)
func (s *OrderStore) SaveOrder(ctx context.Context, order *domain.OrderRecord) error {
	entity, err := toEntity(order)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode order entity: %w", err)
	}
	_, err = s.client.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// ListOrdersForDay returns orders whose orderCreatedAt falls on day's UTC date
func (s *OrderStore) ListOrdersForDay(ctx context.Context, organizationID string, day time.Time) ([]*domain.OrderRecord, error) {
	filter := dayFilter(organizationID, day)
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	orders := []*domain.OrderRecord{}
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		for _, raw := range page.Entities {
			var entity orderEntity
			if err := json.Unmarshal(raw, &entity); err != nil {
				return nil, fmt.Errorf("failed to decode order entity: %w", err)
			}
			orders = append(orders, fromEntity(&entity))
		}
	}
	return orders, nil
}

// dayFilter selects one partition and an inclusive string range on the ISO timestamp.
func dayFilter(organizationID string, day time.Time) string {
	date := day.UTC().Format(dayLayout)
	return fmt.Sprintf("PartitionKey eq '%s' and orderCreatedAt ge '%sT00:00:00Z' and orderCreatedAt le '%sT23:59:59Z'",
		quote(organizationID), date, date)
}

// quote escapes a value for an OData string literal.
func quote(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

func toEntity(o *domain.OrderRecord) (*orderEntity, error) {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order items: %w", err)
	}
	return &orderEntity{
		PartitionKey:      o.OrganizationID,
		RowKey:            o.RowKey,
		PartnerOrderID:    o.PartnerOrderID,
		PartnerLocationID: o.PartnerLocationID,
		Status:            o.Status,
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		CustomerPhone:     o.CustomerPhone,
		OrderItems:        string(encoded),
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		ServiceType:       o.ServiceType,
		ExpectedTime:      o.ExpectedTime,
		OrderSource:       o.OrderSource,
		BranchCode:        o.BranchCode,
		OrderCreatedAt:    o.CreatedAt,
	}, nil
}

// fromEntity tolerates rows with missing or malformed orderItems.
func fromEntity(e *orderEntity) *domain.OrderRecord {
	items := []domain.OrderItem{}
	if e.OrderItems != "" {
		if err := json.Unmarshal([]byte(e.OrderItems), &items); err != nil {
			items = []domain.OrderItem{}
		}
	}
	return &domain.OrderRecord{
		OrganizationID:    e.PartitionKey,
		RowKey:            e.RowKey,
		PartnerOrderID:    e.PartnerOrderID,
		PartnerLocationID: e.PartnerLocationID,
		Status:            e.Status,
		CustomerName:      e.CustomerName,
		CustomerEmail:     e.CustomerEmail,
		CustomerPhone:     e.CustomerPhone,
		Items:             items,
		TotalAmount:       e.TotalAmount,
		Currency:          e.Currency,
		ServiceType:       e.ServiceType,
		ExpectedTime:      e.ExpectedTime,
		OrderSource:       e.OrderSource,
		BranchCode:        e.BranchCode,
		CreatedAt:         e.OrderCreatedAt,
	}
}
