package ports

import (
	"context"
	"time"

	"partner-edge/internal/domain"
)

// OrderStore persists orders received from the partner.
type OrderStore interface {
	// SaveOrder upserts by (organization, row key)
	SaveOrder(ctx context.Context, order *domain.OrderRecord) error

	// ListOrdersForDay returns the organization's orders created within the UTC day containing day
	ListOrdersForDay(ctx context.Context, organizationID string, day time.Time) ([]*domain.OrderRecord, error)
}

// MenuStore reads the locally edited menu. It returns (nil, nil) when none is stored.
type MenuStore interface {
	GetMenu(ctx context.Context, organizationID string) ([]domain.MenuItem, error)
}

// DeviceRegistry tracks push notification tokens per organization.
type DeviceRegistry interface {
	Register(ctx context.Context, organizationID, deviceToken string) error
	Remove(ctx context.Context, organizationID, deviceToken string) error
	List(ctx context.Context, organizationID string) ([]string, error)
}

// Notifier delivers a notification to every registered device of an organization.
type Notifier interface {
	NotifyOrganization(ctx context.Context, organizationID string, n domain.Notification) error
}

// EncryptionService encrypts secrets before they are persisted.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// WebhookLog records inbound webhook deliveries for auditing.
type WebhookLog interface {
	LogWebhook(ctx context.Context, delivery *domain.WebhookDelivery) error
}

// WebhookVerifier checks the signature of a raw webhook body.
type WebhookVerifier interface {
	Verify(body []byte, signature string) bool
}
