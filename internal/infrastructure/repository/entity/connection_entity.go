package entity

import (
	"time"

	"partner-edge/internal/domain"
)

// MongoConnectionDoc represents a partner connection in MongoDB
type MongoConnectionDoc struct {
	ID               string     `bson:"_id"`
	OrganizationID   string     `bson:"organization_id"`
	RemoteAccountID  string     `bson:"remote_account_id"`
	RemoteLocationID string     `bson:"remote_location_id"`
	AccessTokenEnc   string     `bson:"access_token_enc"`
	RefreshTokenEnc  string     `bson:"refresh_token_enc"`
	TokenExpiresAt   time.Time  `bson:"token_expires_at"`
	AccountName      string     `bson:"account_name"`
	IsActive         bool       `bson:"is_active"`
	ConnectedAt      time.Time  `bson:"connected_at"`
	LastSyncedAt     *time.Time `bson:"last_synced_at,omitempty"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoConnectionDoc) ToDomain() *domain.Connection {
	return &domain.Connection{
		ID:               d.ID,
		OrganizationID:   d.OrganizationID,
		RemoteAccountID:  d.RemoteAccountID,
		RemoteLocationID: d.RemoteLocationID,
		AccessTokenEnc:   d.AccessTokenEnc,
		RefreshTokenEnc:  d.RefreshTokenEnc,
		TokenExpiresAt:   d.TokenExpiresAt,
		AccountName:      d.AccountName,
		IsActive:         d.IsActive,
		ConnectedAt:      d.ConnectedAt,
		LastSyncedAt:     d.LastSyncedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// MongoConnectionDocFromDomain converts a domain entity to a MongoDB document
func MongoConnectionDocFromDomain(conn *domain.Connection) *MongoConnectionDoc {
	return &MongoConnectionDoc{
		ID:               conn.ID,
		OrganizationID:   conn.OrganizationID,
		RemoteAccountID:  conn.RemoteAccountID,
		RemoteLocationID: conn.RemoteLocationID,
		AccessTokenEnc:   conn.AccessTokenEnc,
		RefreshTokenEnc:  conn.RefreshTokenEnc,
		TokenExpiresAt:   conn.TokenExpiresAt,
		AccountName:      conn.AccountName,
		IsActive:         conn.IsActive,
		ConnectedAt:      conn.ConnectedAt,
		LastSyncedAt:     conn.LastSyncedAt,
		UpdatedAt:        conn.UpdatedAt,
	}
}

// MongoWebhookDoc represents a logged webhook delivery in MongoDB
type MongoWebhookDoc struct {
	ID             string    `bson:"_id"`
	EventType      string    `bson:"event_type"`
	LocationID     string    `bson:"location_id"`
	OrganizationID string    `bson:"organization_id,omitempty"`
	OrderID        string    `bson:"order_id,omitempty"`
	Outcome        string    `bson:"outcome"`
	ReceivedAt     time.Time `bson:"received_at"`
}

// MongoWebhookDocFromDomain converts a webhook delivery to a MongoDB document
func MongoWebhookDocFromDomain(d *domain.WebhookDelivery) *MongoWebhookDoc {
	return &MongoWebhookDoc{
		ID:             d.ID,
		EventType:      d.EventType,
		LocationID:     d.LocationID,
		OrganizationID: d.OrganizationID,
		OrderID:        d.OrderID,
		Outcome:        d.Outcome,
		ReceivedAt:     d.ReceivedAt,
	}
}
