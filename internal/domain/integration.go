package domain

import "time"

// Connection is the per-organization link to the partner platform.
// One row exists per organization; reconnecting overwrites it and disconnecting only clears IsActive.
type Connection struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	RemoteAccountID  string     `json:"remote_account_id"`
	RemoteLocationID string     `json:"remote_location_id"`
	AccessTokenEnc   string     `json:"-"`
	RefreshTokenEnc  string     `json:"-"`
	TokenExpiresAt   time.Time  `json:"token_expires_at"`
	AccountName      string     `json:"account_name"`
	IsActive         bool       `json:"is_active"`
	ConnectedAt      time.Time  `json:"connected_at"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ConnectionStatus is the metadata-only view of a connection exposed to the dashboard.
type ConnectionStatus struct {
	Connected    bool       `json:"connected"`
	Message      string     `json:"message,omitempty"`
	AccountName  string     `json:"accountName,omitempty"`
	AccountID    string     `json:"accountId,omitempty"`
	ConnectedAt  *time.Time `json:"connectedAt,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// TokenGrant is the result of an authorization code exchange with the partner.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AccountID    string
	LocationID   string
}

// PartnerAccount holds the subset of the partner account resource we display.
type PartnerAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WebhookDelivery is the audit record of one inbound partner webhook.
type WebhookDelivery struct {
	ID             string    `json:"id"`
	EventType      string    `json:"event_type"`
	LocationID     string    `json:"location_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	Outcome        string    `json:"outcome"`
	ReceivedAt     time.Time `json:"received_at"`
}

const (
	WebhookOutcomeStored          = "stored"
	WebhookOutcomeIgnored         = "ignored"
	WebhookOutcomeUnknownLocation = "unknown_location"
	WebhookOutcomeInvalidPayload  = "invalid_payload"
	WebhookOutcomeStoreFailed     = "store_failed"
	WebhookOutcomeLookupFailed    = "lookup_failed"
)
