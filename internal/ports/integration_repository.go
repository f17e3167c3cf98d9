package ports

import (
	"context"
	"time"

	"partner-edge/internal/domain"
)

// ConnectionRepository defines the interface for partner connection persistence.
// Lookups return (nil, nil) when no matching record exists.
type ConnectionRepository interface {
	// Upsert creates or replaces the connection for the organization and marks it active
	Upsert(ctx context.Context, conn *domain.Connection) error

	// GetByOrganization returns the connection regardless of its active flag
	GetByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error)

	// GetActiveByOrganization returns the connection only if it is active
	GetActiveByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error)

	// GetActiveByLocation resolves the active connection bound to a partner location
	GetActiveByLocation(ctx context.Context, locationID string) (*domain.Connection, error)

	// Deactivate clears the active flag without deleting the row
	Deactivate(ctx context.Context, organizationID string) error

	MarkSynced(ctx context.Context, organizationID string, at time.Time) error

	// UpdateTokens stores refreshed, already encrypted tokens
	UpdateTokens(ctx context.Context, organizationID, accessTokenEnc, refreshTokenEnc string, expiresAt time.Time) error
}
