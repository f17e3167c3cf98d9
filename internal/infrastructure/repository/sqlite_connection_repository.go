package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/encryption"
	"partner-edge/internal/ports"
)

const connectionColumns = `id, organization_id, remote_account_id, remote_location_id, access_token_enc,
	refresh_token_enc, token_expires_at, account_name, is_active, connected_at, last_synced_at, updated_at`

// SQLConnectionRepository implements ConnectionRepository on SQLite. Times are stored as Unix seconds.
type SQLConnectionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLConnectionRepository creates a new SQLite connection repository
func NewSQLConnectionRepository(db *sql.DB) *SQLConnectionRepository {
	return &SQLConnectionRepository{db: db, now: time.Now}
}

var _ ports.ConnectionRepository = (*SQLConnectionRepository)(nil)

// Upsert inserts the connection or overwrites the organization's existing row in place
func (r *SQLConnectionRepository) Upsert(ctx context.Context, conn *domain.Connection) error {
	now := r.now().Unix()
	id := conn.ID
	if id == "" {
		id = encryption.GenerateID()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO partner_connections (
			id, organization_id, remote_account_id, remote_location_id, access_token_enc,
			refresh_token_enc, token_expires_at, account_name, is_active, connected_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(organization_id) DO UPDATE SET
			remote_account_id = excluded.remote_account_id,
			remote_location_id = excluded.remote_location_id,
			access_token_enc = excluded.access_token_enc,
			refresh_token_enc = excluded.refresh_token_enc,
			token_expires_at = excluded.token_expires_at,
			account_name = excluded.account_name,
			is_active = 1,
			connected_at = excluded.connected_at,
			updated_at = excluded.updated_at`,
		id, conn.OrganizationID, conn.RemoteAccountID, conn.RemoteLocationID, conn.AccessTokenEnc,
		conn.RefreshTokenEnc, conn.TokenExpiresAt.Unix(), conn.AccountName, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

// GetByOrganization retrieves the connection regardless of its active flag
func (r *SQLConnectionRepository) GetByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error) {
	return r.queryOne(ctx, `SELECT `+connectionColumns+` FROM partner_connections WHERE organization_id = ?`, organizationID)
}

// GetActiveByOrganization retrieves the active connection of an organization
func (r *SQLConnectionRepository) GetActiveByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error) {
	return r.queryOne(ctx, `SELECT `+connectionColumns+` FROM partner_connections WHERE organization_id = ? AND is_active = 1`, organizationID)
}

// GetActiveByLocation retrieves the active connection bound to a partner location
func (r *SQLConnectionRepository) GetActiveByLocation(ctx context.Context, locationID string) (*domain.Connection, error) {
	return r.queryOne(ctx, `SELECT `+connectionColumns+` FROM partner_connections WHERE remote_location_id = ? AND is_active = 1 LIMIT 1`, locationID)
}

// Deactivate marks the connection inactive
func (r *SQLConnectionRepository) Deactivate(ctx context.Context, organizationID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE partner_connections SET is_active = 0, updated_at = ? WHERE organization_id = ?`,
		r.now().Unix(), organizationID)
	if err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	return nil
}

// MarkSynced records the last successful catalog push
func (r *SQLConnectionRepository) MarkSynced(ctx context.Context, organizationID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE partner_connections SET last_synced_at = ?, updated_at = ? WHERE organization_id = ?`,
		at.Unix(), r.now().Unix(), organizationID)
	if err != nil {
		return fmt.Errorf("failed to mark connection synced: %w", err)
	}
	return nil
}

// UpdateTokens stores a refreshed token pair
func (r *SQLConnectionRepository) UpdateTokens(ctx context.Context, organizationID, accessTokenEnc, refreshTokenEnc string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE partner_connections SET access_token_enc = ?, refresh_token_enc = ?, token_expires_at = ?, updated_at = ?
		 WHERE organization_id = ?`,
		accessTokenEnc, refreshTokenEnc, expiresAt.Unix(), r.now().Unix(), organizationID)
	if err != nil {
		return fmt.Errorf("failed to update connection tokens: %w", err)
	}
	return nil
}

func (r *SQLConnectionRepository) queryOne(ctx context.Context, query string, arg any) (*domain.Connection, error) {
	var (
		conn                              domain.Connection
		active                            int
		expiresAt, connectedAt, updatedAt int64
		lastSynced                        sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&conn.ID, &conn.OrganizationID, &conn.RemoteAccountID, &conn.RemoteLocationID, &conn.AccessTokenEnc,
		&conn.RefreshTokenEnc, &expiresAt, &conn.AccountName, &active, &connectedAt, &lastSynced, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	conn.IsActive = active == 1
	conn.TokenExpiresAt = time.Unix(expiresAt, 0).UTC()
	conn.ConnectedAt = time.Unix(connectedAt, 0).UTC()
	conn.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if lastSynced.Valid {
		t := time.Unix(lastSynced.Int64, 0).UTC()
		conn.LastSyncedAt = &t
	}
	return &conn, nil
}

// SQLWebhookLog implements WebhookLog on SQLite
type SQLWebhookLog struct {
	db *sql.DB
}

// NewSQLWebhookLog creates a new SQLite webhook log
func NewSQLWebhookLog(db *sql.DB) *SQLWebhookLog {
	return &SQLWebhookLog{db: db}
}

var _ ports.WebhookLog = (*SQLWebhookLog)(nil)

// LogWebhook logs a webhook delivery
func (r *SQLWebhookLog) LogWebhook(ctx context.Context, d *domain.WebhookDelivery) error {
	id := d.ID
	if id == "" {
		id = encryption.GenerateID()
	}
	received := d.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, event_type, location_id, organization_id, order_id, outcome, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, d.EventType, d.LocationID, d.OrganizationID, d.OrderID, d.Outcome, received.Unix())
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}
