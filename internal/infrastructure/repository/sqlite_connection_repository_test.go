package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"partner-edge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLRepo(t *testing.T) (*SQLConnectionRepository, *sql.DB) {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLConnectionRepository(db), db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM partner_connections`).Scan(&n))
	return n
}

func TestSQLUpsertIsIdempotentPerOrganization(t *testing.T) {
	repo, db := newSQLRepo(t)
	ctx := context.Background()
	expires := time.Unix(1_800_000_000, 0).UTC()

	require.NoError(t, repo.Upsert(ctx, &domain.Connection{
		OrganizationID:   "org-1",
		RemoteAccountID:  "acc-1",
		RemoteLocationID: "loc-1",
		AccessTokenEnc:   "access-v1",
		RefreshTokenEnc:  "refresh-v1",
		TokenExpiresAt:   expires,
		AccountName:      "First",
	}))
	first, err := repo.GetByOrganization(ctx, "org-1")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, &domain.Connection{
		OrganizationID:   "org-1",
		RemoteAccountID:  "acc-2",
		RemoteLocationID: "loc-2",
		AccessTokenEnc:   "access-v2",
		RefreshTokenEnc:  "refresh-v2",
		TokenExpiresAt:   expires.Add(time.Hour),
		AccountName:      "Second",
	}))

	assert.Equal(t, 1, countRows(t, db))

	got, err := repo.GetByOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "acc-2", got.RemoteAccountID)
	assert.Equal(t, "loc-2", got.RemoteLocationID)
	assert.Equal(t, "access-v2", got.AccessTokenEnc)
	assert.Equal(t, "refresh-v2", got.RefreshTokenEnc)
	assert.Equal(t, "Second", got.AccountName)
	assert.Equal(t, expires.Add(time.Hour), got.TokenExpiresAt)
	assert.True(t, got.IsActive)
}

func TestSQLDeactivateAndReconnect(t *testing.T) {
	repo, db := newSQLRepo(t)
	ctx := context.Background()
	conn := &domain.Connection{OrganizationID: "org-1", RemoteLocationID: "loc-1", AccessTokenEnc: "a", TokenExpiresAt: time.Now()}

	require.NoError(t, repo.Upsert(ctx, conn))
	require.NoError(t, repo.Deactivate(ctx, "org-1"))

	active, err := repo.GetActiveByOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Nil(t, active)

	byLocation, err := repo.GetActiveByLocation(ctx, "loc-1")
	require.NoError(t, err)
	assert.Nil(t, byLocation)

	inactive, err := repo.GetByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.NotNil(t, inactive)
	assert.False(t, inactive.IsActive)

	require.NoError(t, repo.Upsert(ctx, conn))
	assert.Equal(t, 1, countRows(t, db))
	active, err = repo.GetActiveByLocation(ctx, "loc-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "org-1", active.OrganizationID)
}

func TestSQLMarkSyncedAndUpdateTokens(t *testing.T) {
	repo, _ := newSQLRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &domain.Connection{OrganizationID: "org-1", AccessTokenEnc: "a", TokenExpiresAt: time.Now()}))

	synced := time.Unix(1_750_000_000, 0).UTC()
	require.NoError(t, repo.MarkSynced(ctx, "org-1", synced))

	newExpiry := time.Unix(1_760_000_000, 0).UTC()
	require.NoError(t, repo.UpdateTokens(ctx, "org-1", "a2", "r2", newExpiry))

	got, err := repo.GetActiveByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncedAt)
	assert.Equal(t, synced, *got.LastSyncedAt)
	assert.Equal(t, "a2", got.AccessTokenEnc)
	assert.Equal(t, "r2", got.RefreshTokenEnc)
	assert.Equal(t, newExpiry, got.TokenExpiresAt)
}

func TestSQLMissingConnection(t *testing.T) {
	repo, _ := newSQLRepo(t)
	got, err := repo.GetByOrganization(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLWebhookLog(t *testing.T) {
	_, db := newSQLRepo(t)
	log := NewSQLWebhookLog(db)

	require.NoError(t, log.LogWebhook(context.Background(), &domain.WebhookDelivery{
		EventType:  domain.EventOrderUpdate,
		LocationID: "loc-9",
		Outcome:    domain.WebhookOutcomeUnknownLocation,
	}))

	var outcome string
	require.NoError(t, db.QueryRow(`SELECT outcome FROM webhook_events WHERE location_id = ?`, "loc-9").Scan(&outcome))
	assert.Equal(t, "unknown_location", outcome)
}

func TestMigrateIsRepeatable(t *testing.T) {
	_, db := newSQLRepo(t)
	assert.NoError(t, MigrateSQLite(context.Background(), db))
}
