package repository

import (
	"context"
	"testing"
	"time"

	"partner-edge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func connectionDoc(org string, active bool) bson.D {
	return bson.D{
		{Key: "_id", Value: "conn-1"},
		{Key: "organization_id", Value: org},
		{Key: "remote_account_id", Value: "acc-1"},
		{Key: "remote_location_id", Value: "loc-1"},
		{Key: "access_token_enc", Value: "enc-access"},
		{Key: "refresh_token_enc", Value: "enc-refresh"},
		{Key: "token_expires_at", Value: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)},
		{Key: "account_name", Value: "Trattoria"},
		{Key: "is_active", Value: active},
		{Key: "connected_at", Value: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Key: "updated_at", Value: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func TestMongoConnectionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.ClearCollections()

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Upsert(context.Background(), &domain.Connection{
			OrganizationID:   "org-1",
			RemoteAccountID:  "acc-1",
			RemoteLocationID: "loc-1",
			AccessTokenEnc:   "enc-access",
			TokenExpiresAt:   time.Now().Add(time.Hour),
		})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		update := started.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "org-1", update.Lookup("q", "organization_id").StringValue())
		assert.True(mt, update.Lookup("u", "$set", "is_active").Boolean())
		assert.NotEmpty(mt, update.Lookup("u", "$setOnInsert", "_id").StringValue())
	})

	mt.Run("upsert error", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "duplicate key"}))

		err := repo.Upsert(context.Background(), &domain.Connection{OrganizationID: "org-1"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to upsert connection")
	})

	mt.Run("get active by organization", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.partner_connections", mtest.FirstBatch, connectionDoc("org-1", true)))

		conn, err := repo.GetActiveByOrganization(context.Background(), "org-1")
		require.NoError(mt, err)
		require.NotNil(mt, conn)
		assert.Equal(mt, "conn-1", conn.ID)
		assert.Equal(mt, "loc-1", conn.RemoteLocationID)
		assert.Equal(mt, "Trattoria", conn.AccountName)
		assert.True(mt, conn.IsActive)
		assert.Nil(mt, conn.LastSyncedAt)

		filter := mt.GetStartedEvent().Command.Lookup("filter").Document()
		assert.True(mt, filter.Lookup("is_active").Boolean())
	})

	mt.Run("get by location not found", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.partner_connections", mtest.FirstBatch))

		conn, err := repo.GetActiveByLocation(context.Background(), "unknown")
		require.NoError(mt, err)
		assert.Nil(mt, conn)
	})

	mt.Run("deactivate", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Deactivate(context.Background(), "org-1"))

		update := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.False(mt, update.Lookup("u", "$set", "is_active").Boolean())
	})

	mt.Run("update tokens", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.UpdateTokens(context.Background(), "org-1", "a", "r", time.Now()))

		set := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u", "$set").Document()
		assert.Equal(mt, "a", set.Lookup("access_token_enc").StringValue())
		assert.Equal(mt, "r", set.Lookup("refresh_token_enc").StringValue())
	})
}

func TestMongoWebhookLog(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.ClearCollections()

	mt.Run("log", func(mt *mtest.T) {
		log := NewMongoWebhookLog(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := log.LogWebhook(context.Background(), &domain.WebhookDelivery{
			EventType:  domain.EventOrderCreate,
			LocationID: "loc-1",
			Outcome:    domain.WebhookOutcomeStored,
		})
		require.NoError(mt, err)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "order.create", doc.Lookup("event_type").StringValue())
		assert.NotEmpty(mt, doc.Lookup("_id").StringValue())
	})
}
