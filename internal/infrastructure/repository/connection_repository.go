package repository

import (
	"context"
	"fmt"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/encryption"
	"partner-edge/internal/infrastructure/repository/entity"
	"partner-edge/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectionsCollection = "partner_connections"

// MongoConnectionRepository implements ConnectionRepository using MongoDB
type MongoConnectionRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoConnectionRepository creates a new MongoDB connection repository
func NewMongoConnectionRepository(db *mongo.Database) *MongoConnectionRepository {
	return &MongoConnectionRepository{
		collection: db.Collection(connectionsCollection),
		now:        time.Now,
	}
}

var _ ports.ConnectionRepository = (*MongoConnectionRepository)(nil)

// EnsureIndexes creates the unique organization index and the location lookup index
func (r *MongoConnectionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "remote_location_id", Value: 1}, {Key: "is_active", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create connection indexes: %w", err)
	}
	return nil
}

// Upsert creates or overwrites the organization's connection and marks it active
func (r *MongoConnectionRepository) Upsert(ctx context.Context, conn *domain.Connection) error {
	now := r.now().UTC()
	id := conn.ID
	if id == "" {
		id = encryption.GenerateID()
	}

	doc := entity.MongoConnectionDocFromDomain(conn)
	filter := bson.M{"organization_id": conn.OrganizationID}
	update := bson.M{
		"$set": bson.M{
			"remote_account_id":  doc.RemoteAccountID,
			"remote_location_id": doc.RemoteLocationID,
			"access_token_enc":   doc.AccessTokenEnc,
			"refresh_token_enc":  doc.RefreshTokenEnc,
			"token_expires_at":   doc.TokenExpiresAt,
			"account_name":       doc.AccountName,
			"is_active":          true,
			"connected_at":       now,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{"_id": id},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

// GetByOrganization retrieves the connection regardless of its active flag
func (r *MongoConnectionRepository) GetByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error) {
	return r.findOne(ctx, bson.M{"organization_id": organizationID})
}

// GetActiveByOrganization retrieves the active connection of an organization
func (r *MongoConnectionRepository) GetActiveByOrganization(ctx context.Context, organizationID string) (*domain.Connection, error) {
	return r.findOne(ctx, bson.M{"organization_id": organizationID, "is_active": true})
}

// GetActiveByLocation retrieves the active connection bound to a partner location
func (r *MongoConnectionRepository) GetActiveByLocation(ctx context.Context, locationID string) (*domain.Connection, error) {
	return r.findOne(ctx, bson.M{"remote_location_id": locationID, "is_active": true})
}

// Deactivate marks the connection inactive
func (r *MongoConnectionRepository) Deactivate(ctx context.Context, organizationID string) error {
	return r.set(ctx, organizationID, bson.M{"is_active": false}, "deactivate connection")
}

// MarkSynced records the last successful catalog push
func (r *MongoConnectionRepository) MarkSynced(ctx context.Context, organizationID string, at time.Time) error {
	return r.set(ctx, organizationID, bson.M{"last_synced_at": at.UTC()}, "mark connection synced")
}

// UpdateTokens stores a refreshed token pair
func (r *MongoConnectionRepository) UpdateTokens(ctx context.Context, organizationID, accessTokenEnc, refreshTokenEnc string, expiresAt time.Time) error {
	return r.set(ctx, organizationID, bson.M{
		"access_token_enc":  accessTokenEnc,
		"refresh_token_enc": refreshTokenEnc,
		"token_expires_at":  expiresAt.UTC(),
	}, "update connection tokens")
}

func (r *MongoConnectionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Connection, error) {
	var doc entity.MongoConnectionDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return doc.ToDomain(), nil
}

func (r *MongoConnectionRepository) set(ctx context.Context, organizationID string, fields bson.M, action string) error {
	fields["updated_at"] = r.now().UTC()
	_, err := r.collection.UpdateOne(ctx, bson.M{"organization_id": organizationID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}
