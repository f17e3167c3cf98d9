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

// webhookRetention bounds how long delivery audit records are kept.
const webhookRetention = 30 * 24 * time.Hour

// MongoWebhookLog implements WebhookLog using MongoDB
type MongoWebhookLog struct {
	collection *mongo.Collection
}

// NewMongoWebhookLog creates a new MongoDB webhook log
func NewMongoWebhookLog(db *mongo.Database) *MongoWebhookLog {
	return &MongoWebhookLog{
		collection: db.Collection("webhook_events"),
	}
}

var _ ports.WebhookLog = (*MongoWebhookLog)(nil)

// EnsureIndexes creates the TTL index that expires old deliveries
func (r *MongoWebhookLog) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(webhookRetention.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook index: %w", err)
	}
	return nil
}

// LogWebhook logs a webhook delivery
func (r *MongoWebhookLog) LogWebhook(ctx context.Context, delivery *domain.WebhookDelivery) error {
	doc := entity.MongoWebhookDocFromDomain(delivery)
	if doc.ID == "" {
		doc.ID = encryption.GenerateID()
	}
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}
