package subscriptionRepo

import (
	"context"
	"fmt"
	"time"

	"tahanan/database"
	"tahanan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSubscriptionRepo implements SubscriptionRepository using MongoDB.
type MongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo creates a new instance of SubscriptionRepository using MongoDB.
func NewMongoSubscriptionRepo() SubscriptionRepository {
	coll := database.DB().Collection("host_subscriptions")
	repo := &MongoSubscriptionRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoSubscriptionRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "period_end", Value: 1}}},
		{Keys: bson.D{{Key: "entry_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) GetByHost(hostID string) (*models.HostSubscription, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var sub models.HostSubscription
	if err := r.coll.FindOne(ctx, bson.M{"host_id": hostID}, opts).Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription for host %s: %w", hostID, err)
	}
	return &sub, nil
}

func (r *MongoSubscriptionRepo) GetByEntryID(entryID string) (*models.HostSubscription, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var sub models.HostSubscription
	if err := r.coll.FindOne(ctx, bson.M{"entry_id": entryID}).Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription for entry %s: %w", entryID, err)
	}
	return &sub, nil
}

func (r *MongoSubscriptionRepo) Create(sub *models.HostSubscription) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *MongoSubscriptionRepo) Update(sub *models.HostSubscription) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	sub.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": sub.ID}, sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", sub.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoSubscriptionRepo) ListActiveEndedBefore(t time.Time) ([]models.HostSubscription, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.SubscriptionActive,
		"period_end": bson.M{"$lte": t},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.HostSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

func (r *MongoSubscriptionRepo) MarkExpired(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.SubscriptionActive}
	update := bson.M{"$set": bson.M{"status": models.SubscriptionExpired, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to expire subscription %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleStatus
	}
	return nil
}
