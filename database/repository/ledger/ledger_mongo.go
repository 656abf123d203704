package ledgerRepo

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

// MongoLedgerRepo implements LedgerRepository using MongoDB.
type MongoLedgerRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoLedgerRepo creates a new instance of LedgerRepository using MongoDB.
func NewMongoLedgerRepo() LedgerRepository {
	coll := database.DB().Collection("ledger_entries")
	repo := &MongoLedgerRepo{client: database.MongoClient, coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries. The
// partial unique index on (user_id, external_ref) is the storage-level
// idempotency guard against double-processing one processor notification.
func (r *MongoLedgerRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "external_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"external_ref": bson.M{"$exists": true, "$type": "string"}},
			),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "related_entry_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoLedgerRepo) Insert(entry *models.LedgerEntry) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateExternalRef
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (r *MongoLedgerRepo) GetByID(id string) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var entry models.LedgerEntry
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch ledger entry %s: %w", id, err)
	}
	return &entry, nil
}

func (r *MongoLedgerRepo) GetByExternalRef(userID, externalRef string) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var entry models.LedgerEntry
	filter := bson.M{"user_id": userID, "external_ref": externalRef}
	if err := r.coll.FindOne(ctx, filter).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch entry by external ref: %w", err)
	}
	return &entry, nil
}

func (r *MongoLedgerRepo) GetMirrorOf(entryID string) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	// Mirrors carry no refund event id; reversal entries always do.
	var entry models.LedgerEntry
	filter := bson.M{"related_entry_id": entryID, "event_id": bson.M{"$exists": false}}
	if err := r.coll.FindOne(ctx, filter).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch mirror of entry %s: %w", entryID, err)
	}
	return &entry, nil
}

func (r *MongoLedgerRepo) GetRefundOf(entryID string) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var entry models.LedgerEntry
	filter := bson.M{"related_entry_id": entryID, "event_id": bson.M{"$exists": true}}
	if err := r.coll.FindOne(ctx, filter).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch refund of entry %s: %w", entryID, err)
	}
	return &entry, nil
}

func (r *MongoLedgerRepo) UpdateStatus(id string, from, to models.EntryStatus, failReason string, confirmedAt *time.Time) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	set := bson.M{"status": to}
	if failReason != "" {
		set["fail_reason"] = failReason
	}
	if confirmedAt != nil {
		set["confirmed_at"] = *confirmedAt
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update entry %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *MongoLedgerRepo) ConfirmAndMirror(entryID string, confirmedAt time.Time, mirror *models.LedgerEntry) error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"id": entryID, "status": models.EntryPending}
		set := bson.M{"$set": bson.M{"status": models.EntryCompleted, "confirmed_at": confirmedAt}}
		res, err := r.coll.UpdateOne(sc, filter, set)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm entry %s: %w", entryID, err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrStaleStatus
		}
		if mirror != nil {
			if _, err := r.coll.InsertOne(sc, mirror); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, ErrDuplicateExternalRef
				}
				return nil, fmt.Errorf("failed to insert mirror entry: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

func (r *MongoLedgerRepo) ApplyRefund(originalIDs []string, refundEntries []*models.LedgerEntry) error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"id": bson.M{"$in": originalIDs}, "status": models.EntryCompleted}
		set := bson.M{"$set": bson.M{"status": models.EntryRefunded}}
		res, err := r.coll.UpdateMany(sc, filter, set)
		if err != nil {
			return nil, fmt.Errorf("failed to mark entries refunded: %w", err)
		}
		if res.MatchedCount != int64(len(originalIDs)) {
			return nil, ErrStaleStatus
		}
		docs := make([]interface{}, 0, len(refundEntries))
		for _, e := range refundEntries {
			docs = append(docs, e)
		}
		if _, err := r.coll.InsertMany(sc, docs); err != nil {
			return nil, fmt.Errorf("failed to insert refund entries: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *MongoLedgerRepo) ListByUser(userID string) ([]models.LedgerEntry, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	return entries, nil
}

func (r *MongoLedgerRepo) SumPendingDebitsByUser(userID string) (int64, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	debitKinds := bson.A{models.EntryPayment, models.EntryWithdrawal}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"user_id": userID,
			"status":  models.EntryPending,
			"kind":    bson.M{"$in": debitKinds},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "reserved", Value: bson.D{{Key: "$sum", Value: "$net"}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending debits for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Reserved int64 `bson:"reserved"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode pending debit sum: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Reserved, nil
}

func (r *MongoLedgerRepo) SumCompletedByUser(userID string) (int64, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	// Refunded entries stay in the fold: their effect was applied when they
	// completed, and the reversal is a separate entry. Only pending and
	// failed entries never touched the balance.
	creditKinds := bson.A{models.EntryDeposit, models.EntryRefund, models.EntryReward}
	applied := bson.A{models.EntryCompleted, models.EntryRefunded}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID, "status": bson.M{"$in": applied}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "balance", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{"$kind", creditKinds}}},
					"$net",
					bson.D{{Key: "$multiply", Value: bson.A{"$net", -1}}},
				}},
			}}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to fold balance for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Balance int64 `bson:"balance"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode balance fold: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Balance, nil
}
