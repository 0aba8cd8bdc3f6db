package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LocksCollectionName = "Reservation_locks"

// resourceLock serializes writers of one resource inside mongo transactions.
// Two transactions that touch the same lock document write-conflict, and the
// driver retries the loser, which then sees the winner's reservation.
type resourceLock struct {
	collection *mongo.Collection
}

func newResourceLock(db *mongo.Database) *resourceLock {
	return &resourceLock{collection: db.Collection(LocksCollectionName)}
}

// Acquire must be called with the transaction's session context.
func (l *resourceLock) Acquire(ctx context.Context, resourceID string) error {
	_, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": resourceID},
		bson.M{
			"$inc": bson.M{"version": int64(1)},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to lock resource %s: %w", resourceID, err)
	}
	return nil
}
