package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rsvp/internal/migrations/mongo/validators"
	"rsvp/internal/reservations/repository"
	"rsvp/pkg/logger"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "resource_id", Value: 1},
				{Key: "start", Value: 1},
				{Key: "end", Value: 1},
			},
			Options: options.Index().SetName("reservations_resource_span"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("reservations_user_id"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("reservations_status_id"),
		},
	}
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists everything the reservations store needs. Multi-document
// transactions cannot create collections on every server version, so all of
// them are created up front.
func Collections() []CollectionDef {
	return []CollectionDef{
		{
			Name:      repository.CollectionName,
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		{
			Name:      repository.LocksCollectionName,
			Validator: validators.ReservationLockValidator,
		},
		{
			Name:      repository.CountersCollectionName,
			Validator: validators.CounterValidator,
		},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All Mongo migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
