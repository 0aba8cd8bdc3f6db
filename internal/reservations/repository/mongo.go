package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rsvp/pkg/config"
	mongotx "rsvp/pkg/db/mongo"
	"rsvp/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionName         = "Reservations"
	CountersCollectionName = "Counters"

	reservationsCounterID = "reservations"
)

var activeStatuses = bson.A{model.StatusPending.String(), model.StatusConfirmed.String()}

type reservationDocument struct {
	ID         int64     `bson:"_id"`
	UserID     string    `bson:"user_id"`
	ResourceID string    `bson:"resource_id"`
	Status     string    `bson:"status"`
	Start      time.Time `bson:"start"`
	End        time.Time `bson:"end"`
	Note       string    `bson:"note"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d *reservationDocument) toModel() *model.Reservation {
	return &model.Reservation{
		ID:         d.ID,
		UserID:     d.UserID,
		ResourceID: d.ResourceID,
		Status:     model.ParseReservationStatus(d.Status),
		Start:      d.Start.UTC(),
		End:        d.End.UTC(),
		Note:       d.Note,
	}
}

type mongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
	locks      *resourceLock
	txManager  mongotx.TransactionManager
	timeouts   Timeouts
}

func NewMongoRepository(cfg *config.Config) Repository {
	client := cfg.Client.Mongo
	db := client.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		client:     client,
		collection: db.Collection(CollectionName),
		counters:   db.Collection(CountersCollectionName),
		locks:      newResourceLock(db),
		txManager:  mongotx.NewTransactionManager(client),
		timeouts:   Timeouts{Read: cfg.ReadTimeout, Write: cfg.WriteTimeout},
	}
}

// nextID hands out monotonically increasing ids. It runs outside the insert
// transaction, so a rejected insert leaves a gap.
func (r *mongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": reservationsCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate reservation id: %w", err)
	}
	return counter.Seq, nil
}

func (r *mongoRepository) Insert(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := reservationDocument{
		ID:         id,
		UserID:     res.UserID,
		ResourceID: res.ResourceID,
		Status:     res.Status.String(),
		// BSON dates carry milliseconds
		Start:     res.Start.UTC().Truncate(time.Millisecond),
		End:       res.End.UTC().Truncate(time.Millisecond),
		Note:      res.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if res.Status.IsActive() {
			if err := r.locks.Acquire(sessCtx, doc.ResourceID); err != nil {
				return err
			}
			if err := r.checkOverlap(sessCtx, &doc); err != nil {
				return err
			}
		}
		if _, err := r.collection.InsertOne(sessCtx, doc); err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc.toModel(), nil
}

func (r *mongoRepository) checkOverlap(ctx context.Context, doc *reservationDocument) error {
	var existing reservationDocument
	err := r.collection.FindOne(ctx,
		bson.M{
			"resource_id": doc.ResourceID,
			"status":      bson.M{"$in": activeStatuses},
			"start":       bson.M{"$lt": doc.End},
			"end":         bson.M{"$gt": doc.Start},
		},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&existing)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check overlapping reservations: %w", err)
	}
	return newOverlapError(doc.toModel().Window(), existing.toModel().Window())
}

func (r *mongoRepository) findOneAndSet(ctx context.Context, filter bson.M, set bson.M, op string) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	set["updated_at"] = time.Now().UTC()

	var doc reservationDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s reservation: %w", op, err)
	}
	return doc.toModel(), nil
}

func (r *mongoRepository) ConfirmPending(ctx context.Context, id int64) (*model.Reservation, error) {
	return r.findOneAndSet(ctx,
		bson.M{"_id": id, "status": model.StatusPending.String()},
		bson.M{"status": model.StatusConfirmed.String()},
		"confirm",
	)
}

func (r *mongoRepository) UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error) {
	return r.findOneAndSet(ctx, bson.M{"_id": id}, bson.M{"note": note}, "update")
}

func (r *mongoRepository) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()

	var doc reservationDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return nil
}

func buildMongoFilter(userID, resourceID string, status model.ReservationStatus) bson.M {
	filter := bson.M{"status": status.String()}
	if userID != "" {
		filter["user_id"] = userID
	}
	if resourceID != "" {
		filter["resource_id"] = resourceID
	}
	return filter
}

func sortByID(desc bool) bson.D {
	if desc {
		return bson.D{{Key: "_id", Value: -1}}
	}
	return bson.D{{Key: "_id", Value: 1}}
}

func (r *mongoRepository) Query(ctx context.Context, p QueryParams) ([]*model.Reservation, error) {
	filter := buildMongoFilter(p.UserID, p.ResourceID, p.Status)
	if p.Start != nil {
		filter["end"] = bson.M{"$gt": p.Start.UTC()}
	}
	if p.End != nil {
		filter["start"] = bson.M{"$lt": p.End.UTC()}
	}

	opts := options.Find().SetSort(sortByID(p.Desc)).SetSkip(max(p.Offset, 0))
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) Filter(ctx context.Context, p FilterParams) ([]*model.Reservation, error) {
	filter := buildMongoFilter(p.UserID, p.ResourceID, p.Status)
	if p.Cursor > 0 {
		op := "$gte"
		if p.Desc {
			op = "$lte"
		}
		filter["_id"] = bson.M{op: p.Cursor}
	}

	opts := options.Find().SetSort(sortByID(p.Desc))
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reservationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	out := make([]*model.Reservation, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()
	return r.client.Ping(ctx, readpref.Primary())
}

// Close is a no-op; the client is owned by config.Client.
func (r *mongoRepository) Close(context.Context) error {
	return nil
}
