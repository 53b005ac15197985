package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/events"
)

// MongoConfig holds the connection settings for MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore is an events.Store backed by a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
	now    func() time.Time
}

// NewMongoStore connects to MongoDB and ensures the geospatial index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig, log *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		log:    log.Named("mongo"),
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s.log.Info("Connected to DB",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	s.log.Info("Disconnected from DB")
	return nil
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Insert stores a new event and returns it with its id and timestamps.
func (s *MongoStore) Insert(ctx context.Context, ev events.Event) (events.Event, error) {
	now := s.now()
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, ev); err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

// List returns events newest first.
func (s *MongoStore) List(ctx context.Context, skip, limit int) ([]events.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var out []events.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored events.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// FindByID returns the event with the given id.
func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (events.Event, error) {
	var ev events.Event
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return events.Event{}, ErrNotFound
	}
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

// UpsertByID replaces the writable fields of the event at id, inserting it when absent.
func (s *MongoStore) UpsertByID(ctx context.Context, id primitive.ObjectID, ev events.Event) (events.Event, error) {
	now := s.now()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "event_name", Value: ev.EventName},
			{Key: "city_name", Value: ev.CityName},
			{Key: "date", Value: ev.Date},
			{Key: "coordinates", Value: ev.Coordinates},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "createdAt", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out events.Event
	if err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&out); err != nil {
		return events.Event{}, err
	}
	return out, nil
}

// DeleteByID removes the event at id and returns it.
func (s *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (events.Event, error) {
	var ev events.Event
	err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return events.Event{}, ErrNotFound
	}
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

// Search runs the nearby search aggregation.
func (s *MongoStore) Search(ctx context.Context, c events.SearchCriteria) (events.SearchPage, error) {
	pipeline := BuildSearchPipeline(c.SrcLat, c.SrcLong, c.From, c.To, c.Skip, c.Limit)

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return events.SearchPage{}, err
	}

	var results []searchAggregate
	if err := cur.All(ctx, &results); err != nil {
		return events.SearchPage{}, err
	}

	// No matches: the $group stage emits nothing.
	if len(results) == 0 {
		return events.SearchPage{Events: []events.Event{}}, nil
	}

	return events.SearchPage{
		Events: results[0].Events,
		Total:  results[0].Count,
	}, nil
}
