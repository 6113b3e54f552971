package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadpipe/pkg/normalizer"
)

const (
	SeenLeadsCollection  = "seen_leads"
	SeenEventsCollection = "seen_events"
	FieldCreatedAt       = "created_at"
	TTLIndexName         = "created_at_ttl"

	codeIndexOptionsConflict = 85
)

// TTLIndex expires seen ids ttl after they were first claimed.
func TTLIndex(ttl time.Duration) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: FieldCreatedAt, Value: 1}},
		Options: options.Index().SetName(TTLIndexName).SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
}

type seenEvent struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore shares the seen set between replicas. Ids are stored as SHA-256
// digests and expire through a TTL index on created_at. Mongo sweeps expired
// documents lazily, so Claim also treats a stale document as free.
type MongoStore struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

// SeenCollections lists the collections backing a MongoStore, one per id
// namespace.
var SeenCollections = []string{SeenLeadsCollection, SeenEventsCollection}

func NewMongoStore(ctx context.Context, coll *mongo.Collection, ttl time.Duration) (*MongoStore, error) {
	s := &MongoStore{
		collection: coll,
		ttl:        ttl,
		now:        time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	return EnsureTTLIndex(ctx, s.collection, s.ttl)
}

// EnsureTTLIndex creates the expiry index on coll, or updates its expiry when
// the index already exists with a different ttl.
func EnsureTTLIndex(ctx context.Context, coll *mongo.Collection, ttl time.Duration) error {
	_, err := coll.Indexes().CreateOne(ctx, TTLIndex(ttl))
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != codeIndexOptionsConflict {
		return fmt.Errorf("failed to create ttl index on %s: %w", coll.Name(), err)
	}

	command := bson.D{
		{Key: "collMod", Value: coll.Name()},
		{Key: "index", Value: bson.D{
			{Key: "name", Value: TTLIndexName},
			{Key: "expireAfterSeconds", Value: int32(ttl.Seconds())},
		}},
	}
	if err := coll.Database().RunCommand(ctx, command).Err(); err != nil {
		return fmt.Errorf("failed to update ttl index on %s: %w", coll.Name(), err)
	}
	return nil
}

func (s *MongoStore) Claim(ctx context.Context, id string) (bool, error) {
	key := normalizer.Hash(id)
	now := s.now().UTC()

	_, err := s.collection.InsertOne(ctx, seenEvent{ID: key, CreatedAt: now})
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to record event id: %w", err)
	}

	// Take over an expired document the TTL monitor has not removed yet.
	filter := bson.M{"_id": key, FieldCreatedAt: bson.M{"$lte": now.Add(-s.ttl)}}
	update := bson.M{"$set": bson.M{FieldCreatedAt: now}}
	err = s.collection.FindOneAndUpdate(ctx, filter, update).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("failed to refresh expired event id: %w", err)
	}
}

func (s *MongoStore) Len(ctx context.Context) (int, error) {
	n, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close is a no-op; the shared client is disconnected by its owner.
func (s *MongoStore) Close(_ context.Context) error {
	return nil
}
