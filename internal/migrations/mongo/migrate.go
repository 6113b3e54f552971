package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadpipe/internal/migrations/mongo/validators"
	"leadpipe/pkg/dedup"
	"leadpipe/pkg/logger"
)

// RunMigration prepares the collections used by the Mongo dedup backend.
func RunMigration(ctx context.Context, db *mongo.Database, dedupTTL time.Duration, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, name := range dedup.SeenCollections {
		if err := ensureCollection(ctx, db, name, validators.SeenEventValidator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := dedup.EnsureTTLIndex(ctx, db.Collection(name), dedupTTL); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
		log.Info("Ensured TTL index", "collection", name, "ttl", dedupTTL)
	}

	log.Info("All migrations applied successfully")
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
