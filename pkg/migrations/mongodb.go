package migrations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auditwatch/internal/constants"
)

// EnsureMongoIndexes creates the indexes the audit store relies on. Creating an
// index that already exists with the same spec is a no-op.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	processed := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "unique_message_id", Value: 1}},
			Options: options.Index().SetName("idx_processed_messages_unique_message_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_processed_messages_expires_at").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "processed_at", Value: -1}},
			Options: options.Index().SetName("idx_processed_messages_processed_at"),
		},
	}
	if _, err := db.Collection(constants.CollectionProcessedMessages).Indexes().CreateMany(ctx, processed); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", constants.CollectionProcessedMessages, err)
	}

	failed := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stage", Value: 1}, {Key: "failure.failed_at", Value: 1}},
			Options: options.Index().SetName("idx_failed_imports_stage_failed_at"),
		},
	}
	if _, err := db.Collection(constants.CollectionFailedImports).Indexes().CreateMany(ctx, failed); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", constants.CollectionFailedImports, err)
	}

	return nil
}
