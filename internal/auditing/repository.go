package auditing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auditwatch/internal/constants"
	"auditwatch/internal/recoverability"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
)

// Repository stores audit records. Upsert must be idempotent per UniqueMessageID.
type Repository interface {
	Upsert(ctx context.Context, msg *ProcessedMessage) error
}

type FailedImportStore interface {
	recoverability.FailureStore
	ListFailedImports(ctx context.Context, stage string) ([]recoverability.FailedImport, error)
	DeleteFailedImport(ctx context.Context, id string) error
}

type MongoRepository struct {
	processed *mongo.Collection
	failed    *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		processed: db.Collection(constants.CollectionProcessedMessages),
		failed:    db.Collection(constants.CollectionFailedImports),
	}
}

// Upsert inserts msg unless a record with the same unique id exists; an existing
// record is left untouched.
func (r *MongoRepository) Upsert(ctx context.Context, msg *ProcessedMessage) error {
	start := time.Now()

	filter := bson.M{"unique_message_id": msg.UniqueMessageID}
	update := bson.M{"$setOnInsert": msg}

	_, err := r.processed.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	// Two concurrent upserts of the same key can race on the unique index; the
	// loser finds the record already there.
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = nil
	}

	observe("upsert_processed_message", start, err)
	if err != nil {
		return apperrors.ErrStore.WithCause(err)
	}
	return nil
}

func (r *MongoRepository) StoreFailedImport(ctx context.Context, failure recoverability.FailedImport) error {
	start := time.Now()
	_, err := r.failed.InsertOne(ctx, failure)
	observe("insert_failed_import", start, err)
	if err != nil {
		return apperrors.ErrStore.WithCause(err)
	}
	return nil
}

func (r *MongoRepository) ListFailedImports(ctx context.Context, stage string) ([]recoverability.FailedImport, error) {
	start := time.Now()
	opts := options.Find().SetSort(bson.D{{Key: "failure.failed_at", Value: 1}})

	cursor, err := r.failed.Find(ctx, bson.M{"stage": stage}, opts)
	if err != nil {
		observe("list_failed_imports", start, err)
		return nil, fmt.Errorf("failed to list failed imports: %w", err)
	}
	defer cursor.Close(ctx)

	var failures []recoverability.FailedImport
	err = cursor.All(ctx, &failures)
	observe("list_failed_imports", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode failed imports: %w", err)
	}
	return failures, nil
}

func (r *MongoRepository) DeleteFailedImport(ctx context.Context, id string) error {
	start := time.Now()
	res, err := r.failed.DeleteOne(ctx, bson.M{"_id": id})
	observe("delete_failed_import", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete failed import %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound.WithDetail("failed_import_id", id)
	}
	return nil
}

// GetByUniqueID looks a record up by its idempotency key.
func (r *MongoRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*ProcessedMessage, error) {
	var msg ProcessedMessage
	err := r.processed.FindOne(ctx, bson.M{"unique_message_id": uniqueID}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound.WithDetail("unique_message_id", uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed message: %w", err)
	}
	return &msg, nil
}

func observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncDatabaseQuery(constants.ServiceNameAudit, "mongodb", operation, status)
	metrics.ObserveDatabaseQueryDuration(constants.ServiceNameAudit, "mongodb", operation, time.Since(start))
}
