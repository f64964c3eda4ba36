package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mealLogCollectionName = "meal_logs"

// mongoMealLogRepository implements repository.MealLogRepository.
// Rows are soft-deleted; the (clientId, mealId, logDate) key is unique
// among non-deleted rows.
type mongoMealLogRepository struct {
	collection *mongo.Collection
}

// NewMongoMealLogRepository creates a new meal log repository backed by MongoDB.
func NewMongoMealLogRepository(db *mongo.Database) repository.MealLogRepository {
	return &mongoMealLogRepository{
		collection: db.Collection(mealLogCollectionName),
	}
}

// Create inserts a new live meal log row.
func (r *mongoMealLogRepository) Create(ctx context.Context, log *domain.MealLog) (primitive.ObjectID, error) {
	if log.ClientID == primitive.NilObjectID || log.MealID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("meal log requires clientId and mealId")
	}

	log.ID = primitive.NewObjectID()
	log.LogDate = domain.DateOnly(log.LogDate)
	log.IsDeleted = false
	log.DeletedAt = nil

	result, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted meal log ID")
	}
	return insertedID, nil
}

// GetByKey fetches the row for (client, meal, date), deleted or not,
// so callers can distinguish "restore" from "insert".
func (r *mongoMealLogRepository) GetByKey(ctx context.Context, clientID, mealID primitive.ObjectID, logDate time.Time) (*domain.MealLog, error) {
	filter := bson.M{
		"clientId": clientID,
		"mealId":   mealID,
		"logDate":  domain.DateOnly(logDate),
	}

	var log domain.MealLog
	err := r.collection.FindOne(ctx, filter).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// GetLiveByClientAndDate returns the non-deleted logs of a client for one
// calendar date.
func (r *mongoMealLogRepository) GetLiveByClientAndDate(ctx context.Context, clientID primitive.ObjectID, logDate time.Time) ([]domain.MealLog, error) {
	filter := bson.M{
		"clientId":  clientID,
		"logDate":   domain.DateOnly(logDate),
		"isDeleted": false,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.MealLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// SoftDelete marks a live log row as deleted.
func (r *mongoMealLogRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, deletedAt time.Time) error {
	filter := bson.M{"_id": id, "isDeleted": false}
	update := bson.M{
		"$set": bson.M{"isDeleted": true, "deletedAt": deletedAt},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Restore resurrects a soft-deleted row with a fresh completion time.
func (r *mongoMealLogRepository) Restore(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error {
	filter := bson.M{"_id": id, "isDeleted": true}
	update := bson.M{
		"$set":   bson.M{"isDeleted": false, "completedAt": completedAt},
		"$unset": bson.M{"deletedAt": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMealLogIndexes creates necessary indexes for the meal logs collection.
func EnsureMealLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one live log per (client, meal, date).
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "mealId", Value: 1}, {Key: "logDate", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_live_log_per_meal_per_day").
				SetPartialFilterExpression(bson.M{"isDeleted": false}),
		},
		{
			// Daily progress query path.
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "logDate", Value: 1}, {Key: "isDeleted", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
