package mongo

import (
	"context"
	"errors"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollectionName = "trainer_client_history"

// mongoHistoryRepository implements repository.HistoryRepository.
type mongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new history repository backed by MongoDB.
func NewMongoHistoryRepository(db *mongo.Database) repository.HistoryRepository {
	return &mongoHistoryRepository{
		collection: db.Collection(historyCollectionName),
	}
}

// Create appends a closed connection interval to the history log.
func (r *mongoHistoryRepository) Create(ctx context.Context, record *domain.TrainerClientHistory) (primitive.ObjectID, error) {
	if record.TrainerID == primitive.NilObjectID || record.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("history record requires trainerId and clientId")
	}
	if record.EndedAt.Before(record.StartedAt) {
		return primitive.NilObjectID, errors.New("history record endedAt must not precede startedAt")
	}

	record.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted history ID")
	}
	return insertedID, nil
}

// GetByUser retrieves closed history rows where the user acted as trainer
// or as client, newest EndedAt first.
func (r *mongoHistoryRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, asTrainer bool) ([]domain.TrainerClientHistory, error) {
	field := "clientId"
	if asTrainer {
		field = "trainerId"
	}

	cursor, err := r.collection.Find(ctx, bson.M{field: userID},
		options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.TrainerClientHistory
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureHistoryIndexes creates necessary indexes for the history collection.
func EnsureHistoryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "endedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "endedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
