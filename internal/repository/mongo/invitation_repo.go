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

const invitationCollectionName = "invitations"

// mongoInvitationRepository implements repository.InvitationRepository.
type mongoInvitationRepository struct {
	collection *mongo.Collection
}

// NewMongoInvitationRepository creates a new Invitation repository backed by MongoDB.
func NewMongoInvitationRepository(db *mongo.Database) repository.InvitationRepository {
	return &mongoInvitationRepository{
		collection: db.Collection(invitationCollectionName),
	}
}

// Create inserts a new pending invitation.
func (r *mongoInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) (primitive.ObjectID, error) {
	if inv.ClientID == primitive.NilObjectID || inv.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("invitation requires clientId and trainerId")
	}

	inv.ID = primitive.NewObjectID()
	inv.CreatedAt = time.Now().UTC()
	if inv.Status == "" {
		inv.Status = domain.InvitationPending
	}

	result, err := r.collection.InsertOne(ctx, inv)
	if err != nil {
		// The partial unique index on (clientId, trainerId, status=pending)
		// rejects a second concurrent pending invitation for the same pair.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted invitation ID")
	}
	return insertedID, nil
}

// GetByID retrieves an invitation by its ID.
func (r *mongoInvitationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetPendingByPair returns the pending invitation for a (client, trainer) pair.
func (r *mongoInvitationRepository) GetPendingByPair(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Invitation, error) {
	filter := bson.M{
		"clientId":  clientID,
		"trainerId": trainerID,
		"status":    domain.InvitationPending,
	}

	var inv domain.Invitation
	err := r.collection.FindOne(ctx, filter).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetPendingByUser returns pending invitations in which the user is a party,
// newest first.
func (r *mongoInvitationRepository) GetPendingByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Invitation, error) {
	filter := bson.M{
		"status": domain.InvitationPending,
		"$or": bson.A{
			bson.M{"clientId": userID},
			bson.M{"trainerId": userID},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var invitations []domain.Invitation
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

// Resolve transitions a pending invitation to accepted or rejected.
// The filter matches on status == pending, so resolving an already
// resolved invitation reports ErrNotFound and leaves it untouched.
func (r *mongoInvitationRepository) Resolve(ctx context.Context, id primitive.ObjectID, status domain.InvitationStatus, resolvedAt time.Time) error {
	filter := bson.M{"_id": id, "status": domain.InvitationPending}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"resolvedAt": resolvedAt,
		},
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

// EnsureInvitationIndexes creates necessary indexes for the invitations collection.
func EnsureInvitationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one pending invitation per (client, trainer) pair.
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.InvitationPending}),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
