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

const assignmentCollectionName = "diet_plan_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository.
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new diet plan assignment.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.DietPlanAssignment) (primitive.ObjectID, error) {
	if assignment.PlanID == primitive.NilObjectID ||
		assignment.ClientID == primitive.NilObjectID ||
		assignment.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires planId, clientId, and trainerId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.AssignedAt = now
	assignment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		// The partial unique index on active assignments backstops the
		// single-active invariant under concurrent activation.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	var assignment domain.DietPlanAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByPlanAndClient retrieves the assignment row for a (plan, client) pair.
func (r *mongoAssignmentRepository) GetByPlanAndClient(ctx context.Context, planID, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	var assignment domain.DietPlanAssignment
	err := r.collection.FindOne(ctx, bson.M{"planId": planID, "clientId": clientID}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByClientID retrieves all assignments of a client, newest first.
func (r *mongoAssignmentRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.DietPlanAssignment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID},
		options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.DietPlanAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetActiveByClient retrieves the single active assignment of a client.
// This is a direct indexed query; callers never scan the full assignment
// list looking for the active one.
func (r *mongoAssignmentRepository) GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	var assignment domain.DietPlanAssignment
	err := r.collection.FindOne(ctx, bson.M{"clientId": clientID, "isActive": true}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// DeactivateAllForClient clears IsActive on every assignment of the client.
// Matching zero documents is fine; the client may have no assignments yet.
func (r *mongoAssignmentRepository) DeactivateAllForClient(ctx context.Context, clientID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateMany(ctx, bson.M{"clientId": clientID, "isActive": true}, update)
	return err
}

// SetActive flips the IsActive flag on a single assignment.
func (r *mongoAssignmentRepository) SetActive(ctx context.Context, id primitive.ObjectID, isActive bool) error {
	update := bson.M{
		"$set": bson.M{"isActive": isActive, "updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the assignment row for a (plan, client) pair.
// Past meal logs keep their assignmentId reference for historical record.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, planID, clientID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"planId": planID, "clientId": clientID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByPlan removes every assignment of a plan. Deleting zero rows is
// fine; the plan may never have been assigned.
func (r *mongoAssignmentRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One assignment row per (plan, client) pair.
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// At most one active assignment per client, enforced by the
			// store as well as by the transactional service sequence.
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_assignment_per_client").
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
