package repository

import (
	"context"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes fn atomically. Multi-statement sequences such as
// "deactivate all assignments, then activate one" or
// "check for an existing row, then insert" must run through it so two
// concurrent requests cannot interleave between the statements.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	// SetTrainerForClient establishes the connection on the client document.
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID, acceptedAt time.Time) error
	// ClearTrainerForClient removes the connection fields from the client document.
	ClearTrainerForClient(ctx context.Context, clientID primitive.ObjectID) error
}

// InvitationRepository defines the interface for interacting with invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invitation, error)
	// GetPendingByPair returns the single pending invitation for a
	// (client, trainer) pair, or ErrNotFound.
	GetPendingByPair(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Invitation, error)
	GetPendingByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Invitation, error)
	// Resolve transitions a pending invitation to its terminal status.
	// It matches on status == pending so a second resolve attempt fails
	// with ErrNotFound instead of overwriting the first resolution.
	Resolve(ctx context.Context, id primitive.ObjectID, status domain.InvitationStatus, resolvedAt time.Time) error
}

// HistoryRepository defines the interface for the trainer-client history log.
type HistoryRepository interface {
	Create(ctx context.Context, record *domain.TrainerClientHistory) (primitive.ObjectID, error)
	// GetByUser returns closed history rows for the user, acting either as
	// trainer or as client, newest EndedAt first.
	GetByUser(ctx context.Context, userID primitive.ObjectID, asTrainer bool) ([]domain.TrainerClientHistory, error)
}

// DietPlanRepository defines the interface for interacting with diet plans.
type DietPlanRepository interface {
	Create(ctx context.Context, plan *domain.DietPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.DietPlan, error)
	Update(ctx context.Context, plan *domain.DietPlan) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error
}

// AssignmentRepository defines the interface for diet plan assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.DietPlanAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlanAssignment, error)
	GetByPlanAndClient(ctx context.Context, planID, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.DietPlanAssignment, error)
	// GetActiveByClient is the dedicated "current active assignment" query;
	// callers never filter the full assignment list for the active one.
	GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error)
	// DeactivateAllForClient clears IsActive on every assignment of the client.
	DeactivateAllForClient(ctx context.Context, clientID primitive.ObjectID) error
	SetActive(ctx context.Context, id primitive.ObjectID, isActive bool) error
	Delete(ctx context.Context, planID, clientID primitive.ObjectID) error
	// DeleteByPlan removes every assignment of a plan; used when the plan
	// itself is deleted.
	DeleteByPlan(ctx context.Context, planID primitive.ObjectID) error
}

// MealLogRepository defines the interface for meal completion logs.
type MealLogRepository interface {
	Create(ctx context.Context, log *domain.MealLog) (primitive.ObjectID, error)
	// GetByKey fetches the log row for (client, meal, date) including a
	// soft-deleted one, so a re-log can restore it.
	GetByKey(ctx context.Context, clientID, mealID primitive.ObjectID, logDate time.Time) (*domain.MealLog, error)
	// GetLiveByClientAndDate returns the non-deleted logs of a client for
	// one calendar date.
	GetLiveByClientAndDate(ctx context.Context, clientID primitive.ObjectID, logDate time.Time) ([]domain.MealLog, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, deletedAt time.Time) error
	// Restore resurrects a soft-deleted row with a fresh completion time.
	Restore(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error
}

// ExerciseRepository defines the interface for the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for workout templates.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Workout, error)
	// CountByExerciseID reports how many workouts reference an exercise,
	// backing the "exercise in use" delete guard.
	CountByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error
}

// SessionRepository defines the interface for workout session records.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// GetDatesByClient returns the distinct session dates of a client,
	// newest first, for streak computation.
	GetDatesByClient(ctx context.Context, clientID primitive.ObjectID) ([]time.Time, error)
	Delete(ctx context.Context, id, clientID primitive.ObjectID) error
}
