package service

import (
	"context"
	"errors"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseInput carries the writable fields of an exercise.
type ExerciseInput struct {
	Name        string
	Description string
	MuscleGroup string
	Difficulty  string
	VideoURL    string
}

// WorkoutInput carries the writable fields of a workout template.
type WorkoutInput struct {
	Name        string
	Description string
	Items       []domain.WorkoutItem
}

// WorkoutService manages the exercise library, workout templates, and
// client workout sessions with the streak statistic.
type WorkoutService interface {
	// Exercise library
	CreateExercise(ctx context.Context, actor Actor, input ExerciseInput) (*domain.Exercise, error)
	GetExercisesByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error

	// Workout templates
	CreateWorkout(ctx context.Context, actor Actor, input WorkoutInput) (*domain.Workout, error)
	GetWorkoutsByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.Workout, error)
	UpdateWorkout(ctx context.Context, actor Actor, workoutID primitive.ObjectID, input WorkoutInput) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, actor Actor, workoutID primitive.ObjectID) error

	// Sessions
	LogSession(ctx context.Context, actor Actor, clientID, workoutID primitive.ObjectID, notes string) (*domain.WorkoutSession, error)
	GetSessions(ctx context.Context, actor Actor, clientID primitive.ObjectID) ([]domain.WorkoutSession, error)
	GetStreak(ctx context.Context, actor Actor, clientID primitive.ObjectID) (int, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	userRepo     repository.UserRepository
	exerciseRepo repository.ExerciseRepository
	workoutRepo  repository.WorkoutRepository
	sessionRepo  repository.SessionRepository
	now          func() time.Time
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	sessionRepo repository.SessionRepository,
) WorkoutService {
	return &workoutService{
		userRepo:     userRepo,
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		sessionRepo:  sessionRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// === Exercise library ===

// CreateExercise adds an entry to the acting trainer's library.
func (s *workoutService) CreateExercise(ctx context.Context, actor Actor, input ExerciseInput) (*domain.Exercise, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if input.Name == "" {
		return nil, validationError("exercise name is required")
	}

	exercise := &domain.Exercise{
		TrainerID:   actor.ID,
		Name:        input.Name,
		Description: input.Description,
		MuscleGroup: input.MuscleGroup,
		Difficulty:  input.Difficulty,
		VideoURL:    input.VideoURL,
	}

	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return exercise, nil
}

// GetExercisesByTrainer lists a trainer's library. Trainers see their
// own; admins see anyone's.
func (s *workoutService) GetExercisesByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	if actor.ID != trainerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.exerciseRepo.GetByTrainerID(ctx, trainerID)
}

// UpdateExercise modifies an owned exercise.
func (s *workoutService) UpdateExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" {
		return nil, validationError("exercise name is required")
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if exercise.TrainerID != actor.ID {
		return nil, ErrForbidden
	}

	exercise.Name = input.Name
	exercise.Description = input.Description
	exercise.MuscleGroup = input.MuscleGroup
	exercise.Difficulty = input.Difficulty
	exercise.VideoURL = input.VideoURL

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// DeleteExercise removes an owned exercise unless a workout still
// references it.
func (s *workoutService) DeleteExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error {
	count, err := s.workoutRepo.CountByExerciseID(ctx, exerciseID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrExerciseInUse
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

// === Workout templates ===

// CreateWorkout authors a template from the acting trainer's exercises.
func (s *workoutService) CreateWorkout(ctx context.Context, actor Actor, input WorkoutInput) (*domain.Workout, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if input.Name == "" {
		return nil, validationError("workout name is required")
	}
	if err := s.checkItems(ctx, actor, input.Items); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		TrainerID:   actor.ID,
		Name:        input.Name,
		Description: input.Description,
		Items:       input.Items,
	}

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

// GetWorkoutsByTrainer lists a trainer's templates.
func (s *workoutService) GetWorkoutsByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.Workout, error) {
	if actor.ID != trainerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.workoutRepo.GetByTrainerID(ctx, trainerID)
}

// UpdateWorkout modifies an owned workout template.
func (s *workoutService) UpdateWorkout(ctx context.Context, actor Actor, workoutID primitive.ObjectID, input WorkoutInput) (*domain.Workout, error) {
	if input.Name == "" {
		return nil, validationError("workout name is required")
	}

	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.TrainerID != actor.ID {
		return nil, ErrForbidden
	}
	if err := s.checkItems(ctx, actor, input.Items); err != nil {
		return nil, err
	}

	workout.Name = input.Name
	workout.Description = input.Description
	workout.Items = input.Items

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// DeleteWorkout removes an owned workout template. Session records
// referencing it survive for history.
func (s *workoutService) DeleteWorkout(ctx context.Context, actor Actor, workoutID primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, workoutID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

// checkItems verifies every referenced exercise exists and belongs to
// the acting trainer.
func (s *workoutService) checkItems(ctx context.Context, actor Actor, items []domain.WorkoutItem) error {
	for _, item := range items {
		if item.Sets <= 0 {
			return validationError("workout items require at least one set")
		}
		exercise, err := s.exerciseRepo.GetByID(ctx, item.ExerciseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrExerciseNotFound
			}
			return err
		}
		if exercise.TrainerID != actor.ID {
			return ErrForbidden
		}
	}
	return nil
}

// === Sessions ===

// LogSession records that the client performed a workout today.
func (s *workoutService) LogSession(ctx context.Context, actor Actor, clientID, workoutID primitive.ObjectID, notes string) (*domain.WorkoutSession, error) {
	if !canActAsClient(actor, clientID) {
		return nil, ErrForbidden
	}

	if _, err := s.workoutRepo.GetByID(ctx, workoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	now := s.now()
	session := &domain.WorkoutSession{
		ClientID:    clientID,
		WorkoutID:   workoutID,
		SessionDate: domain.DateOnly(now),
		Notes:       notes,
		CompletedAt: now,
	}

	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = id
	return session, nil
}

// GetSessions returns a client's session history, newest first.
func (s *workoutService) GetSessions(ctx context.Context, actor Actor, clientID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByClientID(ctx, clientID)
}

// GetStreak computes the number of consecutive calendar days ending
// today on which the client logged at least one session. A gap of one
// day breaks the streak; a day with no session yet today still counts
// yesterday's run.
func (s *workoutService) GetStreak(ctx context.Context, actor Actor, clientID primitive.ObjectID) (int, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return 0, err
	}

	dates, err := s.sessionRepo.GetDatesByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	if len(dates) == 0 {
		return 0, nil
	}

	today := domain.DateOnly(s.now())
	expected := today
	if !dates[0].Equal(today) {
		// No session yet today; the streak may still be alive from yesterday.
		expected = today.AddDate(0, 0, -1)
	}

	streak := 0
	for _, d := range dates {
		if !d.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak, nil
}

// checkViewAccess applies the read-side access policy for client data.
func (s *workoutService) checkViewAccess(ctx context.Context, actor Actor, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !canViewClientData(actor, client) {
		return ErrForbidden
	}
	return nil
}
