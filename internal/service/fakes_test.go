package service

import (
	"context"
	"sort"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the behavior of the mongo
// implementations closely enough for service-level tests, including the
// unique-index conflicts the real collections enforce.

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = &u
	return u.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	copied.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	var clients []domain.User
	for _, u := range r.users {
		if u.Role == domain.RoleClient && u.TrainerID != nil && *u.TrainerID == trainerID {
			clients = append(clients, *u)
		}
	}
	return clients, nil
}

func (r *fakeUserRepo) SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID, acceptedAt time.Time) error {
	u, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	u.TrainerID = &trainerID
	u.InvitationAcceptedAt = &acceptedAt
	return nil
}

func (r *fakeUserRepo) ClearTrainerForClient(ctx context.Context, clientID primitive.ObjectID) error {
	u, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	u.TrainerID = nil
	u.InvitationAcceptedAt = nil
	return nil
}

// addUser seeds a user directly, bypassing Create.
func (r *fakeUserRepo) addUser(u domain.User) domain.User {
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = &u
	return u
}

// --- invitations ---

type fakeInvitationRepo struct {
	invitations map[primitive.ObjectID]*domain.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[primitive.ObjectID]*domain.Invitation)}
}

func (r *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) (primitive.ObjectID, error) {
	for _, existing := range r.invitations {
		if existing.ClientID == inv.ClientID && existing.TrainerID == inv.TrainerID && existing.IsPending() {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	copied := *inv
	copied.ID = primitive.NewObjectID()
	copied.CreatedAt = time.Now().UTC()
	r.invitations[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeInvitationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invitation, error) {
	inv, ok := r.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvitationRepo) GetPendingByPair(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Invitation, error) {
	for _, inv := range r.invitations {
		if inv.ClientID == clientID && inv.TrainerID == trainerID && inv.IsPending() {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInvitationRepo) GetPendingByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Invitation, error) {
	var result []domain.Invitation
	for _, inv := range r.invitations {
		if inv.IsPending() && (inv.ClientID == userID || inv.TrainerID == userID) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *fakeInvitationRepo) Resolve(ctx context.Context, id primitive.ObjectID, status domain.InvitationStatus, resolvedAt time.Time) error {
	inv, ok := r.invitations[id]
	if !ok || !inv.IsPending() {
		return repository.ErrNotFound
	}
	inv.Status = status
	inv.ResolvedAt = &resolvedAt
	return nil
}

// --- history ---

type fakeHistoryRepo struct {
	records []domain.TrainerClientHistory
}

func (r *fakeHistoryRepo) Create(ctx context.Context, record *domain.TrainerClientHistory) (primitive.ObjectID, error) {
	copied := *record
	copied.ID = primitive.NewObjectID()
	r.records = append(r.records, copied)
	return copied.ID, nil
}

func (r *fakeHistoryRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, asTrainer bool) ([]domain.TrainerClientHistory, error) {
	var result []domain.TrainerClientHistory
	for _, rec := range r.records {
		if (asTrainer && rec.TrainerID == userID) || (!asTrainer && rec.ClientID == userID) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndedAt.After(result[j].EndedAt) })
	return result, nil
}

// --- diet plans ---

type fakeDietPlanRepo struct {
	plans map[primitive.ObjectID]*domain.DietPlan
}

func newFakeDietPlanRepo() *fakeDietPlanRepo {
	return &fakeDietPlanRepo{plans: make(map[primitive.ObjectID]*domain.DietPlan)}
}

func (r *fakeDietPlanRepo) Create(ctx context.Context, plan *domain.DietPlan) (primitive.ObjectID, error) {
	copied := *plan
	copied.ID = primitive.NewObjectID()
	copied.CreatedAt = time.Now().UTC()
	copied.UpdatedAt = copied.CreatedAt
	r.plans[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeDietPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *plan
	return &copied, nil
}

func (r *fakeDietPlanRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.DietPlan, error) {
	var result []domain.DietPlan
	for _, plan := range r.plans {
		if plan.TrainerID == trainerID {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (r *fakeDietPlanRepo) Update(ctx context.Context, plan *domain.DietPlan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *plan
	copied.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = &copied
	return nil
}

func (r *fakeDietPlanRepo) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	plan, ok := r.plans[id]
	if !ok || plan.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// --- assignments ---

type fakeAssignmentRepo struct {
	assignments map[primitive.ObjectID]*domain.DietPlanAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*domain.DietPlanAssignment)}
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, assignment *domain.DietPlanAssignment) (primitive.ObjectID, error) {
	for _, a := range r.assignments {
		if a.PlanID == assignment.PlanID && a.ClientID == assignment.ClientID {
			return primitive.NilObjectID, repository.ErrConflict
		}
		if assignment.IsActive && a.ClientID == assignment.ClientID && a.IsActive {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	copied := *assignment
	copied.ID = primitive.NewObjectID()
	copied.AssignedAt = time.Now().UTC()
	copied.UpdatedAt = copied.AssignedAt
	r.assignments[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) GetByPlanAndClient(ctx context.Context, planID, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	for _, a := range r.assignments {
		if a.PlanID == planID && a.ClientID == clientID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAssignmentRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.DietPlanAssignment, error) {
	var result []domain.DietPlanAssignment
	for _, a := range r.assignments {
		if a.ClientID == clientID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *fakeAssignmentRepo) GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.DietPlanAssignment, error) {
	for _, a := range r.assignments {
		if a.ClientID == clientID && a.IsActive {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAssignmentRepo) DeactivateAllForClient(ctx context.Context, clientID primitive.ObjectID) error {
	for _, a := range r.assignments {
		if a.ClientID == clientID {
			a.IsActive = false
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) SetActive(ctx context.Context, id primitive.ObjectID, isActive bool) error {
	a, ok := r.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsActive = isActive
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAssignmentRepo) Delete(ctx context.Context, planID, clientID primitive.ObjectID) error {
	for id, a := range r.assignments {
		if a.PlanID == planID && a.ClientID == clientID {
			delete(r.assignments, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeAssignmentRepo) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) error {
	for id, a := range r.assignments {
		if a.PlanID == planID {
			delete(r.assignments, id)
		}
	}
	return nil
}

// activeCount reports how many active assignments a client holds; the
// invariant tests assert it never exceeds one.
func (r *fakeAssignmentRepo) activeCount(clientID primitive.ObjectID) int {
	count := 0
	for _, a := range r.assignments {
		if a.ClientID == clientID && a.IsActive {
			count++
		}
	}
	return count
}

// --- meal logs ---

type fakeMealLogRepo struct {
	logs map[primitive.ObjectID]*domain.MealLog
}

func newFakeMealLogRepo() *fakeMealLogRepo {
	return &fakeMealLogRepo{logs: make(map[primitive.ObjectID]*domain.MealLog)}
}

func (r *fakeMealLogRepo) Create(ctx context.Context, log *domain.MealLog) (primitive.ObjectID, error) {
	for _, existing := range r.logs {
		if !existing.IsDeleted &&
			existing.ClientID == log.ClientID &&
			existing.MealID == log.MealID &&
			existing.LogDate.Equal(log.LogDate) {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	copied := *log
	copied.ID = primitive.NewObjectID()
	r.logs[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeMealLogRepo) GetByKey(ctx context.Context, clientID, mealID primitive.ObjectID, logDate time.Time) (*domain.MealLog, error) {
	for _, log := range r.logs {
		if log.ClientID == clientID && log.MealID == mealID && log.LogDate.Equal(logDate) {
			copied := *log
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMealLogRepo) GetLiveByClientAndDate(ctx context.Context, clientID primitive.ObjectID, logDate time.Time) ([]domain.MealLog, error) {
	var result []domain.MealLog
	for _, log := range r.logs {
		if !log.IsDeleted && log.ClientID == clientID && log.LogDate.Equal(logDate) {
			result = append(result, *log)
		}
	}
	return result, nil
}

func (r *fakeMealLogRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, deletedAt time.Time) error {
	log, ok := r.logs[id]
	if !ok || log.IsDeleted {
		return repository.ErrNotFound
	}
	log.IsDeleted = true
	log.DeletedAt = &deletedAt
	return nil
}

func (r *fakeMealLogRepo) Restore(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error {
	log, ok := r.logs[id]
	if !ok || !log.IsDeleted {
		return repository.ErrNotFound
	}
	log.IsDeleted = false
	log.DeletedAt = nil
	log.CompletedAt = completedAt
	return nil
}

// --- exercises ---

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	copied := *exercise
	copied.ID = primitive.NewObjectID()
	r.exercises[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	var result []domain.Exercise
	for _, e := range r.exercises {
		if e.TrainerID == trainerID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	e, ok := r.exercises[id]
	if !ok || e.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- workouts ---

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (r *fakeWorkoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	copied := *workout
	copied.ID = primitive.NewObjectID()
	r.workouts[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *w
	return &copied, nil
}

func (r *fakeWorkoutRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Workout, error) {
	var result []domain.Workout
	for _, w := range r.workouts {
		if w.TrainerID == trainerID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *fakeWorkoutRepo) CountByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	var count int64
	for _, w := range r.workouts {
		for _, item := range w.Items {
			if item.ExerciseID == exerciseID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeWorkoutRepo) Update(ctx context.Context, workout *domain.Workout) error {
	if _, ok := r.workouts[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *workout
	r.workouts[workout.ID] = &copied
	return nil
}

func (r *fakeWorkoutRepo) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	w, ok := r.workouts[id]
	if !ok || w.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

// --- sessions ---

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.WorkoutSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*domain.WorkoutSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	copied := *session
	copied.ID = primitive.NewObjectID()
	r.sessions[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	var result []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.ClientID == clientID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SessionDate.After(result[j].SessionDate) })
	return result, nil
}

func (r *fakeSessionRepo) GetDatesByClient(ctx context.Context, clientID primitive.ObjectID) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range r.sessions {
		if s.ClientID == clientID && !seen[s.SessionDate] {
			seen[s.SessionDate] = true
			dates = append(dates, s.SessionDate)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id, clientID primitive.ObjectID) error {
	s, ok := r.sessions[id]
	if !ok || s.ClientID != clientID {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}
