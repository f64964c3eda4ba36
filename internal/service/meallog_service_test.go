package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wednesday; plan day index 2.
var wednesday = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

type mealLogFixture struct {
	svc         *mealLogService
	users       *fakeUserRepo
	plans       *fakeDietPlanRepo
	assignments *fakeAssignmentRepo
	logs        *fakeMealLogRepo
	trainer     domain.User
	client      domain.User
	clientA     Actor
	trainerA    Actor
	plan        *domain.DietPlan
	now         time.Time
}

// newMealLogFixture seeds a connected pair and an active 7-day plan with
// mealsPerDay meals on every day, clock pinned to Wednesday afternoon.
func newMealLogFixture(t *testing.T, mealsPerDay int) *mealLogFixture {
	t.Helper()
	ctx := context.Background()

	users := newFakeUserRepo()
	plans := newFakeDietPlanRepo()
	assignments := newFakeAssignmentRepo()
	logs := newFakeMealLogRepo()

	trainer := users.addUser(domain.User{Name: "Tina", Email: "tina@example.com", Role: domain.RoleTrainer})
	client := users.addUser(domain.User{Name: "Carl", Email: "carl@example.com", Role: domain.RoleClient})
	users.SetTrainerForClient(ctx, client.ID, trainer.ID, wednesday.AddDate(0, -1, 0))

	days := make([]domain.DietPlanDay, 0, domain.DietPlanDays)
	for d := 0; d < domain.DietPlanDays; d++ {
		meals := make([]domain.Meal, 0, mealsPerDay)
		for m := 0; m < mealsPerDay; m++ {
			meals = append(meals, domain.Meal{ID: primitive.NewObjectID(), Name: "Meal", Calories: 500})
		}
		days = append(days, domain.DietPlanDay{DayOfWeek: d, Meals: meals})
	}
	plan := &domain.DietPlan{TrainerID: trainer.ID, Name: "Weekly", Days: days}
	planID, err := plans.Create(ctx, plan)
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	plan.ID = planID

	if _, err := assignments.Create(ctx, &domain.DietPlanAssignment{
		PlanID:    planID,
		ClientID:  client.ID,
		TrainerID: trainer.ID,
		IsActive:  true,
	}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	f := &mealLogFixture{
		users:       users,
		plans:       plans,
		assignments: assignments,
		logs:        logs,
		trainer:     trainer,
		client:      client,
		clientA:     Actor{ID: client.ID, Role: domain.RoleClient},
		trainerA:    Actor{ID: trainer.ID, Role: domain.RoleTrainer},
		plan:        plan,
		now:         wednesday,
	}
	f.svc = &mealLogService{
		userRepo:       users,
		planRepo:       plans,
		assignmentRepo: assignments,
		mealLogRepo:    logs,
		tx:             fakeTxRunner{},
		now:            func() time.Time { return f.now },
	}
	return f
}

// mealOn returns the nth meal scheduled for the given date.
func (f *mealLogFixture) mealOn(date time.Time, n int) domain.Meal {
	return f.plan.MealsForDay(domain.PlanDayIndex(date.Weekday()))[n]
}

func TestLogMealSameDayOnly(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)
	meal := f.mealOn(wednesday, 0)

	// Yesterday and tomorrow are both rejected.
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidLogDate) {
		t.Fatalf("backfill: err = %v, want ErrInvalidLogDate", err)
	}
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday.AddDate(0, 0, 1)); !errors.Is(err, ErrInvalidLogDate) {
		t.Fatalf("future-date: err = %v, want ErrInvalidLogDate", err)
	}

	// Today works regardless of the wall-clock time on the input.
	log, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("same-day log: %v", err)
	}
	if !log.LogDate.Equal(domain.DateOnly(wednesday)) {
		t.Errorf("LogDate = %v, want UTC midnight of today", log.LogDate)
	}
}

func TestLogMealRejectsMealNotScheduledToday(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)

	// A meal from Thursday's schedule cannot be logged on Wednesday.
	thursdayMeal := f.mealOn(wednesday.AddDate(0, 0, 1), 0)
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, thursdayMeal.ID, wednesday); !errors.Is(err, ErrMealNotInPlan) {
		t.Fatalf("off-day meal: err = %v, want ErrMealNotInPlan", err)
	}

	// A meal that exists in no plan at all.
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, primitive.NewObjectID(), wednesday); !errors.Is(err, ErrMealNotInPlan) {
		t.Fatalf("unknown meal: err = %v, want ErrMealNotInPlan", err)
	}
}

func TestLogMealSundayMapsToLastPlanDay(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 1)

	// Sunday, May 19th. time.Weekday says 0; the plan says day 6.
	sunday := time.Date(2024, 5, 19, 8, 0, 0, 0, time.UTC)
	f.now = sunday

	sundayMeal := f.plan.MealsForDay(6)[0]
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, sundayMeal.ID, sunday); err != nil {
		t.Fatalf("logging Sunday's meal on Sunday: %v", err)
	}

	mondayMeal := f.plan.MealsForDay(0)[0]
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, mondayMeal.ID, sunday); !errors.Is(err, ErrMealNotInPlan) {
		t.Fatalf("Monday's meal on Sunday: err = %v, want ErrMealNotInPlan", err)
	}
}

func TestLogMealRequiresActivePlan(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 1)
	meal := f.mealOn(wednesday, 0)

	f.assignments.DeactivateAllForClient(ctx, f.client.ID)
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday); !errors.Is(err, ErrNoActiveDietPlan) {
		t.Fatalf("no active plan: err = %v, want ErrNoActiveDietPlan", err)
	}
}

func TestLogMealSelfOnly(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 1)
	meal := f.mealOn(wednesday, 0)

	// Neither the trainer nor an admin logs on the client's behalf.
	if _, err := f.svc.LogMeal(ctx, f.trainerA, f.client.ID, meal.ID, wednesday); !errors.Is(err, ErrForbidden) {
		t.Fatalf("trainer logging: err = %v, want ErrForbidden", err)
	}
	admin := Actor{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	if _, err := f.svc.LogMeal(ctx, admin, f.client.ID, meal.ID, wednesday); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin logging: err = %v, want ErrForbidden", err)
	}
}

func TestLogMealDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)
	meal := f.mealOn(wednesday, 0)

	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday); !errors.Is(err, ErrMealAlreadyLogged) {
		t.Fatalf("duplicate log: err = %v, want ErrMealAlreadyLogged", err)
	}
}

func TestUnlogThenRelogRestoresRow(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)
	meal := f.mealOn(wednesday, 0)

	first, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	if err := f.svc.UnlogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday); err != nil {
		t.Fatalf("unlog: %v", err)
	}
	// Unlogging twice finds nothing live.
	if err := f.svc.UnlogMeal(ctx, f.clientA, f.client.ID, meal.ID, wednesday); !errors.Is(err, ErrMealLogNotFound) {
		t.Fatalf("double unlog: err = %v, want ErrMealLogNotFound", err)
	}

	// Re-log later the same day: the original row comes back with a
	// fresh completion time, no duplicate is inserted.
	f.now = wednesday.Add(2 * time.Hour)
	second, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, meal.ID, f.now)
	if err != nil {
		t.Fatalf("re-log: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-log created a new row %s, want restored row %s", second.ID.Hex(), first.ID.Hex())
	}
	if !second.CompletedAt.After(first.CompletedAt) {
		t.Errorf("restored CompletedAt %v not refreshed past %v", second.CompletedAt, first.CompletedAt)
	}
	if len(f.logs.logs) != 1 {
		t.Errorf("stored rows = %d, want 1", len(f.logs.logs))
	}
}

func TestDailyProgressAdherence(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 4)

	// Complete 3 of today's 4 meals.
	for i := 0; i < 3; i++ {
		if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, f.mealOn(wednesday, i).ID, wednesday); err != nil {
			t.Fatalf("log meal %d: %v", i, err)
		}
	}

	progress, err := f.svc.GetDailyProgress(ctx, f.clientA, f.client.ID, wednesday)
	if err != nil {
		t.Fatalf("daily progress: %v", err)
	}
	if progress.TotalMeals != 4 || progress.CompletedMeals != 3 {
		t.Fatalf("counts = %d/%d, want 3/4", progress.CompletedMeals, progress.TotalMeals)
	}
	if progress.AdherencePercentage != 75.00 {
		t.Errorf("adherence = %.2f, want 75.00", progress.AdherencePercentage)
	}

	completed := 0
	for _, mp := range progress.Meals {
		if mp.Completed {
			completed++
			if mp.CompletedAt == nil {
				t.Errorf("completed meal missing CompletedAt")
			}
		}
	}
	if completed != 3 {
		t.Errorf("per-meal completions = %d, want 3", completed)
	}
}

func TestDailyProgressEmptyDayIsZeroNotError(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)

	// No active assignment at all: zeros, not an error.
	f.assignments.DeactivateAllForClient(ctx, f.client.ID)
	progress, err := f.svc.GetDailyProgress(ctx, f.clientA, f.client.ID, wednesday)
	if err != nil {
		t.Fatalf("daily progress without plan: %v", err)
	}
	if progress.TotalMeals != 0 || progress.AdherencePercentage != 0 {
		t.Errorf("empty day = %d meals %.2f%%, want zeros", progress.TotalMeals, progress.AdherencePercentage)
	}
}

func TestWeeklyProgressAggregates(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 2)

	// Monday of the current week.
	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)

	// Walk the week logging both meals Monday through Wednesday and one
	// meal on Thursday, moving the clock so each log is same-day.
	for d := 0; d < 4; d++ {
		day := monday.AddDate(0, 0, d)
		f.now = day.Add(9 * time.Hour)
		count := 2
		if d == 3 {
			count = 1
		}
		for m := 0; m < count; m++ {
			if _, err := f.svc.LogMeal(ctx, f.clientA, f.client.ID, f.mealOn(day, m).ID, day); err != nil {
				t.Fatalf("log day %d meal %d: %v", d, m, err)
			}
		}
	}

	weekly, err := f.svc.GetWeeklyProgress(ctx, f.clientA, f.client.ID, monday)
	if err != nil {
		t.Fatalf("weekly progress: %v", err)
	}
	if len(weekly.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(weekly.Days))
	}
	if weekly.TotalMeals != 14 || weekly.CompletedMeals != 7 {
		t.Fatalf("counts = %d/%d, want 7/14", weekly.CompletedMeals, weekly.TotalMeals)
	}
	if weekly.AdherencePercentage != 50.00 {
		t.Errorf("weekly adherence = %.2f, want 50.00", weekly.AdherencePercentage)
	}
	if !weekly.StartDate.Equal(monday) || !weekly.EndDate.Equal(monday.AddDate(0, 0, 6)) {
		t.Errorf("window = %v..%v, want %v..%v", weekly.StartDate, weekly.EndDate, monday, monday.AddDate(0, 0, 6))
	}

	// Days come back in calendar order with their own percentages.
	if weekly.Days[0].AdherencePercentage != 100.00 {
		t.Errorf("Monday adherence = %.2f, want 100.00", weekly.Days[0].AdherencePercentage)
	}
	if weekly.Days[3].AdherencePercentage != 50.00 {
		t.Errorf("Thursday adherence = %.2f, want 50.00", weekly.Days[3].AdherencePercentage)
	}
	if weekly.Days[6].AdherencePercentage != 0 {
		t.Errorf("Sunday adherence = %.2f, want 0", weekly.Days[6].AdherencePercentage)
	}
}

func TestProgressVisibility(t *testing.T) {
	ctx := context.Background()
	f := newMealLogFixture(t, 1)

	// The recorded trainer and an admin may read; a foreign trainer may not.
	if _, err := f.svc.GetDailyProgress(ctx, f.trainerA, f.client.ID, wednesday); err != nil {
		t.Fatalf("trainer read: %v", err)
	}
	admin := Actor{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	if _, err := f.svc.GetDailyProgress(ctx, admin, f.client.ID, wednesday); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	rival := f.users.addUser(domain.User{Name: "Rex", Email: "rex@example.com", Role: domain.RoleTrainer})
	if _, err := f.svc.GetDailyProgress(ctx, Actor{ID: rival.ID, Role: domain.RoleTrainer}, f.client.ID, wednesday); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign trainer read: err = %v, want ErrForbidden", err)
	}
}
