package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealProgress reports completion of one scheduled meal on one day.
type MealProgress struct {
	Meal        domain.Meal `json:"meal"`
	Completed   bool        `json:"completed"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// DailyProgress summarizes a client's adherence for one calendar date.
// A day with nothing scheduled reports zeros, never a division by zero.
type DailyProgress struct {
	Date                time.Time      `json:"date"`
	TotalMeals          int            `json:"totalMeals"`
	CompletedMeals      int            `json:"completedMeals"`
	AdherencePercentage float64        `json:"adherencePercentage"`
	Meals               []MealProgress `json:"meals"`
}

// WeeklyProgress aggregates seven daily summaries in calendar order.
type WeeklyProgress struct {
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	TotalMeals          int             `json:"totalMeals"`
	CompletedMeals      int             `json:"completedMeals"`
	AdherencePercentage float64         `json:"adherencePercentage"`
	Days                []DailyProgress `json:"days"`
}

// MealLogService records and summarizes meal completion against the
// client's single active plan assignment. Logging is same-day only: no
// backfilling, no future-dating.
type MealLogService interface {
	LogMeal(ctx context.Context, actor Actor, clientID, mealID primitive.ObjectID, logDate time.Time) (*domain.MealLog, error)
	UnlogMeal(ctx context.Context, actor Actor, clientID, mealID primitive.ObjectID, logDate time.Time) error
	GetDailyProgress(ctx context.Context, actor Actor, clientID primitive.ObjectID, date time.Time) (*DailyProgress, error)
	GetWeeklyProgress(ctx context.Context, actor Actor, clientID primitive.ObjectID, startDate time.Time) (*WeeklyProgress, error)
}

// mealLogService implements the MealLogService interface.
type mealLogService struct {
	userRepo       repository.UserRepository
	planRepo       repository.DietPlanRepository
	assignmentRepo repository.AssignmentRepository
	mealLogRepo    repository.MealLogRepository
	tx             repository.TxRunner
	now            func() time.Time
}

// NewMealLogService creates a new instance of mealLogService.
func NewMealLogService(
	userRepo repository.UserRepository,
	planRepo repository.DietPlanRepository,
	assignmentRepo repository.AssignmentRepository,
	mealLogRepo repository.MealLogRepository,
	tx repository.TxRunner,
) MealLogService {
	return &mealLogService{
		userRepo:       userRepo,
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		mealLogRepo:    mealLogRepo,
		tx:             tx,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// LogMeal records completion of a meal scheduled for today on the
// client's active plan. If a soft-deleted log exists for the same
// (client, meal, date) key it is restored with a fresh CompletedAt
// instead of inserting a duplicate row.
func (s *mealLogService) LogMeal(ctx context.Context, actor Actor, clientID, mealID primitive.ObjectID, logDate time.Time) (*domain.MealLog, error) {
	if !canActAsClient(actor, clientID) {
		return nil, ErrForbidden
	}

	day := domain.DateOnly(logDate)
	if !day.Equal(domain.DateOnly(s.now())) {
		return nil, ErrInvalidLogDate
	}

	assignment, err := s.assignmentRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveDietPlan
		}
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, assignment.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// Calendar weekday to plan day index: Monday = 0 .. Sunday = 6.
	scheduled := plan.MealsForDay(domain.PlanDayIndex(day.Weekday()))
	found := false
	for _, m := range scheduled {
		if m.ID == mealID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrMealNotInPlan
	}

	var result *domain.MealLog
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.mealLogRepo.GetByKey(ctx, clientID, mealID, day)
		switch {
		case err == nil && !existing.IsDeleted:
			return ErrMealAlreadyLogged
		case err == nil:
			// Soft-deleted row: restore it rather than insert a duplicate.
			completedAt := s.now()
			if err := s.mealLogRepo.Restore(ctx, existing.ID, completedAt); err != nil {
				return err
			}
			existing.IsDeleted = false
			existing.DeletedAt = nil
			existing.CompletedAt = completedAt
			result = existing
			return nil
		case errors.Is(err, repository.ErrNotFound):
			log := &domain.MealLog{
				ClientID:     clientID,
				MealID:       mealID,
				AssignmentID: assignment.ID,
				LogDate:      day,
				CompletedAt:  s.now(),
			}
			id, err := s.mealLogRepo.Create(ctx, log)
			if err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return ErrMealAlreadyLogged
				}
				return err
			}
			log.ID = id
			result = log
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnlogMeal soft-deletes the live log for (client, meal, date), making
// the unlog reversible by a later re-log.
func (s *mealLogService) UnlogMeal(ctx context.Context, actor Actor, clientID, mealID primitive.ObjectID, logDate time.Time) error {
	if !canActAsClient(actor, clientID) {
		return ErrForbidden
	}

	existing, err := s.mealLogRepo.GetByKey(ctx, clientID, mealID, domain.DateOnly(logDate))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealLogNotFound
		}
		return err
	}
	if existing.IsDeleted {
		return ErrMealLogNotFound
	}

	return s.mealLogRepo.SoftDelete(ctx, existing.ID, s.now())
}

// GetDailyProgress reports per-meal completion and the adherence
// percentage for one calendar date.
func (s *mealLogService) GetDailyProgress(ctx context.Context, actor Actor, clientID primitive.ObjectID, date time.Time) (*DailyProgress, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return nil, err
	}
	return s.dailyProgress(ctx, clientID, date)
}

// GetWeeklyProgress aggregates daily progress over the seven-day window
// [startDate, startDate+6], in calendar order.
func (s *mealLogService) GetWeeklyProgress(ctx context.Context, actor Actor, clientID primitive.ObjectID, startDate time.Time) (*WeeklyProgress, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return nil, err
	}

	start := domain.DateOnly(startDate)
	weekly := &WeeklyProgress{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
		Days:      make([]DailyProgress, 0, 7),
	}

	for i := 0; i < 7; i++ {
		daily, err := s.dailyProgress(ctx, clientID, start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		weekly.TotalMeals += daily.TotalMeals
		weekly.CompletedMeals += daily.CompletedMeals
		weekly.Days = append(weekly.Days, *daily)
	}

	weekly.AdherencePercentage = adherence(weekly.CompletedMeals, weekly.TotalMeals)
	return weekly, nil
}

// dailyProgress computes one day's summary without re-checking access.
// No active assignment, or a day with no scheduled meals, yields the
// all-zero summary.
func (s *mealLogService) dailyProgress(ctx context.Context, clientID primitive.ObjectID, date time.Time) (*DailyProgress, error) {
	day := domain.DateOnly(date)
	progress := &DailyProgress{Date: day, Meals: []MealProgress{}}

	assignment, err := s.assignmentRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return progress, nil
		}
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, assignment.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return progress, nil
		}
		return nil, err
	}

	scheduled := plan.MealsForDay(domain.PlanDayIndex(day.Weekday()))
	if len(scheduled) == 0 {
		return progress, nil
	}

	logs, err := s.mealLogRepo.GetLiveByClientAndDate(ctx, clientID, day)
	if err != nil {
		return nil, err
	}
	logged := make(map[primitive.ObjectID]*domain.MealLog, len(logs))
	for i := range logs {
		logged[logs[i].MealID] = &logs[i]
	}

	for _, meal := range scheduled {
		mp := MealProgress{Meal: meal}
		if log, ok := logged[meal.ID]; ok {
			mp.Completed = true
			completedAt := log.CompletedAt
			mp.CompletedAt = &completedAt
		}
		progress.Meals = append(progress.Meals, mp)
		progress.TotalMeals++
		if mp.Completed {
			progress.CompletedMeals++
		}
	}

	progress.AdherencePercentage = adherence(progress.CompletedMeals, progress.TotalMeals)
	return progress, nil
}

// checkViewAccess applies the read-side access policy for client data.
func (s *mealLogService) checkViewAccess(ctx context.Context, actor Actor, clientID primitive.ObjectID) error {
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

// adherence computes completed/total as a percentage rounded to two
// decimals, reporting 0 for an empty day.
func adherence(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
