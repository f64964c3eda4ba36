package service

import (
	"context"
	"errors"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealInput describes one meal when creating or updating a plan.
// ID is optional: a nil ID mints a new meal, a set ID preserves the
// existing meal identity so past logs keep pointing at it.
type MealInput struct {
	ID          primitive.ObjectID
	Name        string
	Description string
	Calories    int
	ImageURL    string
}

// DietPlanDayInput describes one day of the week when writing a plan.
type DietPlanDayInput struct {
	DayOfWeek int
	Meals     []MealInput
}

// DietPlanService manages trainer-authored diet plans. Writing is
// trainer-only; admins read everything but do not author plans.
type DietPlanService interface {
	CreateDietPlan(ctx context.Context, actor Actor, name, description string, days []DietPlanDayInput) (*domain.DietPlan, error)
	UpdateDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID, name, description string, days []DietPlanDayInput) (*domain.DietPlan, error)
	GetDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.DietPlan, error)
	GetDietPlansByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.DietPlan, error)
	DeleteDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error
}

// dietPlanService implements the DietPlanService interface.
type dietPlanService struct {
	planRepo       repository.DietPlanRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.TxRunner
}

// NewDietPlanService creates a new instance of dietPlanService.
func NewDietPlanService(
	planRepo repository.DietPlanRepository,
	assignmentRepo repository.AssignmentRepository,
	tx repository.TxRunner,
) DietPlanService {
	return &dietPlanService{
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
	}
}

// buildDays validates the plan shape and materializes domain days.
// A plan has exactly 7 days covering Monday (0) through Sunday (6) once
// each, with 1 to 10 named meals per day.
func buildDays(days []DietPlanDayInput) ([]domain.DietPlanDay, error) {
	if len(days) != domain.DietPlanDays {
		return nil, validationError("a diet plan must contain exactly %d days, got %d", domain.DietPlanDays, len(days))
	}

	seen := make(map[int]bool, domain.DietPlanDays)
	built := make([]domain.DietPlanDay, 0, domain.DietPlanDays)
	for _, day := range days {
		if day.DayOfWeek < 0 || day.DayOfWeek >= domain.DietPlanDays {
			return nil, validationError("day of week must be between 0 (Monday) and 6 (Sunday), got %d", day.DayOfWeek)
		}
		if seen[day.DayOfWeek] {
			return nil, validationError("day of week %d appears more than once", day.DayOfWeek)
		}
		seen[day.DayOfWeek] = true

		if len(day.Meals) < domain.MinMealsPerDay || len(day.Meals) > domain.MaxMealsPerDay {
			return nil, validationError("each day must have between %d and %d meals, day %d has %d",
				domain.MinMealsPerDay, domain.MaxMealsPerDay, day.DayOfWeek, len(day.Meals))
		}

		meals := make([]domain.Meal, 0, len(day.Meals))
		for _, m := range day.Meals {
			if m.Name == "" {
				return nil, validationError("meal name is required")
			}
			id := m.ID
			if id == primitive.NilObjectID {
				id = primitive.NewObjectID()
			}
			meals = append(meals, domain.Meal{
				ID:          id,
				Name:        m.Name,
				Description: m.Description,
				Calories:    m.Calories,
				ImageURL:    m.ImageURL,
			})
		}
		built = append(built, domain.DietPlanDay{DayOfWeek: day.DayOfWeek, Meals: meals})
	}
	return built, nil
}

// CreateDietPlan authors a new plan owned by the acting trainer.
func (s *dietPlanService) CreateDietPlan(ctx context.Context, actor Actor, name, description string, days []DietPlanDayInput) (*domain.DietPlan, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if name == "" {
		return nil, validationError("plan name is required")
	}

	builtDays, err := buildDays(days)
	if err != nil {
		return nil, err
	}

	plan := &domain.DietPlan{
		TrainerID:   actor.ID,
		Name:        name,
		Description: description,
		Days:        builtDays,
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// UpdateDietPlan rewrites an existing plan, preserving meal identities
// where the input carries them.
func (s *dietPlanService) UpdateDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID, name, description string, days []DietPlanDayInput) (*domain.DietPlan, error) {
	plan, err := s.ownedPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, validationError("plan name is required")
	}

	builtDays, err := buildDays(days)
	if err != nil {
		return nil, err
	}

	plan.Name = name
	plan.Description = description
	plan.Days = builtDays

	if err := s.planRepo.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetDietPlan returns a plan to its owner, to an admin, or to a client
// who holds an assignment for it.
func (s *dietPlanService) GetDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.DietPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsTrainer() && plan.TrainerID == actor.ID:
	case actor.IsClient():
		if _, err := s.assignmentRepo.GetByPlanAndClient(ctx, planID, actor.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrForbidden
			}
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}

	return plan, nil
}

// GetDietPlansByTrainer lists a trainer's plans. Trainers see their own;
// admins see anyone's.
func (s *dietPlanService) GetDietPlansByTrainer(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.DietPlan, error) {
	if actor.ID != trainerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.planRepo.GetByTrainerID(ctx, trainerID)
}

// DeleteDietPlan removes a plan together with its assignments. Past meal
// logs survive for historical record.
func (s *dietPlanService) DeleteDietPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error {
	plan, err := s.ownedPlan(ctx, actor, planID)
	if err != nil {
		return err
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.assignmentRepo.DeleteByPlan(ctx, planID); err != nil {
			return err
		}
		if err := s.planRepo.Delete(ctx, planID, plan.TrainerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		return nil
	})
}

// ownedPlan fetches a plan and verifies the actor is its owning trainer.
func (s *dietPlanService) ownedPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.DietPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !actor.IsTrainer() || plan.TrainerID != actor.ID {
		return nil, ErrForbidden
	}
	return plan, nil
}
