package service

import (
	"context"
	"errors"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentDetails pairs an assignment with its plan for list responses.
type AssignmentDetails struct {
	domain.DietPlanAssignment
	Plan *domain.DietPlan `json:"plan,omitempty"`
}

// AssignmentService attaches a trainer's diet plan to clients and manages
// activation. The invariant it enforces everywhere: exactly zero or one
// assignment with IsActive per client at any observation point.
type AssignmentService interface {
	AssignToClients(ctx context.Context, actor Actor, planID primitive.ObjectID, clientIDs []primitive.ObjectID, makeActive bool) ([]domain.DietPlanAssignment, error)
	Unassign(ctx context.Context, actor Actor, planID, clientID primitive.ObjectID) error
	SetActive(ctx context.Context, actor Actor, planID, clientID primitive.ObjectID, isActive bool) (*domain.DietPlanAssignment, error)
	ListAssignmentsForClient(ctx context.Context, actor Actor, clientID primitive.ObjectID) ([]AssignmentDetails, error)
	GetActiveAssignment(ctx context.Context, actor Actor, clientID primitive.ObjectID) (*AssignmentDetails, error)
}

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	userRepo       repository.UserRepository
	planRepo       repository.DietPlanRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.TxRunner
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	userRepo repository.UserRepository,
	planRepo repository.DietPlanRepository,
	assignmentRepo repository.AssignmentRepository,
	tx repository.TxRunner,
) AssignmentService {
	return &assignmentService{
		userRepo:       userRepo,
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
	}
}

// AssignToClients attaches the plan to each listed client. An existing
// (plan, client) row is updated rather than duplicated. When makeActive
// is set, every other active assignment of the client is deactivated
// first; the whole sequence is atomic per client so no observer ever
// sees two active assignments.
func (s *assignmentService) AssignToClients(ctx context.Context, actor Actor, planID primitive.ObjectID, clientIDs []primitive.ObjectID, makeActive bool) ([]domain.DietPlanAssignment, error) {
	if len(clientIDs) == 0 {
		return nil, validationError("at least one client is required")
	}

	plan, err := s.ownedPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	// Verify every target before mutating anything: all listed clients
	// must currently belong to the acting trainer.
	clients := make([]*domain.User, 0, len(clientIDs))
	for _, clientID := range clientIDs {
		client, err := s.managedClient(ctx, actor, clientID)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	results := make([]domain.DietPlanAssignment, 0, len(clients))
	for _, client := range clients {
		assignment, err := s.upsertAssignment(ctx, plan, client.ID, makeActive)
		if err != nil {
			return nil, err
		}
		results = append(results, *assignment)
	}
	return results, nil
}

// upsertAssignment creates or updates the (plan, client) row with the
// requested activation state, atomically per client.
func (s *assignmentService) upsertAssignment(ctx context.Context, plan *domain.DietPlan, clientID primitive.ObjectID, makeActive bool) (*domain.DietPlanAssignment, error) {
	var result *domain.DietPlanAssignment

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if makeActive {
			if err := s.assignmentRepo.DeactivateAllForClient(ctx, clientID); err != nil {
				return err
			}
		}

		existing, err := s.assignmentRepo.GetByPlanAndClient(ctx, plan.ID, clientID)
		switch {
		case err == nil:
			if err := s.assignmentRepo.SetActive(ctx, existing.ID, makeActive); err != nil {
				return err
			}
			existing.IsActive = makeActive
			result = existing
			return nil
		case errors.Is(err, repository.ErrNotFound):
			assignment := &domain.DietPlanAssignment{
				PlanID:    plan.ID,
				ClientID:  clientID,
				TrainerID: plan.TrainerID,
				IsActive:  makeActive,
			}
			id, err := s.assignmentRepo.Create(ctx, assignment)
			if err != nil {
				return err
			}
			assignment.ID = id
			result = assignment
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

// Unassign deletes the (plan, client) assignment row. Past meal logs are
// untouched; they remain for historical record.
func (s *assignmentService) Unassign(ctx context.Context, actor Actor, planID, clientID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, actor, planID); err != nil {
		return err
	}
	if _, err := s.managedClient(ctx, actor, clientID); err != nil {
		return err
	}

	if err := s.assignmentRepo.Delete(ctx, planID, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	return nil
}

// SetActive flips activation on an existing assignment, applying the same
// deactivate-all-then-activate rule as AssignToClients.
func (s *assignmentService) SetActive(ctx context.Context, actor Actor, planID, clientID primitive.ObjectID, isActive bool) (*domain.DietPlanAssignment, error) {
	if _, err := s.ownedPlan(ctx, actor, planID); err != nil {
		return nil, err
	}
	if _, err := s.managedClient(ctx, actor, clientID); err != nil {
		return nil, err
	}

	var result *domain.DietPlanAssignment
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentRepo.GetByPlanAndClient(ctx, planID, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}

		if isActive {
			if err := s.assignmentRepo.DeactivateAllForClient(ctx, clientID); err != nil {
				return err
			}
		}
		if err := s.assignmentRepo.SetActive(ctx, assignment.ID, isActive); err != nil {
			return err
		}
		assignment.IsActive = isActive
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAssignmentsForClient returns all assignments of a client, active and
// inactive, with plan detail attached.
func (s *assignmentService) ListAssignmentsForClient(ctx context.Context, actor Actor, clientID primitive.ObjectID) ([]AssignmentDetails, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	details := make([]AssignmentDetails, 0, len(assignments))
	for _, a := range assignments {
		d := AssignmentDetails{DietPlanAssignment: a}
		if plan, err := s.planRepo.GetByID(ctx, a.PlanID); err == nil {
			d.Plan = plan
		}
		details = append(details, d)
	}
	return details, nil
}

// GetActiveAssignment returns the single active assignment of a client,
// or ErrAssignmentNotFound when none is active.
func (s *assignmentService) GetActiveAssignment(ctx context.Context, actor Actor, clientID primitive.ObjectID) (*AssignmentDetails, error) {
	if err := s.checkViewAccess(ctx, actor, clientID); err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	d := &AssignmentDetails{DietPlanAssignment: *assignment}
	if plan, err := s.planRepo.GetByID(ctx, assignment.PlanID); err == nil {
		d.Plan = plan
	}
	return d, nil
}

// ownedPlan fetches a plan and verifies the actor is its owning trainer.
func (s *assignmentService) ownedPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.DietPlan, error) {
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

// managedClient fetches a client and verifies the actor is their current trainer.
func (s *assignmentService) managedClient(ctx context.Context, actor Actor, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, validationError("user %s is not a client", clientID.Hex())
	}
	if !canManageClient(actor, client) {
		return nil, ErrForbidden
	}
	return client, nil
}

// checkViewAccess applies the read-side access policy for client data.
func (s *assignmentService) checkViewAccess(ctx context.Context, actor Actor, clientID primitive.ObjectID) error {
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
