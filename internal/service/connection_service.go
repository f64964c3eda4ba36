package service

import (
	"context"
	"errors"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionService mediates the trainer-client pairing lifecycle:
// invitations, the active connection, and the history of past connections.
type ConnectionService interface {
	CreateInvitation(ctx context.Context, actor Actor, counterpartEmail, message string) (*domain.Invitation, error)
	ResolveInvitation(ctx context.Context, actor Actor, invitationID primitive.ObjectID, status domain.InvitationStatus) (*domain.Invitation, error)
	ListInvitations(ctx context.Context, actor Actor, userID primitive.ObjectID) ([]domain.Invitation, error)
	RemoveConnection(ctx context.Context, actor Actor, trainerID, clientID primitive.ObjectID) error
	GetHistory(ctx context.Context, actor Actor, userID primitive.ObjectID, asTrainer bool) ([]domain.TrainerClientHistory, error)
	ListClients(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.User, error)
}

// connectionService implements the ConnectionService interface.
type connectionService struct {
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	historyRepo    repository.HistoryRepository
	tx             repository.TxRunner
	now            func() time.Time
}

// NewConnectionService creates a new instance of connectionService.
func NewConnectionService(
	userRepo repository.UserRepository,
	invitationRepo repository.InvitationRepository,
	historyRepo repository.HistoryRepository,
	tx repository.TxRunner,
) ConnectionService {
	return &connectionService{
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		historyRepo:    historyRepo,
		tx:             tx,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvitation proposes a connection between the initiator and the user
// behind counterpartEmail. A client must invite a trainer and vice versa;
// at most one pending invitation may exist per (client, trainer) pair.
func (s *connectionService) CreateInvitation(ctx context.Context, actor Actor, counterpartEmail, message string) (*domain.Invitation, error) {
	if counterpartEmail == "" {
		return nil, validationError("counterpart email is required")
	}

	counterpart, err := s.userRepo.GetByEmail(ctx, counterpartEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var clientID, trainerID primitive.ObjectID
	switch {
	case actor.IsClient() && counterpart.IsTrainer():
		clientID, trainerID = actor.ID, counterpart.ID
	case actor.IsTrainer() && counterpart.IsClient():
		clientID, trainerID = counterpart.ID, actor.ID
	default:
		return nil, validationError("a client must invite a trainer and a trainer must invite a client")
	}

	inv := &domain.Invitation{
		ClientID:    clientID,
		TrainerID:   trainerID,
		InitiatorID: actor.ID,
		Status:      domain.InvitationPending,
		Message:     message,
	}

	// Check-then-insert runs inside one transaction; the partial unique
	// index on pending pairs backstops it against a concurrent create.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.invitationRepo.GetPendingByPair(ctx, clientID, trainerID)
		if err == nil {
			return ErrInvitationExists
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		id, err := s.invitationRepo.Create(ctx, inv)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrInvitationExists
			}
			return err
		}
		inv.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ResolveInvitation transitions a pending invitation to accepted or
// rejected. The transition happens exactly once: resolving an already
// resolved invitation fails with ErrInvitationResolved. On acceptance the
// connection is established on the client document; the invitation itself
// never needs revisiting afterwards.
func (s *connectionService) ResolveInvitation(ctx context.Context, actor Actor, invitationID primitive.ObjectID, status domain.InvitationStatus) (*domain.Invitation, error) {
	if status != domain.InvitationAccepted && status != domain.InvitationRejected {
		return nil, validationError("invitation can only be resolved to accepted or rejected")
	}

	var resolved *domain.Invitation
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invitationRepo.GetByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}

		if !isConnectionParty(actor, inv.ClientID, inv.TrainerID) {
			return ErrForbidden
		}
		if !inv.IsPending() {
			return ErrInvitationResolved
		}

		now := s.now()

		if status == domain.InvitationAccepted {
			client, err := s.userRepo.GetByID(ctx, inv.ClientID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			if client.HasTrainer() {
				return validationError("client already has a trainer; remove the current connection first")
			}
			if err := s.userRepo.SetTrainerForClient(ctx, inv.ClientID, inv.TrainerID, now); err != nil {
				return err
			}
		}

		if err := s.invitationRepo.Resolve(ctx, invitationID, status, now); err != nil {
			// The status-guarded update lost a race with another resolver.
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvitationResolved
			}
			return err
		}

		inv.Status = status
		inv.ResolvedAt = &now
		resolved = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ListInvitations returns the pending invitations in which the user is a
// party. Users see their own; admins see anyone's.
func (s *connectionService) ListInvitations(ctx context.Context, actor Actor, userID primitive.ObjectID) ([]domain.Invitation, error) {
	if actor.ID != userID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.invitationRepo.GetPendingByUser(ctx, userID)
}

// RemoveConnection tears down the active trainer-client connection and
// appends the closed interval to the history log. Removing a connection
// that does not exist is a validation error, never a silent success; a
// history row must never be written with an undefined trainer.
func (s *connectionService) RemoveConnection(ctx context.Context, actor Actor, trainerID, clientID primitive.ObjectID) error {
	if !isConnectionParty(actor, clientID, trainerID) {
		return ErrForbidden
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.userRepo.GetByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !client.HasTrainer() || *client.TrainerID != trainerID {
			return validationError("client is not connected to this trainer")
		}

		now := s.now()
		startedAt := now
		if client.InvitationAcceptedAt != nil {
			startedAt = *client.InvitationAcceptedAt
		}

		record := &domain.TrainerClientHistory{
			TrainerID: trainerID,
			ClientID:  clientID,
			StartedAt: startedAt,
			EndedAt:   now,
		}
		if _, err := s.historyRepo.Create(ctx, record); err != nil {
			return err
		}

		return s.userRepo.ClearTrainerForClient(ctx, clientID)
	})
}

// GetHistory returns the closed connection intervals of a user, newest
// ended first. Users read their own history; admins read anyone's.
func (s *connectionService) GetHistory(ctx context.Context, actor Actor, userID primitive.ObjectID, asTrainer bool) ([]domain.TrainerClientHistory, error) {
	if actor.ID != userID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.historyRepo.GetByUser(ctx, userID, asTrainer)
}

// ListClients returns the clients currently connected to a trainer.
// Trainers list their own roster; admins list anyone's.
func (s *connectionService) ListClients(ctx context.Context, actor Actor, trainerID primitive.ObjectID) ([]domain.User, error) {
	if actor.ID != trainerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	clients, err := s.userRepo.GetClientsByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}
