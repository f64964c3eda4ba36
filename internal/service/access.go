package service

import (
	"github.com/alihalilovic/easygym/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor identifies the authenticated caller of a service operation.
// It is derived from the JWT by the API layer and trusted here; services
// never re-validate credentials.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

func (a Actor) IsClient() bool  { return a.Role == domain.RoleClient }
func (a Actor) IsTrainer() bool { return a.Role == domain.RoleTrainer }
func (a Actor) IsAdmin() bool   { return a.Role == domain.RoleAdmin }

// Access policy predicates shared by the services. The rules form a
// closed function table over the three roles rather than a type
// hierarchy: clients see their own data, trainers see their own clients,
// admins read everything.

// canActAsClient reports whether the actor may perform client-side
// actions (meal logging, session logging) for the given client ID.
// Only the client themself qualifies; not even admins log on behalf
// of a client.
func canActAsClient(actor Actor, clientID primitive.ObjectID) bool {
	return actor.IsClient() && actor.ID == clientID
}

// canViewClientData reports whether the actor may read data belonging to
// the given client. The client document is needed to check the trainer
// relationship.
func canViewClientData(actor Actor, client *domain.User) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsClient():
		return actor.ID == client.ID
	case actor.IsTrainer():
		return client.TrainerID != nil && *client.TrainerID == actor.ID
	default:
		return false
	}
}

// canManageClient reports whether the actor is the recorded trainer of
// the client. Used for write operations on client-facing resources
// (assignments); admins do not get a write override here, mirroring the
// trainer-only business rules.
func canManageClient(actor Actor, client *domain.User) bool {
	return actor.IsTrainer() && client.TrainerID != nil && *client.TrainerID == actor.ID
}

// isConnectionParty reports whether the actor may resolve an invitation
// or tear down a connection between the given client and trainer: the
// client, the trainer, or an admin.
func isConnectionParty(actor Actor, clientID, trainerID primitive.ObjectID) bool {
	return actor.IsAdmin() || actor.ID == clientID || actor.ID == trainerID
}
