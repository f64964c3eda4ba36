package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationStatus type for the invitation lifecycle
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation is a pending proposal to form a trainer-client connection.
// Either side may initiate; InitiatorID records who sent it.
// At most one pending invitation may exist per (client, trainer) pair.
// An invitation is resolved exactly once and is immutable afterwards.
type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	InitiatorID primitive.ObjectID `bson:"initiatorId" json:"initiatorId"`
	Status      InvitationStatus   `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ResolvedAt  *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

func (i *Invitation) IsPending() bool {
	return i.Status == InvitationPending
}
