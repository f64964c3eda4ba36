package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerClientHistory is an append-only record of a past trainer-client
// connection. A row is written only when a connection ends; the currently
// active connection lives on the client's User document, not here.
// Intervals for a given (trainer, client) pair never overlap and
// EndedAt >= StartedAt always holds.
type TrainerClientHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	StartedAt time.Time          `bson:"startedAt" json:"startedAt"`
	EndedAt   time.Time          `bson:"endedAt" json:"endedAt"`
}
